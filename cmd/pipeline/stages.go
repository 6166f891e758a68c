package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bank_reviews/internal/adapters/charts"
	"bank_reviews/internal/adapters/huggingface"
	"bank_reviews/internal/adapters/playstore"
	"bank_reviews/internal/app"
	"bank_reviews/internal/dataset"
	"bank_reviews/internal/domain"
	"bank_reviews/internal/shared"
	mysqlrepo "bank_reviews/internal/storage/mysql"
)

func newCollectCmd(cfg *shared.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Scrape reviews for every configured bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return collect(cmd.Context(), *cfg, pathFlag(out, cfg.Paths.Raw))
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "raw CSV to write (default $RAW_DATA_PATH)")
	return cmd
}

func newPreprocessCmd(cfg *shared.Config) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Validate, normalise and dedupe raw reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return preprocess(cmd.OutOrStdout(), *cfg, pathFlag(in, cfg.Paths.Raw), pathFlag(out, cfg.Paths.Cleaned))
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "raw CSV to read")
	cmd.Flags().StringVar(&out, "out", "", "cleaned CSV to write")
	return cmd
}

func newSentimentCmd(cfg *shared.Config) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Score every cleaned review with the sentiment model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sentiment(cmd.Context(), cmd.OutOrStdout(), *cfg, pathFlag(in, cfg.Paths.Cleaned), pathFlag(out, cfg.Paths.Sentiment))
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "cleaned CSV to read")
	cmd.Flags().StringVar(&out, "out", "", "sentiment CSV to write")
	return cmd
}

func newThemesCmd(cfg *shared.Config) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Rank keywords per bank and tag reviews with themes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return themes(cmd.OutOrStdout(), *cfg, pathFlag(in, cfg.Paths.Sentiment), pathFlag(out, cfg.Paths.Themes))
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "sentiment CSV to read")
	cmd.Flags().StringVar(&out, "out", "", "themed CSV to write")
	return cmd
}

func newMigrateCmd(cfg *shared.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mysqlrepo.Migrate(cfg.DB.DSN())
		},
	}
}

func newPersistCmd(cfg *shared.Config) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Upsert banks and annotated reviews into MySQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return persist(cmd.Context(), cmd.OutOrStdout(), *cfg, pathFlag(in, cfg.Paths.Themes))
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "themed CSV to load")
	return cmd
}

func newReportCmd(cfg *shared.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print every report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd.Context(), cmd.OutOrStdout(), *cfg)
		},
	}
}

func newVisualizeCmd(cfg *shared.Config) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Render report charts as PNG files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return visualize(cmd.Context(), cmd.OutOrStdout(), *cfg, pathFlag(dir, cfg.Paths.Charts))
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory for chart PNGs")
	return cmd
}

func newRunCmd(cfg *shared.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every stage in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, out, c := cmd.Context(), cmd.OutOrStdout(), *cfg
			p := c.Paths
			steps := []struct {
				name string
				fn   func() error
			}{
				{"collect", func() error { return collect(ctx, c, p.Raw) }},
				{"preprocess", func() error { return preprocess(out, c, p.Raw, p.Cleaned) }},
				{"sentiment", func() error { return sentiment(ctx, out, c, p.Cleaned, p.Sentiment) }},
				{"themes", func() error { return themes(out, c, p.Sentiment, p.Themes) }},
				{"migrate", func() error { return mysqlrepo.Migrate(c.DB.DSN()) }},
				{"persist", func() error { return persist(ctx, out, c, p.Themes) }},
				{"report", func() error { return report(ctx, out, c) }},
				{"visualize", func() error { return visualize(ctx, out, c, p.Charts) }},
			}
			for _, s := range steps {
				start := time.Now()
				if err := s.fn(); err != nil {
					return fmt.Errorf("%s: %w", s.name, err)
				}
				log.Info().Str("stage", s.name).Dur("took", time.Since(start)).Msg("stage done")
			}
			return nil
		},
	}
}

// ---- stages ----

func collect(ctx context.Context, cfg shared.Config, out string) error {
	src, err := playstore.New(cfg.Scraper.BaseURL, playstore.Options{
		Lang:    cfg.Scraper.Lang,
		Country: cfg.Scraper.Country,
		Sort:    cfg.Scraper.Sort,
		RPS:     cfg.Scraper.RPS,
	})
	if err != nil {
		return err
	}
	raws, rep, err := app.NewCollectionService(src).Collect(ctx, cfg.Banks, cfg.Scraper.ReviewsPerBank)
	if err != nil {
		return err
	}
	if err := dataset.WriteRaw(out, raws); err != nil {
		return err
	}
	log.Info().
		Int("total", rep.Total).
		Int("failed_banks", len(rep.Failed)).
		Interface("per_bank", rep.PerBank).
		Str("file", out).
		Msg("raw reviews saved")
	return nil
}

func preprocess(w io.Writer, cfg shared.Config, in, out string) error {
	raws, err := dataset.ReadRaw(in)
	if err != nil {
		return err
	}
	clean, rep := app.Preprocess(raws, app.PreprocessOptions{MinLength: cfg.MinLength})
	if err := dataset.WriteClean(out, clean); err != nil {
		return err
	}
	fmt.Fprintf(w, "preprocess: %d in, %d kept, %d dropped (%.1f%%), %d duplicates\n",
		rep.Total, rep.Kept, rep.Dropped, rep.DropRate()*100, rep.Duplicates)
	reasons := make([]string, 0, len(rep.DroppedByReason))
	for r := range rep.DroppedByReason {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  dropped %-20s %d\n", r, rep.DroppedByReason[r])
	}
	if rep.Kept > 0 {
		fmt.Fprintf(w, "  dates %s .. %s, avg length %.0f\n",
			rep.DateMin.Format(domain.DateLayout), rep.DateMax.Format(domain.DateLayout), rep.AvgLength)
	}
	return nil
}

func sentiment(ctx context.Context, w io.Writer, cfg shared.Config, in, out string) error {
	clean, err := dataset.ReadClean(in)
	if err != nil {
		return err
	}
	model, err := huggingface.New(cfg.Sentiment.BaseURL, cfg.Sentiment.Model, cfg.Sentiment.Token, cfg.Sentiment.RPS)
	if err != nil {
		return err
	}
	svc := app.NewSentimentService(model, app.SentimentOptions{
		BatchSize:   cfg.Sentiment.BatchSize,
		Parallelism: cfg.Sentiment.Parallelism,
		MaxRunes:    cfg.Sentiment.MaxRunes,
	})
	annotated, rep, err := svc.Classify(ctx, clean)
	if err != nil {
		return err
	}
	if err := dataset.WriteAnnotated(out, annotated); err != nil {
		return err
	}
	fmt.Fprintf(w, "sentiment: %d reviews, %d fallbacks\n", len(annotated), rep.Fallbacks)
	for _, b := range cfg.Banks {
		fmt.Fprintf(w, "  %-8s %v mean score %.3f\n", b.Name, rep.PerBank[b.Name], rep.MeanScore[b.Name])
	}
	return nil
}

func themes(w io.Writer, cfg shared.Config, in, out string) error {
	rs, err := dataset.ReadAnnotated(in)
	if err != nil {
		return err
	}
	tagged, rep := app.NewThemeExtractor(app.DefaultTaxonomy, 0).Extract(rs)
	if err := dataset.WriteAnnotated(out, tagged); err != nil {
		return err
	}
	banks := make([]string, len(cfg.Banks))
	for i, b := range cfg.Banks {
		banks[i] = b.Name
	}
	if err := dataset.WriteKeywords(cfg.Paths.Keywords, banks, rep.Keywords); err != nil {
		return err
	}
	fmt.Fprintf(w, "themes: %d reviews, %d uncategorized\n", len(tagged), rep.Uncategorized)
	for _, b := range banks {
		for i, pp := range rep.PainPoints[b] {
			if i == 3 {
				break
			}
			fmt.Fprintf(w, "  %-8s pain point %-30s %d\n", b, pp.Theme, pp.Count)
		}
	}
	return nil
}

func persist(ctx context.Context, w io.Writer, cfg shared.Config, in string) error {
	rs, err := dataset.ReadAnnotated(in)
	if err != nil {
		return err
	}
	db, err := openDB(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	cache, closeCache := openCache(ctx, cfg)
	defer closeCache()

	rep, err := app.NewPersistService(mysqlrepo.New(db), cache).Persist(ctx, cfg.Banks, rs)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "persist: %d inserted, %d updated\n", rep.Inserted, rep.Updated)
	return nil
}

func newQueryService(ctx context.Context, cfg shared.Config) (*app.QueryService, func(), error) {
	db, err := openDB(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	cache, closeCache := openCache(ctx, cfg)
	repo := mysqlrepo.New(db)
	return app.NewQueryService(repo, repo, cache, cfg.CacheTTL), func() { closeCache(); db.Close() }, nil
}

func report(ctx context.Context, w io.Writer, cfg shared.Config) error {
	q, done, err := newQueryService(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, name := range app.ReportNames {
		rows, err := q.Report(ctx, name)
		if err != nil {
			return err
		}
		if err := enc.Encode(map[string]any{"report": name, "rows": rows}); err != nil {
			return err
		}
	}
	return nil
}

func visualize(ctx context.Context, w io.Writer, cfg shared.Config, dir string) error {
	q, done, err := newQueryService(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()

	files, err := app.NewVisualizeService(q, charts.New(dir)).Render(ctx)
	for _, f := range files {
		fmt.Fprintf(w, "chart: %s\n", f)
	}
	return err
}
