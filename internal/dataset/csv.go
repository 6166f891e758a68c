// Package dataset reads and writes the CSV files passed between pipeline stages.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bank_reviews/internal/domain"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

var (
	rawHeader       = []string{"review_id", "review_text", "rating", "date", "bank", "app_name", "source"}
	cleanHeader     = []string{"review_id", "review_text", "rating", "date", "bank", "source"}
	annotatedHeader = append(append([]string{}, cleanHeader...), "sentiment_label", "sentiment_score", "themes")
	keywordHeader   = []string{"bank", "rank", "keyword", "score"}
)

func WriteRaw(path string, rs []domain.RawReview) error {
	return writeFile(path, rawHeader, len(rs), func(i int) []string {
		r := rs[i]
		return []string{r.SourceID, r.Text, strconv.Itoa(r.Rating), r.Date, r.Bank, r.AppID, r.Source}
	})
}

// ReadRaw keeps values as found; an unparseable rating becomes 0 so the
// preprocessor rejects the row.
func ReadRaw(path string) ([]domain.RawReview, error) {
	var out []domain.RawReview
	err := readFile(path, rawHeader, func(row record) error {
		rating, _ := parseRating(row.get("rating"))
		out = append(out, domain.RawReview{
			SourceID: row.get("review_id"),
			Text:     row.get("review_text"),
			Rating:   rating,
			Date:     row.get("date"),
			Bank:     row.get("bank"),
			AppID:    row.get("app_name"),
			Source:   row.get("source"),
		})
		return nil
	})
	return out, err
}

func WriteClean(path string, rs []domain.CleanReview) error {
	return writeFile(path, cleanHeader, len(rs), func(i int) []string {
		return cleanFields(rs[i])
	})
}

func ReadClean(path string) ([]domain.CleanReview, error) {
	var out []domain.CleanReview
	err := readFile(path, cleanHeader, func(row record) error {
		cr, err := row.clean()
		if err != nil {
			return err
		}
		out = append(out, cr)
		return nil
	})
	return out, err
}

// WriteAnnotated writes sentiment and theme columns; themes stay empty until
// the theme stage has run.
func WriteAnnotated(path string, rs []domain.AnnotatedReview) error {
	return writeFile(path, annotatedHeader, len(rs), func(i int) []string {
		r := rs[i]
		return append(cleanFields(r.CleanReview),
			r.Sentiment.Label,
			strconv.FormatFloat(r.Sentiment.Score, 'f', domain.ScoreDecimals, 64),
			domain.JoinThemes(r.Themes),
		)
	})
}

func ReadAnnotated(path string) ([]domain.AnnotatedReview, error) {
	var out []domain.AnnotatedReview
	err := readFile(path, annotatedHeader[:len(annotatedHeader)-1], func(row record) error {
		cr, err := row.clean()
		if err != nil {
			return err
		}
		score, err := strconv.ParseFloat(row.get("sentiment_score"), 64)
		if err != nil {
			return fmt.Errorf("review %s: sentiment_score: %w", cr.ID, err)
		}
		out = append(out, domain.AnnotatedReview{
			CleanReview: cr,
			Sentiment:   domain.Sentiment{Label: domain.NormalizeLabel(row.get("sentiment_label")), Score: score},
			Themes:      domain.SplitThemes(row.get("themes")),
		})
		return nil
	})
	return out, err
}

// WriteKeywords writes the per-bank keyword ranking in the given bank order.
func WriteKeywords(path string, banks []string, kw map[string][]domain.TermScore) error {
	var rows [][]string
	for _, b := range banks {
		for i, t := range kw[b] {
			rows = append(rows, []string{b, strconv.Itoa(i + 1), t.Term, strconv.FormatFloat(t.Score, 'f', 6, 64)})
		}
	}
	return writeFile(path, keywordHeader, len(rows), func(i int) []string { return rows[i] })
}

func cleanFields(r domain.CleanReview) []string {
	return []string{r.ID, r.Text, strconv.Itoa(r.Rating), r.Date.Format(domain.DateLayout), r.Bank, r.Source}
}

func parseRating(s string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// ---- plumbing ----

type record struct {
	cols map[string]int
	vals []string
	line int
}

func (r record) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.vals) {
		return ""
	}
	return r.vals[i]
}

// clean rebuilds a CleanReview and checks the stored id still matches its content.
func (r record) clean() (domain.CleanReview, error) {
	rating, err := parseRating(r.get("rating"))
	if err != nil {
		return domain.CleanReview{}, fmt.Errorf("line %d: rating: %w", r.line, err)
	}
	date, err := time.Parse(domain.DateLayout, r.get("date"))
	if err != nil {
		return domain.CleanReview{}, fmt.Errorf("line %d: date: %w", r.line, err)
	}
	cr, err := domain.NewCleanReview(r.get("bank"), r.get("review_text"), rating, date, r.get("source"))
	if err != nil {
		return domain.CleanReview{}, fmt.Errorf("line %d: %w", r.line, err)
	}
	if id := r.get("review_id"); id != "" && id != cr.ID {
		return domain.CleanReview{}, fmt.Errorf("line %d: review_id %s does not match content", r.line, id)
	}
	return cr, nil
}

func readFile(path string, required []string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("%s: %w %q", path, ErrMissingColumn, c)
		}
	}

	for line := 2; ; line++ {
		vals, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := fn(record{cols: cols, vals: vals, line: line}); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
}

// writeFile replaces path atomically so a failed run never leaves half a file.
func writeFile(path string, header []string, n int, row func(int) []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
