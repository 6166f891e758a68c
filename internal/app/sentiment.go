package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

type SentimentOptions struct {
	BatchSize   int // default 32
	Parallelism int // batches in flight, default 1
	MaxRunes    int // truncation limit, 0 = no truncation
}

type SentimentService struct {
	model domain.SentimentModel
	opts  SentimentOptions
}

func NewSentimentService(m domain.SentimentModel, opts SentimentOptions) *SentimentService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &SentimentService{model: m, opts: opts}
}

type SentimentReport struct {
	Labels    map[string]int
	PerBank   map[string]map[string]int
	MeanScore map[string]float64 // per bank
	Fallbacks int
}

type batchResult struct {
	sentiments []domain.Sentiment
	failures   []*domain.ClassificationError
}

// Classify attaches a sentiment to every review; output[i] always belongs to in[i].
// Records the model cannot score are labelled neutral with score 0.
func (s *SentimentService) Classify(ctx context.Context, in []domain.CleanReview) ([]domain.AnnotatedReview, SentimentReport, error) {
	defer observability.TimeStage("sentiment")()

	out := make([]domain.AnnotatedReview, len(in))
	var idx []int
	var texts []string
	for i, r := range in {
		out[i] = domain.AnnotatedReview{CleanReview: r, Sentiment: domain.NeutralSentiment()}
		if t := truncateRunes(r.Text, s.opts.MaxRunes); t != "" {
			idx = append(idx, i)
			texts = append(texts, t)
		}
	}

	nBatches := (len(texts) + s.opts.BatchSize - 1) / s.opts.BatchSize
	results := make([]batchResult, nBatches)
	sem := semaphore.NewWeighted(int64(s.opts.Parallelism))
	var wg sync.WaitGroup

	for b := 0; b < nBatches; b++ {
		lo := b * s.opts.BatchSize
		hi := min(lo+s.opts.BatchSize, len(texts))

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, SentimentReport{}, err
		}
		wg.Add(1)
		go func(b, lo, hi int) {
			defer wg.Done()
			defer sem.Release(1)
			results[b] = s.scoreBatch(ctx, in, idx[lo:hi], texts[lo:hi])
		}(b, lo, hi)

		if b%10 == 0 {
			log.Debug().Str("stage", "sentiment").Int("processed", hi).Int("total", len(texts)).Msg("progress")
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, SentimentReport{}, err
	}

	fallbacks := len(in) - len(texts)
	for b, res := range results {
		lo := b * s.opts.BatchSize
		for j, sent := range res.sentiments {
			out[idx[lo+j]].Sentiment = sent
		}
		for _, f := range res.failures {
			log.Warn().Str("stage", "sentiment").Str("review_id", f.ReviewID).Err(f.Err).Msg("falling back to neutral")
		}
		fallbacks += len(res.failures)
	}

	rep := sentimentReport(out)
	rep.Fallbacks = fallbacks
	observability.ObserveRows("sentiment", "kept", len(out)-fallbacks)
	observability.ObserveRows("sentiment", "fallback", fallbacks)
	log.Info().Str("stage", "sentiment").Int("reviews", len(out)).Int("fallbacks", fallbacks).Msg("sentiment analysis done")
	return out, rep, nil
}

// scoreBatch asks the model for a whole batch and falls back to one call per
// record when the batch call fails.
func (s *SentimentService) scoreBatch(ctx context.Context, in []domain.CleanReview, idx []int, texts []string) batchResult {
	res := batchResult{sentiments: make([]domain.Sentiment, len(texts))}
	preds, err := s.model.Predict(ctx, texts)
	if err == nil && len(preds) == len(texts) {
		for j, p := range preds {
			res.sentiments[j] = sanitizeSentiment(p)
		}
		return res
	}
	if err == nil {
		err = fmt.Errorf("model returned %d results for %d inputs", len(preds), len(texts))
	}
	log.Warn().Str("stage", "sentiment").Int("batch", len(texts)).Err(err).Msg("batch failed, scoring records one by one")

	for j, t := range texts {
		p, err := s.model.Predict(ctx, []string{t})
		if err == nil && len(p) != 1 {
			err = fmt.Errorf("model returned %d results for 1 input", len(p))
		}
		if err != nil {
			res.sentiments[j] = domain.NeutralSentiment()
			res.failures = append(res.failures, &domain.ClassificationError{ReviewID: in[idx[j]].ID, Err: err})
			continue
		}
		res.sentiments[j] = sanitizeSentiment(p[0])
	}
	return res
}

func sanitizeSentiment(p domain.Sentiment) domain.Sentiment {
	score := p.Score
	switch {
	case math.IsNaN(score) || score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	return domain.Sentiment{Label: domain.NormalizeLabel(p.Label), Score: domain.RoundScore(score)}
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func sentimentReport(rs []domain.AnnotatedReview) SentimentReport {
	rep := SentimentReport{
		Labels:    map[string]int{},
		PerBank:   map[string]map[string]int{},
		MeanScore: map[string]float64{},
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range rs {
		rep.Labels[r.Sentiment.Label]++
		if rep.PerBank[r.Bank] == nil {
			rep.PerBank[r.Bank] = map[string]int{}
		}
		rep.PerBank[r.Bank][r.Sentiment.Label]++
		sums[r.Bank] += r.Sentiment.Score
		counts[r.Bank]++
	}
	for b, n := range counts {
		rep.MeanScore[b] = sums[b] / float64(n)
	}
	return rep
}
