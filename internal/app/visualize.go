package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

type VisualizeService struct {
	q *QueryService
	r domain.ChartRenderer
}

func NewVisualizeService(q *QueryService, r domain.ChartRenderer) *VisualizeService {
	return &VisualizeService{q: q, r: r}
}

// Render reads each report and draws its chart. It stops at the first
// failure and returns the files written so far.
func (s *VisualizeService) Render(ctx context.Context) ([]string, error) {
	defer observability.TimeStage("visualize")()

	steps := []func(context.Context) (string, error){
		func(ctx context.Context) (string, error) {
			rows, err := s.q.SentimentByBank(ctx)
			if err != nil {
				return "", err
			}
			return s.r.SentimentByBank(rows)
		},
		func(ctx context.Context) (string, error) {
			rows, err := s.q.PainPoints(ctx)
			if err != nil {
				return "", err
			}
			return s.r.PainPoints(rows)
		},
		func(ctx context.Context) (string, error) {
			rows, err := s.q.RatingDistribution(ctx)
			if err != nil {
				return "", err
			}
			return s.r.RatingDistribution(rows)
		},
		func(ctx context.Context) (string, error) {
			rows, err := s.q.BankRanking(ctx)
			if err != nil {
				return "", err
			}
			return s.r.BankRanking(rows)
		},
		func(ctx context.Context) (string, error) {
			rows, err := s.q.MonthlyTrend(ctx)
			if err != nil {
				return "", err
			}
			return s.r.MonthlyTrend(rows)
		},
	}

	var files []string
	for _, step := range steps {
		path, err := step(ctx)
		if err != nil {
			return files, err
		}
		files = append(files, path)
		log.Info().Str("stage", "visualize").Str("file", path).Msg("chart written")
	}
	observability.ObserveRows("visualize", "kept", len(files))
	return files, nil
}
