package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

const SourceGooglePlay = "Google Play"

type CollectionService struct {
	source domain.ReviewSource
}

func NewCollectionService(src domain.ReviewSource) *CollectionService {
	return &CollectionService{source: src}
}

type CollectReport struct {
	PerBank map[string]int
	Failed  []*domain.CollectionError
	Total   int
}

// Collect fetches up to perBank reviews for every bank. A failing bank is
// logged and skipped; the stage only fails when no bank produced anything
// or ctx is done.
func (s *CollectionService) Collect(ctx context.Context, banks []domain.BankApp, perBank int) ([]domain.RawReview, CollectReport, error) {
	defer observability.TimeStage("collect")()

	rep := CollectReport{PerBank: make(map[string]int, len(banks))}
	var all []domain.RawReview

	for _, b := range banks {
		if err := ctx.Err(); err != nil {
			return nil, rep, err
		}
		l := log.With().Str("stage", "collect").Str("bank", b.Name).Str("app_id", b.AppID).Logger()

		// app info is optional; reviews are scraped either way
		if title, err := s.source.AppTitle(ctx, b.AppID); err != nil {
			l.Warn().Err(err).Msg("could not fetch app info")
		} else {
			l.Info().Str("title", title).Msg("app info")
		}

		payload, err := s.source.FetchReviews(ctx, b.AppID, perBank)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, rep, err
			}
			cerr := &domain.CollectionError{Bank: b.Name, AppID: b.AppID, Err: err}
			rep.Failed = append(rep.Failed, cerr)
			observability.ObserveRows("collect", "skipped", 1)
			l.Error().Err(err).Msg("scrape failed, skipping bank")
			continue
		}

		revs := mapReviews(b, SourceGooglePlay, payload)
		rep.PerBank[b.Name] = len(revs)
		all = append(all, revs...)
		observability.ObserveRows("collect", "kept", len(revs))
		l.Info().Int("reviews", len(revs)).Int("target", perBank).Msg("collected")
	}

	rep.Total = len(all)
	if rep.Total == 0 && len(rep.Failed) > 0 {
		return nil, rep, fmt.Errorf("no reviews collected: %w", errors.Join(collectionErrs(rep.Failed)...))
	}
	return all, rep, nil
}

func collectionErrs(in []*domain.CollectionError) []error {
	out := make([]error, len(in))
	for i, e := range in {
		out[i] = e
	}
	return out
}
