package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

type PersistService struct {
	repo  domain.ReviewRepository
	cache domain.Cache // optional; report keys are dropped after a write
}

func NewPersistService(r domain.ReviewRepository, c domain.Cache) *PersistService {
	return &PersistService{repo: r, cache: c}
}

type PersistReport struct {
	BankIDs  map[string]int64
	Inserted int
	Updated  int
}

// Persist upserts the banks and then every review. Rerunning it with the same
// input changes nothing except the updated count.
func (s *PersistService) Persist(ctx context.Context, banks []domain.BankApp, reviews []domain.AnnotatedReview) (PersistReport, error) {
	defer observability.TimeStage("persist")()

	bs := make([]domain.Bank, len(banks))
	for i, b := range banks {
		bs[i] = domain.Bank{Name: b.Name, AppName: b.AppID}
	}
	ids, err := s.repo.UpsertBanks(ctx, bs)
	if err != nil {
		return PersistReport{}, asPersistenceError("upsert banks", err)
	}

	rows := make([]domain.StoredReview, len(reviews))
	for i, r := range reviews {
		id, ok := ids[r.Bank]
		if !ok {
			return PersistReport{BankIDs: ids}, &domain.PersistenceError{
				Op:  "upsert reviews",
				Err: &domain.ForeignKeyError{ReviewID: r.ID, Bank: r.Bank},
			}
		}
		rows[i] = domain.StoredReview{
			ID:             r.ID,
			BankID:         id,
			BankName:       r.Bank,
			Text:           r.Text,
			Rating:         r.Rating,
			Date:           r.Date,
			SentimentLabel: r.Sentiment.Label,
			SentimentScore: r.Sentiment.Score,
			Themes:         r.Themes,
			Source:         r.Source,
		}
	}

	res, err := s.repo.UpsertReviews(ctx, rows)
	if err != nil {
		return PersistReport{BankIDs: ids}, asPersistenceError("upsert reviews", err)
	}
	observability.ObserveRows("persist", "inserted", res.Inserted)
	observability.ObserveRows("persist", "updated", res.Updated)

	if s.cache != nil {
		for _, key := range reportKeys {
			if err := s.cache.Del(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
			}
		}
	}

	log.Info().
		Str("stage", "persist").
		Int("banks", len(ids)).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Msg("reviews persisted")
	return PersistReport{BankIDs: ids, Inserted: res.Inserted, Updated: res.Updated}, nil
}

func asPersistenceError(op string, err error) error {
	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}
