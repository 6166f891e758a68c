package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"bank_reviews/internal/domain"
)

const (
	ReportBankRanking        = "bank_ranking"
	ReportPainPoints         = "pain_points"
	ReportSentimentByBank    = "sentiment_by_bank"
	ReportRatingDistribution = "rating_distribution"
	ReportRatingVsSentiment  = "rating_vs_sentiment"
	ReportMonthlyTrend       = "monthly_trend"
	ReportOneStarThemes      = "one_star_themes"
	ReportSummary            = "summary"

	oneStarLimit = 10
)

// reportKeys are the cache keys a write invalidates.
var reportKeys = []string{
	"report:" + ReportBankRanking,
	"report:" + ReportPainPoints,
	"report:" + ReportSentimentByBank,
	"report:" + ReportRatingDistribution,
	"report:" + ReportRatingVsSentiment,
	"report:" + ReportMonthlyTrend,
	"report:" + ReportOneStarThemes,
	"report:" + ReportSummary,
}

// ReportNames lists every report in the order the CLI prints them.
var ReportNames = []string{
	ReportSummary,
	ReportBankRanking,
	ReportPainPoints,
	ReportSentimentByBank,
	ReportRatingDistribution,
	ReportRatingVsSentiment,
	ReportMonthlyTrend,
	ReportOneStarThemes,
}

type QueryService struct {
	reports  domain.ReportRepository
	reviews  domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewQueryService wires the read side. c may be nil to disable caching.
func NewQueryService(r domain.ReportRepository, rv domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{reports: r, reviews: rv, cache: c, cacheTTL: ttl}
}

// cached serves key from the cache or runs fetch and stores the result.
// Cache errors never fail a query; an unreadable entry counts as a miss.
func cached[T any](ctx context.Context, s *QueryService, name string, fetch func(context.Context) (T, error)) (T, error) {
	key := "report:" + name
	if s.cache != nil {
		var hit T
		ok, err := s.cache.Get(ctx, key, &hit)
		switch {
		case err != nil:
			log.Warn().Str("report", name).Err(err).Msg("cache read failed, querying store")
		case ok:
			return hit, nil
		}
	}
	out, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, &domain.QueryError{Query: name, Err: err}
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *QueryService) BankRanking(ctx context.Context) ([]domain.BankRank, error) {
	return cached(ctx, s, ReportBankRanking, s.reports.BankRanking)
}

func (s *QueryService) PainPoints(ctx context.Context) ([]domain.ThemeCount, error) {
	return cached(ctx, s, ReportPainPoints, s.reports.PainPoints)
}

func (s *QueryService) SentimentByBank(ctx context.Context) ([]domain.SentimentCount, error) {
	return cached(ctx, s, ReportSentimentByBank, s.reports.SentimentByBank)
}

func (s *QueryService) RatingDistribution(ctx context.Context) ([]domain.RatingCount, error) {
	return cached(ctx, s, ReportRatingDistribution, s.reports.RatingDistribution)
}

func (s *QueryService) RatingVsSentiment(ctx context.Context) ([]domain.RatingSentiment, error) {
	return cached(ctx, s, ReportRatingVsSentiment, s.reports.RatingVsSentiment)
}

func (s *QueryService) MonthlyTrend(ctx context.Context) ([]domain.MonthlyPoint, error) {
	return cached(ctx, s, ReportMonthlyTrend, s.reports.MonthlyTrend)
}

func (s *QueryService) OneStarThemes(ctx context.Context) ([]domain.ThemeCount, error) {
	return cached(ctx, s, ReportOneStarThemes, func(ctx context.Context) ([]domain.ThemeCount, error) {
		return s.reports.OneStarThemes(ctx, oneStarLimit)
	})
}

func (s *QueryService) Summary(ctx context.Context) (domain.Summary, error) {
	return cached(ctx, s, ReportSummary, s.reports.Summary)
}

// Report runs a report by name; unknown names wrap domain.ErrNotFound.
func (s *QueryService) Report(ctx context.Context, name string) (any, error) {
	switch name {
	case ReportBankRanking:
		return s.BankRanking(ctx)
	case ReportPainPoints:
		return s.PainPoints(ctx)
	case ReportSentimentByBank:
		return s.SentimentByBank(ctx)
	case ReportRatingDistribution:
		return s.RatingDistribution(ctx)
	case ReportRatingVsSentiment:
		return s.RatingVsSentiment(ctx)
	case ReportMonthlyTrend:
		return s.MonthlyTrend(ctx)
	case ReportOneStarThemes:
		return s.OneStarThemes(ctx)
	case ReportSummary:
		return s.Summary(ctx)
	}
	return nil, fmt.Errorf("report %q: %w", name, domain.ErrNotFound)
}

// GetReview reads one stored review. Not cached.
func (s *QueryService) GetReview(ctx context.Context, id string) (domain.StoredReview, error) {
	r, err := s.reviews.GetReview(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.StoredReview{}, err
	}
	if err != nil {
		return domain.StoredReview{}, &domain.QueryError{Query: "review", Err: err}
	}
	return r, nil
}
