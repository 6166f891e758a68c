package domain

import (
	"context"
	"time"
)

// ReviewSource is the store-scraping client.
type ReviewSource interface {
	AppTitle(ctx context.Context, appID string) (string, error)
	FetchReviews(ctx context.Context, appID string, count int) ([]map[string]any, error)
}

// SentimentModel returns one Sentiment per input text, in input order.
type SentimentModel interface {
	Predict(ctx context.Context, texts []string) ([]Sentiment, error)
}

type ReviewRepository interface {
	// Write paths
	UpsertBanks(ctx context.Context, banks []Bank) (map[string]int64, error)
	UpsertReviews(ctx context.Context, rs []StoredReview) (UpsertResult, error)

	// Read paths
	GetReview(ctx context.Context, id string) (StoredReview, error)
	CountRows(ctx context.Context) (RowCounts, error)
}

type ReportRepository interface {
	BankRanking(ctx context.Context) ([]BankRank, error)
	PainPoints(ctx context.Context) ([]ThemeCount, error)
	SentimentByBank(ctx context.Context) ([]SentimentCount, error)
	RatingDistribution(ctx context.Context) ([]RatingCount, error)
	RatingVsSentiment(ctx context.Context) ([]RatingSentiment, error)
	MonthlyTrend(ctx context.Context) ([]MonthlyPoint, error)
	OneStarThemes(ctx context.Context, limit int) ([]ThemeCount, error)
	Summary(ctx context.Context) (Summary, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// StoredReview is an annotated review as persisted in the reviews table.
type StoredReview struct {
	ID             string
	BankID         int64
	BankName       string
	Text           string
	Rating         int
	Date           time.Time
	SentimentLabel string
	SentimentScore float64
	Themes         []string
	Source         string
	CreatedAt      time.Time
}

type UpsertResult struct {
	Inserted int
	Updated  int
}

type RowCounts struct {
	Banks   int
	Reviews int
}

// ChartRenderer draws the fixed report charts and returns the written file.
type ChartRenderer interface {
	SentimentByBank(rows []SentimentCount) (string, error)
	PainPoints(rows []ThemeCount) (string, error)
	RatingDistribution(rows []RatingCount) (string, error)
	BankRanking(rows []BankRank) (string, error)
	MonthlyTrend(rows []MonthlyPoint) (string, error)
}
