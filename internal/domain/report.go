package domain

// Read models returned by the report queries.

type BankRank struct {
	Bank               string  `json:"bank"`
	TotalReviews       int     `json:"total_reviews"`
	AvgRating          float64 `json:"avg_rating"`
	PositivePercentage float64 `json:"positive_percentage"`
	AvgSentimentScore  float64 `json:"avg_sentiment_score"`
}

type ThemeCount struct {
	Bank  string `json:"bank"`
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

type SentimentCount struct {
	Bank  string `json:"bank"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type RatingCount struct {
	Bank   string `json:"bank"`
	Rating int    `json:"rating"`
	Count  int    `json:"count"`
}

type RatingSentiment struct {
	Rating        int     `json:"rating"`
	Label         string  `json:"label"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

type MonthlyPoint struct {
	Bank               string  `json:"bank"`
	Month              string  `json:"month"` // YYYY-MM
	PositivePercentage float64 `json:"positive_percentage"`
	ReviewCount        int     `json:"review_count"`
}

type Summary struct {
	TotalReviews   int    `json:"total_reviews"`
	Earliest       string `json:"earliest"`
	Latest         string `json:"latest"`
	DaysWithReview int    `json:"days_with_reviews"`
}

// TermScore is one ranked keyword of a bank's reviews.
type TermScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}
