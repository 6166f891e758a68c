package domain

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"

	ThemeUncategorized = "uncategorized"

	DateLayout = "2006-01-02"

	// ThemeSep joins a review's themes into the single stored field.
	ThemeSep = ", "
)

// reviewNamespace seeds the UUIDv5 review ids; changing it re-keys every stored review.
var reviewNamespace = uuid.MustParse("6f1c2c8e-3f0b-5d7a-9a43-2b8f5f0b6a11")

// RawReview is a record exactly as the scraper returned it.
type RawReview struct {
	Bank     string
	AppID    string
	SourceID string // store-side review id, synthesized when the payload has none
	Text     string
	Rating   int
	Date     string
	Source   string
}

// CleanReview is a validated review. Build it with NewCleanReview.
type CleanReview struct {
	ID     string
	Bank   string
	Text   string
	Rating int
	Date   time.Time
	Source string
}

type Sentiment struct {
	Label string
	Score float64
}

// ScoreDecimals is the precision of a stored sentiment score.
const ScoreDecimals = 4

// RoundScore rounds to the stored precision so an annotated score reads back unchanged.
func RoundScore(f float64) float64 {
	p := math.Pow10(ScoreDecimals)
	return math.Round(f*p) / p
}

// NeutralSentiment is the fallback for records the model could not score.
func NeutralSentiment() Sentiment { return Sentiment{Label: SentimentNeutral, Score: 0} }

type AnnotatedReview struct {
	CleanReview
	Sentiment Sentiment
	Themes    []string // primary theme first
}

// PrimaryTheme returns the best-matching theme or ThemeUncategorized.
func (r AnnotatedReview) PrimaryTheme() string {
	if len(r.Themes) == 0 {
		return ThemeUncategorized
	}
	return r.Themes[0]
}

// NewCleanReview validates the fields and derives the stable review id.
func NewCleanReview(bank, text string, rating int, date time.Time, source string) (CleanReview, error) {
	bank = strings.TrimSpace(bank)
	text = strings.TrimSpace(text)
	switch {
	case bank == "":
		return CleanReview{}, &ValidationError{Field: "bank", Reason: ReasonMissingBank}
	case text == "" || !utf8.ValidString(text):
		return CleanReview{}, &ValidationError{Field: "review_text", Reason: ReasonEmptyBody}
	case rating < 1 || rating > 5:
		return CleanReview{}, &ValidationError{Field: "rating", Reason: ReasonRatingOutOfRange, Value: rating}
	case date.IsZero():
		return CleanReview{}, &ValidationError{Field: "date", Reason: ReasonInvalidDate}
	}
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return CleanReview{
		ID:     ReviewID(bank, text, d),
		Bank:   bank,
		Text:   text,
		Rating: rating,
		Date:   d,
		Source: source,
	}, nil
}

// ReviewID is unique per (bank, text, date).
func ReviewID(bank, text string, date time.Time) string {
	key := strings.Join([]string{bank, text, date.UTC().Format(DateLayout)}, "|")
	return uuid.NewSHA1(reviewNamespace, []byte(key)).String()
}

// NormalizeLabel maps model output onto the three known labels.
func NormalizeLabel(l string) string {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "positive", "pos", "label_1":
		return SentimentPositive
	case "negative", "neg", "label_0":
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func JoinThemes(ts []string) string { return strings.Join(ts, ThemeSep) }

func SplitThemes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ThemeSep)
}
