package app

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

type PreprocessOptions struct {
	// MinLength drops bodies shorter than this many runes; 0 disables the check.
	MinLength int
}

type QualityReport struct {
	Total           int
	Kept            int
	Duplicates      int
	Dropped         int
	DroppedByReason map[string]int
	PerBank         map[string]int
	RatingHistogram [6]int // index = star rating
	DateMin         time.Time
	DateMax         time.Time
	AvgLength       float64
}

// DropRate is the share of input rows rejected as invalid.
func (r QualityReport) DropRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Dropped) / float64(r.Total)
}

var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// parseDate keeps the parsed offset so the calendar day is the one the
// timestamp was written in.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeText repairs invalid UTF-8, applies NFC and collapses whitespace.
func normalizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Preprocess validates and dedupes raw reviews. Output keeps first-occurrence
// input order, so identical input always yields identical output.
func Preprocess(raw []domain.RawReview, opts PreprocessOptions) ([]domain.CleanReview, QualityReport) {
	defer observability.TimeStage("preprocess")()

	rep := QualityReport{
		Total:           len(raw),
		DroppedByReason: map[string]int{},
		PerBank:         map[string]int{},
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]domain.CleanReview, 0, len(raw))
	var totalLen int

	for i, r := range raw {
		date, _ := parseDate(r.Date)
		cr, err := domain.NewCleanReview(r.Bank, normalizeText(r.Text), r.Rating, date, r.Source)
		if err == nil && opts.MinLength > 0 && utf8.RuneCountInString(cr.Text) < opts.MinLength {
			err = &domain.ValidationError{Field: "review_text", Reason: domain.ReasonTooShort, Value: cr.Text}
		}
		if err != nil {
			var verr *domain.ValidationError
			reason := "unknown"
			if errors.As(err, &verr) {
				reason = verr.Reason
			}
			rep.Dropped++
			rep.DroppedByReason[reason]++
			log.Debug().Str("stage", "preprocess").Int("row", i).Str("bank", r.Bank).Err(err).Msg("dropping row")
			continue
		}
		if _, dup := seen[cr.ID]; dup {
			rep.Duplicates++
			continue
		}
		seen[cr.ID] = struct{}{}
		out = append(out, cr)

		rep.PerBank[cr.Bank]++
		rep.RatingHistogram[cr.Rating]++
		totalLen += utf8.RuneCountInString(cr.Text)
		if rep.DateMin.IsZero() || cr.Date.Before(rep.DateMin) {
			rep.DateMin = cr.Date
		}
		if cr.Date.After(rep.DateMax) {
			rep.DateMax = cr.Date
		}
	}

	rep.Kept = len(out)
	if rep.Kept > 0 {
		rep.AvgLength = float64(totalLen) / float64(rep.Kept)
	}
	observability.ObserveRows("preprocess", "kept", rep.Kept)
	observability.ObserveRows("preprocess", "dropped", rep.Dropped)
	observability.ObserveRows("preprocess", "duplicate", rep.Duplicates)

	log.Info().
		Str("stage", "preprocess").
		Int("total", rep.Total).
		Int("kept", rep.Kept).
		Int("dropped", rep.Dropped).
		Int("duplicates", rep.Duplicates).
		Float64("drop_rate", rep.DropRate()).
		Msg("preprocessing done")
	return out, rep
}
