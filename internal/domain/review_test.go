package domain_test

import (
	"errors"
	"testing"
	"time"

	"bank_reviews/internal/domain"
)

func TestNewCleanReview_Validation(t *testing.T) {
	d := time.Date(2025, 5, 1, 13, 45, 0, 0, time.UTC)
	cases := []struct {
		name   string
		bank   string
		text   string
		rating int
		date   time.Time
		reason string
	}{
		{"missing bank", "", "ok", 3, d, domain.ReasonMissingBank},
		{"empty body", "CBE", "  ", 3, d, domain.ReasonEmptyBody},
		{"invalid utf8", "CBE", "\xff\xfe", 3, d, domain.ReasonEmptyBody},
		{"rating zero", "CBE", "ok", 0, d, domain.ReasonRatingOutOfRange},
		{"rating six", "CBE", "ok", 6, d, domain.ReasonRatingOutOfRange},
		{"zero date", "CBE", "ok", 3, time.Time{}, domain.ReasonInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewCleanReview(tc.bank, tc.text, tc.rating, tc.date, "Google Play")
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Reason != tc.reason {
				t.Fatalf("expected %s, got %v", tc.reason, err)
			}
		})
	}
}

func TestNewCleanReview_StableID(t *testing.T) {
	a, err := domain.NewCleanReview("CBE", "great app", 5, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC), "Google Play")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	b, _ := domain.NewCleanReview("CBE", " great app ", 4, time.Date(2025, 5, 1, 22, 0, 0, 0, time.UTC), "Google Play")
	c, _ := domain.NewCleanReview("BOA", "great app", 5, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC), "Google Play")

	if a.ID != b.ID {
		t.Fatalf("same bank/text/day must share an id")
	}
	if a.ID == c.ID {
		t.Fatalf("different banks must not share an id")
	}
	if a.Date.Hour() != 0 || a.Date.Location() != time.UTC {
		t.Fatalf("date not truncated to UTC day: %v", a.Date)
	}
}

func TestNormalizeLabel(t *testing.T) {
	for in, want := range map[string]string{
		"POSITIVE": domain.SentimentPositive,
		"negative": domain.SentimentNegative,
		"LABEL_1":  domain.SentimentPositive,
		"mixed":    domain.SentimentNeutral,
		"":         domain.SentimentNeutral,
	} {
		if got := domain.NormalizeLabel(in); got != want {
			t.Fatalf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrimaryTheme(t *testing.T) {
	if got := (domain.AnnotatedReview{}).PrimaryTheme(); got != domain.ThemeUncategorized {
		t.Fatalf("empty themes = %q", got)
	}
	r := domain.AnnotatedReview{Themes: []string{"Customer Support", "Transaction Problems"}}
	if r.PrimaryTheme() != "Customer Support" {
		t.Fatalf("primary = %q", r.PrimaryTheme())
	}
}

func TestSplitThemes(t *testing.T) {
	if got := domain.SplitThemes(" "); got != nil {
		t.Fatalf("got %v", got)
	}
	got := domain.SplitThemes(domain.JoinThemes([]string{"Customer Support", "User Interface & Experience"}))
	if len(got) != 2 || got[1] != "User Interface & Experience" {
		t.Fatalf("got %v", got)
	}
}

func TestRoundScore(t *testing.T) {
	cases := map[float64]float64{0.99987654: 0.9999, 0.12344: 0.1234, 0.5: 0.5, 0: 0, 1: 1}
	for in, want := range cases {
		if got := domain.RoundScore(in); got != want {
			t.Errorf("RoundScore(%v) = %v, want %v", in, got, want)
		}
	}
}
