package app_test

import (
	"reflect"
	"testing"
	"time"

	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
)

func annotated(t *testing.T, bank, text, label string) domain.AnnotatedReview {
	t.Helper()
	cr, err := domain.NewCleanReview(bank, text, 3, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), app.SourceGooglePlay)
	if err != nil {
		t.Fatalf("NewCleanReview: %v", err)
	}
	return domain.AnnotatedReview{CleanReview: cr, Sentiment: domain.Sentiment{Label: label, Score: 0.9}}
}

func TestExtract_Uncategorized(t *testing.T) {
	ex := app.NewThemeExtractor(app.DefaultTaxonomy, 0)
	out, rep := ex.Extract([]domain.AnnotatedReview{annotated(t, "CBE", "wow 👍👍", domain.SentimentPositive)})

	if !reflect.DeepEqual(out[0].Themes, []string{domain.ThemeUncategorized}) {
		t.Fatalf("themes = %v", out[0].Themes)
	}
	if rep.Uncategorized != 1 {
		t.Fatalf("uncategorized = %d", rep.Uncategorized)
	}
}

func TestExtract_TiesKeepTaxonomyOrder(t *testing.T) {
	// a single review has no term above min_df, so every match scores zero
	ex := app.NewThemeExtractor(app.DefaultTaxonomy, 0)
	out, _ := ex.Extract([]domain.AnnotatedReview{annotated(t, "BOA", "login transfer crash", domain.SentimentNegative)})

	want := []string{"Login & Access Issues", "Transaction Problems", "App Performance & Bugs"}
	if !reflect.DeepEqual(out[0].Themes, want) {
		t.Fatalf("themes = %v, want %v", out[0].Themes, want)
	}
}

func TestExtract_SalienceRanksThemes(t *testing.T) {
	in := []domain.AnnotatedReview{
		annotated(t, "Dashen", "transfer failed today", domain.SentimentNegative),
		annotated(t, "Dashen", "transfer failed again", domain.SentimentNegative),
		annotated(t, "Dashen", "login transfer", domain.SentimentNegative),
	}
	ex := app.NewThemeExtractor(app.DefaultTaxonomy, 0)
	out, rep := ex.Extract(in)

	want := []string{"Transaction Problems", "Login & Access Issues"}
	if !reflect.DeepEqual(out[2].Themes, want) {
		t.Fatalf("themes = %v, want %v", out[2].Themes, want)
	}
	if out[2].PrimaryTheme() != "Transaction Problems" {
		t.Fatalf("primary = %s", out[2].PrimaryTheme())
	}
	pp := rep.PainPoints["Dashen"]
	if len(pp) != 1 || pp[0].Theme != "Transaction Problems" || pp[0].Count != 3 {
		t.Fatalf("pain points = %+v", pp)
	}
	if len(rep.Keywords["Dashen"]) == 0 || rep.Keywords["Dashen"][0].Term != "transfer" {
		t.Fatalf("keywords = %+v", rep.Keywords["Dashen"])
	}
}

func TestExtract_DeterministicAndPure(t *testing.T) {
	in := []domain.AnnotatedReview{
		annotated(t, "CBE", "app is slow and crashes on login", domain.SentimentNegative),
		annotated(t, "CBE", "slow app, cannot transfer money", domain.SentimentNegative),
		annotated(t, "BOA", "great simple design", domain.SentimentPositive),
		annotated(t, "BOA", "simple design, easy to use", domain.SentimentPositive),
	}
	ex := app.NewThemeExtractor(app.DefaultTaxonomy, 10)
	out1, rep1 := ex.Extract(in)
	out2, rep2 := ex.Extract(in)

	if !reflect.DeepEqual(out1, out2) || !reflect.DeepEqual(rep1, rep2) {
		t.Fatalf("extraction is not deterministic")
	}
	for i := range in {
		if in[i].Themes != nil {
			t.Fatalf("input %d was modified", i)
		}
		if out1[i].Text != in[i].Text || out1[i].Sentiment != in[i].Sentiment {
			t.Fatalf("source fields changed at %d", i)
		}
	}
	if len(rep1.PainPoints["BOA"]) != 0 {
		t.Fatalf("positive reviews are not pain points: %+v", rep1.PainPoints["BOA"])
	}
}
