package dataset_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"bank_reviews/internal/dataset"
	"bank_reviews/internal/domain"
)

func TestRaw_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "bank_reviews_raw.csv")
	in := []domain.RawReview{
		{SourceID: "r1", Text: "fast, \"easy\"\napp", Rating: 5, Date: "2025-05-01", Bank: "CBE", AppID: "com.combanketh.mobilebanking", Source: "Google Play"},
		{SourceID: "r2", Text: "", Rating: 0, Date: "", Bank: "BOA", Source: "Google Play"},
	}
	if err := dataset.WriteRaw(path, in); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	got, err := dataset.ReadRaw(path)
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func TestReadRaw_BadRatingBecomesZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	body := "review_id,review_text,rating,date,bank,app_name,source\nx,ok,five,2025-05-01,CBE,app,Google Play\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := dataset.ReadRaw(path)
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if got[0].Rating != 0 {
		t.Fatalf("rating = %d", got[0].Rating)
	}
}

func TestAnnotated_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.csv")
	cr, err := domain.NewCleanReview("Dashen", "transfer failed", 1, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), "Google Play")
	if err != nil {
		t.Fatal(err)
	}
	in := []domain.AnnotatedReview{
		{CleanReview: cr, Sentiment: domain.Sentiment{Label: domain.SentimentNegative, Score: 0.9731}, Themes: []string{"Transaction Problems", "Customer Support"}},
	}
	if err := dataset.WriteAnnotated(path, in); err != nil {
		t.Fatalf("WriteAnnotated: %v", err)
	}
	got, err := dataset.ReadAnnotated(path)
	if err != nil {
		t.Fatalf("ReadAnnotated: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func TestReadClean_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.csv")
	if err := os.WriteFile(path, []byte("review_text,rating\nok,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := dataset.ReadClean(path)
	if !errors.Is(err, dataset.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReadClean_RejectsTamperedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.csv")
	body := "review_id,review_text,rating,date,bank,source\nnot-the-id,ok,5,2025-05-01,CBE,Google Play\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := dataset.ReadClean(path); err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("expected id mismatch, got %v", err)
	}
}

func TestWriteKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kw.csv")
	kw := map[string][]domain.TermScore{
		"CBE": {{Term: "app", Score: 0.5}, {Term: "slow", Score: 0.25}},
		"BOA": {{Term: "crash", Score: 0.4}},
	}
	if err := dataset.WriteKeywords(path, []string{"CBE", "BOA"}, kw); err != nil {
		t.Fatalf("WriteKeywords: %v", err)
	}
	b, _ := os.ReadFile(path)
	want := "bank,rank,keyword,score\nCBE,1,app,0.500000\nCBE,2,slow,0.250000\nBOA,1,crash,0.400000\n"
	if string(b) != want {
		t.Fatalf("got\n%s\nwant\n%s", b, want)
	}
}
