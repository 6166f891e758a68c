package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
)

var testBanks = []domain.BankApp{
	{Name: "CBE", AppID: "com.combanketh.mobilebanking"},
	{Name: "BOA", AppID: "com.boa.boaMobileBanking"},
}

func TestPersist_IdempotentAndRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	p := app.NewPersistService(repo, cache)
	ctx := context.Background()

	rs := []domain.AnnotatedReview{
		annotated(t, "CBE", "transfer failed", domain.SentimentNegative),
		annotated(t, "BOA", "nice app", domain.SentimentPositive),
	}
	rs[0].Themes = []string{"Transaction Problems"}
	rs[1].Themes = []string{domain.ThemeUncategorized}

	r1, err := p.Persist(ctx, testBanks, rs)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if r1.Inserted != 2 || r1.Updated != 0 {
		t.Fatalf("first run = %+v", r1)
	}
	// banks.app_name carries the store app id
	if repo.appNames["CBE"] != "com.combanketh.mobilebanking" {
		t.Fatalf("app names = %v", repo.appNames)
	}

	q := app.NewQueryService(repo, repo, nil, time.Minute)
	before, _ := q.PainPoints(ctx)

	r2, err := p.Persist(ctx, testBanks, rs)
	if err != nil {
		t.Fatalf("Persist again: %v", err)
	}
	if r2.Inserted != 0 || r2.Updated != 2 {
		t.Fatalf("second run = %+v", r2)
	}
	if !reflect.DeepEqual(r1.BankIDs, r2.BankIDs) {
		t.Fatalf("bank ids changed: %v vs %v", r1.BankIDs, r2.BankIDs)
	}
	counts, _ := repo.CountRows(ctx)
	if counts.Reviews != 2 || counts.Banks != 2 {
		t.Fatalf("row counts = %+v", counts)
	}
	after, _ := q.PainPoints(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("reports changed after rerun: %+v vs %+v", before, after)
	}

	got, err := q.GetReview(ctx, rs[0].ID)
	if err != nil {
		t.Fatalf("GetReview: %v", err)
	}
	if got.Text != rs[0].Text || got.Rating != rs[0].Rating || !got.Date.Equal(rs[0].Date) ||
		got.SentimentLabel != rs[0].Sentiment.Label || got.BankID != r1.BankIDs["CBE"] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(cache.deleted) == 0 {
		t.Fatalf("expected report cache invalidation")
	}
}

func TestPersist_UnknownBankIsForeignKeyError(t *testing.T) {
	repo := newFakeRepo()
	p := app.NewPersistService(repo, nil)

	rs := []domain.AnnotatedReview{annotated(t, "Dashen", "good", domain.SentimentPositive)}
	_, err := p.Persist(context.Background(), testBanks, rs)

	var fk *domain.ForeignKeyError
	if !errors.As(err, &fk) || fk.Bank != "Dashen" {
		t.Fatalf("expected ForeignKeyError, got %v", err)
	}
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if len(repo.reviews) != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestPersist_RepoFailureIsPersistenceError(t *testing.T) {
	repo := newFakeRepo()
	repo.failErr = errors.New("db down")
	p := app.NewPersistService(repo, nil)

	_, err := p.Persist(context.Background(), testBanks, nil)
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) || perr.Op != "upsert banks" {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
