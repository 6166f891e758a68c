package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bank_reviews/internal/dataset"
	"bank_reviews/internal/domain"
	"bank_reviews/internal/shared"
)

func TestRootCmd_RegistersStages(t *testing.T) {
	want := []string{"collect", "preprocess", "sentiment", "themes", "migrate", "persist", "report", "visualize", "run"}
	for _, name := range want {
		cmd, _, err := newRootCmd().Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("command %s not registered (%v)", name, err)
		}
	}
}

func TestPathFlag(t *testing.T) {
	if pathFlag("", "def") != "def" || pathFlag("x", "def") != "x" {
		t.Fatalf("pathFlag fallback broken")
	}
}

func TestPreprocessThenThemes(t *testing.T) {
	dir := t.TempDir()
	cfg := shared.Config{
		Banks: shared.DefaultBanks(),
		Paths: shared.Paths{Keywords: filepath.Join(dir, "theme_keywords.csv")},
	}
	raw := filepath.Join(dir, "raw.csv")
	clean := filepath.Join(dir, "clean.csv")
	if err := dataset.WriteRaw(raw, []domain.RawReview{
		{Bank: "CBE", Text: "transfer failed", Rating: 1, Date: "2025-05-01", Source: "Google Play"},
		{Bank: "CBE", Text: "great", Rating: 7, Date: "2025-05-01", Source: "Google Play"},
		{Bank: "CBE", Text: "", Rating: 3, Date: "2025-05-01", Source: "Google Play"},
	}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := preprocess(&out, cfg, raw, clean); err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if !strings.Contains(out.String(), "1 kept, 2 dropped") {
		t.Fatalf("unexpected summary: %s", out.String())
	}

	// the themes stage reads sentiment output; fake it from the cleaned rows
	cr, err := dataset.ReadClean(clean)
	if err != nil {
		t.Fatal(err)
	}
	sent := filepath.Join(dir, "sentiment.csv")
	if err := dataset.WriteAnnotated(sent, []domain.AnnotatedReview{
		{CleanReview: cr[0], Sentiment: domain.Sentiment{Label: domain.SentimentNegative, Score: 0.99}},
	}); err != nil {
		t.Fatal(err)
	}
	themed := filepath.Join(dir, "themed.csv")
	out.Reset()
	if err := themes(&out, cfg, sent, themed); err != nil {
		t.Fatalf("themes: %v", err)
	}
	got, err := dataset.ReadAnnotated(themed)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].PrimaryTheme() != "Transaction Problems" {
		t.Fatalf("themes = %v", got[0].Themes)
	}
}

func TestPreprocessCmd_LogsToStderrAndReadsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("BANKS_FILE", "")
	t.Setenv("PREPROCESS_MIN_LENGTH", "5")

	raw := filepath.Join(dir, "raw.csv")
	clean := filepath.Join(dir, "clean.csv")
	if err := dataset.WriteRaw(raw, []domain.RawReview{
		{Bank: "CBE", Text: "transfer failed", Rating: 1, Date: "2025-05-01", Source: "Google Play"},
		{Bank: "CBE", Text: "ok", Rating: 4, Date: "2025-05-01", Source: "Google Play"},
	}); err != nil {
		t.Fatal(err)
	}

	defer func() { log.Logger = zerolog.Nop() }()

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"preprocess", "--in", raw, "--out", clean})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("preprocess: %v", err)
	}

	// PREPROCESS_MIN_LENGTH reached the stage through the loaded config
	if !strings.Contains(stdout.String(), "1 kept, 1 dropped") {
		t.Fatalf("unexpected summary: %q", stdout.String())
	}
	if strings.Contains(stdout.String(), `"level"`) {
		t.Fatalf("log lines leaked into stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "preprocessing done") {
		t.Fatalf("expected stage log on stderr, got %q", stderr.String())
	}
}
