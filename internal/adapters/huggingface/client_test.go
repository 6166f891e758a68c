package huggingface_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bank_reviews/internal/adapters/huggingface"
	"bank_reviews/internal/domain"
)

func TestPredict_PicksTopLabel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/distilbert-sst2") || r.Header.Get("Authorization") != "Bearer hf_x" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var body struct {
			Inputs []string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		var out [][]map[string]any
		for _, in := range body.Inputs {
			if strings.Contains(in, "bad") {
				out = append(out, []map[string]any{{"label": "POSITIVE", "score": 0.1}, {"label": "NEGATIVE", "score": 0.9}})
			} else {
				out = append(out, []map[string]any{{"label": "POSITIVE", "score": 0.97}, {"label": "NEGATIVE", "score": 0.03}})
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer ts.Close()

	cl, err := huggingface.New(ts.URL, "distilbert-sst2", "hf_x", 100)
	if err != nil {
		t.Fatal(err)
	}
	got, err := cl.Predict(context.Background(), []string{"great app", "bad transfer"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got[0].Label != domain.SentimentPositive || got[1].Label != domain.SentimentNegative || got[1].Score != 0.9 {
		t.Fatalf("unexpected sentiments: %+v", got)
	}
}

func TestPredict_LengthMismatchIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[{"label":"POSITIVE","score":0.9}]]`))
	}))
	defer ts.Close()

	cl, _ := huggingface.New(ts.URL, "m", "", 100)
	if _, err := cl.Predict(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
