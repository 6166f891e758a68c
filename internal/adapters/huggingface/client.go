// Package huggingface calls a text-classification model on the Hugging Face
// Inference API.
package huggingface

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bank_reviews/internal/adapters/httpclient"
	"bank_reviews/internal/domain"
)

type Client struct {
	endpoint string
	http     *httpclient.Client
}

func New(base, model, token string, rps int) (*Client, error) {
	if base == "" || model == "" {
		return nil, fmt.Errorf("model base URL and name are required")
	}
	hc := httpclient.New("huggingface", rps, 60*time.Second)
	if token != "" {
		hc.SetHeader("Authorization", "Bearer "+token)
	}
	return &Client{
		endpoint: strings.TrimRight(base, "/") + "/" + url.PathEscape(model),
		http:     hc,
	}, nil
}

type request struct {
	Inputs     []string       `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Predict returns the top label for each text, in input order.
func (c *Client) Predict(ctx context.Context, texts []string) ([]domain.Sentiment, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := request{
		Inputs:     texts,
		Parameters: map[string]any{"truncation": true},
		Options:    map[string]any{"wait_for_model": true},
	}
	var resp [][]labelScore
	if err := c.http.PostJSON(ctx, "classify", c.endpoint, req, &resp); err != nil {
		return nil, err
	}
	if len(resp) != len(texts) {
		return nil, fmt.Errorf("model returned %d results for %d inputs", len(resp), len(texts))
	}
	out := make([]domain.Sentiment, len(resp))
	for i, scores := range resp {
		if len(scores) == 0 {
			return nil, fmt.Errorf("model returned no labels for input %d", i)
		}
		best := scores[0]
		for _, s := range scores[1:] {
			if s.Score > best.Score {
				best = s
			}
		}
		out[i] = domain.Sentiment{Label: domain.NormalizeLabel(best.Label), Score: best.Score}
	}
	return out, nil
}
