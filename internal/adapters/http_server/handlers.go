package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// reviewView is the public shape of a stored review.
type reviewView struct {
	ID             string   `json:"review_id"`
	Bank           string   `json:"bank"`
	Text           string   `json:"review_text"`
	Rating         int      `json:"rating"`
	Date           string   `json:"review_date"`
	SentimentLabel string   `json:"sentiment_label"`
	SentimentScore float64  `json:"sentiment_score"`
	Themes         []string `json:"themes"`
	Source         string   `json:"source"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/reports", h.listReports)
	s.mux.Get("/v1/reports/{name}", h.getReport)
	s.mux.Get("/v1/reviews/{id}", h.getReview)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeJSON answers 304 when the client already holds this version.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not encode response")
		return
	}
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) listReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string][]string{"reports": app.ReportNames})
}

func (h *Handlers) getReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	out, err := h.Q.Report(r.Context(), name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown report "+name)
		return
	case err != nil:
		log.Error().Err(err).Str("report", name).Msg("report query failed")
		writeProblem(w, http.StatusInternalServerError, "Query Failed", "report could not be computed")
		return
	}
	writeJSON(w, r, map[string]any{"report": name, "rows": out})
}

func (h *Handlers) getReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.Q.GetReview(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "review not found")
		return
	case err != nil:
		log.Error().Err(err).Msg("review query failed")
		writeProblem(w, http.StatusInternalServerError, "Query Failed", "review could not be read")
		return
	}
	writeJSON(w, r, reviewView{
		ID:             rv.ID,
		Bank:           rv.BankName,
		Text:           rv.Text,
		Rating:         rv.Rating,
		Date:           rv.Date.Format(domain.DateLayout),
		SentimentLabel: rv.SentimentLabel,
		SentimentScore: rv.SentimentScore,
		Themes:         rv.Themes,
		Source:         rv.Source,
	})
}
