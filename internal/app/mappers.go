package app

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"bank_reviews/internal/domain"
)

/********** alias registries (single source of truth) **********/

var reviewAliases = map[string][]string{
	"source_id": {"reviewId", "review_id", "id"},
	"text":      {"content", "text", "review_text", "review", "body", "comment"},
	"rating":    {"score", "rating", "stars", "rating.value"},
	"date":      {"at", "date", "created_at", "updated", "time"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "4,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// dateFlexible: date string as given, or RFC3339 for epoch seconds/millis.
func dateFlexible(m map[string]any, paths ...string) string {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			sec := int64(v)
			if v > 1e12 { // millis
				sec = int64(v / 1000)
			}
			return time.Unix(sec, 0).UTC().Format(time.RFC3339)
		}
	}
	return ""
}

/********** reviews mapper **********/

func mapReviews(bank domain.BankApp, source string, in []map[string]any) []domain.RawReview {
	out := make([]domain.RawReview, 0, len(in))
	for _, r := range in {
		rv := domain.RawReview{
			Bank:   bank.Name,
			AppID:  bank.AppID,
			Text:   firstNonEmptyAlias(r, reviewAliases, "text"),
			Date:   dateFlexible(r, reviewAliases["date"]...),
			Source: source,
		}
		if f := getFloatFlexible(r, reviewAliases["rating"]...); f != nil {
			rv.Rating = int(math.Round(*f))
		}

		// SourceID → prefer explicit; else synthesize stable hash.
		if s := firstNonEmptyAlias(r, reviewAliases, "source_id"); s != "" {
			rv.SourceID = s
		} else {
			sig := strings.Join([]string{bank.Name, rv.Text, rv.Date, strconv.Itoa(rv.Rating)}, "|")
			sum := sha1.Sum([]byte(sig))
			rv.SourceID = hex.EncodeToString(sum[:])
		}

		out = append(out, rv)
	}
	return out
}
