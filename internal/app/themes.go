package app

import (
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

type Theme struct {
	Name     string
	Keywords []string
}

// DefaultTaxonomy is the fixed theme list; its order breaks score ties.
var DefaultTaxonomy = []Theme{
	{Name: "Login & Access Issues", Keywords: []string{
		"login", "log in", "password", "forgot", "account", "access", "verification",
		"authenticate", "biometric", "fingerprint", "face id", "locked", "blocked",
		"security", "pin", "code", "verify", "registered", "registration",
	}},
	{Name: "Transaction Problems", Keywords: []string{
		"transfer", "transaction", "payment", "send money", "failed", "fail",
		"pending", "stuck", "complete", "process", "send", "receive", "money",
		"amount", "balance", "deduct", "charge", "fee", "bill",
	}},
	{Name: "App Performance & Bugs", Keywords: []string{
		"crash", "freeze", "frozen", "slow", "lag", "bug", "error", "not working",
		"close", "stop", "hang", "loading", "response", "speed", "fast", "quick",
		"update", "version", "install", "download", "technical", "problem", "issue",
	}},
	{Name: "User Interface & Experience", Keywords: []string{
		"interface", "ui", "ux", "design", "layout", "navigation", "menu",
		"complicated", "confusing", "hard to use", "complex", "simple", "easy",
		"intuitive", "beautiful", "ugly", "modern", "old", "outdated",
	}},
	{Name: "Customer Support", Keywords: []string{
		"support", "help", "service", "assistance", "contact", "call", "phone",
		"email", "response", "complain", "complaint", "issue", "resolve",
		"customer care", "helpline", "assist",
	}},
	{Name: "Features & Functionality", Keywords: []string{
		"feature", "function", "add", "missing", "should have", "need",
		"improve", "update", "version", "new", "option", "setting",
		"notification", "alert", "reminder", "history", "statement",
	}},
	{Name: "Network & Connectivity", Keywords: []string{
		"network", "internet", "connection", "connect", "online", "offline",
		"wifi", "data", "signal", "server", "maintenance", "down",
	}},
}

type compiledTheme struct {
	name     string
	keywords []string
	patterns []*regexp.Regexp
}

type ThemeExtractor struct {
	themes []compiledTheme
	topN   int
}

type ThemeReport struct {
	Keywords      map[string][]domain.TermScore  // per bank, top terms
	PainPoints    map[string][]domain.ThemeCount // per bank, primary themes of negative reviews
	Uncategorized int
}

// NewThemeExtractor compiles word-boundary patterns for every keyword.
// topN bounds the per-bank keyword ranking (0 = 30).
func NewThemeExtractor(taxonomy []Theme, topN int) *ThemeExtractor {
	if topN <= 0 {
		topN = 30
	}
	e := &ThemeExtractor{topN: topN}
	for _, t := range taxonomy {
		ct := compiledTheme{name: t.Name, keywords: t.Keywords}
		for _, kw := range t.Keywords {
			ct.patterns = append(ct.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(themeText(kw))+`\b`))
		}
		e.themes = append(e.themes, ct)
	}
	return e
}

// Extract ranks terms per bank and tags each review with its matching themes,
// best first. Input reviews are not modified.
func (e *ThemeExtractor) Extract(in []domain.AnnotatedReview) ([]domain.AnnotatedReview, ThemeReport) {
	defer observability.TimeStage("themes")()

	rep := ThemeReport{
		Keywords:   map[string][]domain.TermScore{},
		PainPoints: map[string][]domain.ThemeCount{},
	}

	byBank := map[string][]int{}
	var banks []string
	for i, r := range in {
		if _, ok := byBank[r.Bank]; !ok {
			banks = append(banks, r.Bank)
		}
		byBank[r.Bank] = append(byBank[r.Bank], i)
	}

	out := make([]domain.AnnotatedReview, len(in))
	for _, bank := range banks {
		rows := byBank[bank]
		docs := make([]string, len(rows))
		for j, i := range rows {
			docs[j] = in[i].Text
		}
		sal := tfidfSalience(docs, defaultTFIDF)
		rep.Keywords[bank] = topTerms(sal, e.topN)

		pain := map[string]int{}
		for _, i := range rows {
			r := in[i]
			r.Themes = e.assign(r.Text, sal)
			out[i] = r
			if r.PrimaryTheme() == domain.ThemeUncategorized {
				rep.Uncategorized++
			} else if r.Sentiment.Label == domain.SentimentNegative {
				pain[r.PrimaryTheme()]++
			}
		}
		rep.PainPoints[bank] = e.rankPain(bank, pain)

		log.Info().
			Str("stage", "themes").
			Str("bank", bank).
			Int("reviews", len(rows)).
			Int("terms", len(sal)).
			Msg("themes assigned")
	}
	observability.ObserveRows("themes", "kept", len(out)-rep.Uncategorized)
	observability.ObserveRows("themes", "uncategorized", rep.Uncategorized)
	return out, rep
}

// assign returns every matching theme ordered by keyword salience, ties in
// taxonomy order; no match yields ThemeUncategorized.
func (e *ThemeExtractor) assign(text string, sal map[string]float64) []string {
	t := themeText(text)
	type hit struct {
		pos   int
		score float64
	}
	var hits []hit
	for pos, th := range e.themes {
		matched := false
		var score float64
		for k, re := range th.patterns {
			if re.MatchString(t) {
				matched = true
				score += sal[themeText(th.keywords[k])]
			}
		}
		if matched {
			hits = append(hits, hit{pos: pos, score: score})
		}
	}
	if len(hits) == 0 {
		return []string{domain.ThemeUncategorized}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = e.themes[h.pos].name
	}
	return out
}

func (e *ThemeExtractor) rankPain(bank string, counts map[string]int) []domain.ThemeCount {
	var out []domain.ThemeCount
	for _, th := range e.themes {
		if n := counts[th.name]; n > 0 {
			out = append(out, domain.ThemeCount{Bank: bank, Theme: th.name, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
