package app

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/james-bowman/nlp"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"bank_reviews/internal/domain"
)

var nonLetters = regexp.MustCompile(`[^a-z\s]+`)

// themeText lower-cases and keeps letters only, so keywords match on word boundaries.
func themeText(s string) string {
	s = nonLetters.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

type tfidfOptions struct {
	MinN, MaxN int
	MinDF      int
}

var defaultTFIDF = tfidfOptions{MinN: 1, MaxN: 3, MinDF: 2}

// tokens keeps letters-only words of two or more letters that are not English stop words.
func tokens(doc string) []string {
	var out []string
	for _, t := range strings.Fields(stopwords.CleanString(themeText(doc), "en", false)) {
		if len(t) < 2 {
			continue
		}
		out = append(out, t)
	}
	return out
}

func ngrams(toks []string, minN, maxN int) []string {
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(toks); i++ {
			out = append(out, strings.Join(toks[i:i+n], " "))
		}
	}
	return out
}

// ngramTokeniser feeds the count vectoriser word n-grams instead of single words.
type ngramTokeniser struct {
	minN, maxN int
}

func (t ngramTokeniser) ForEachIn(text string, f func(token string)) {
	for _, g := range t.Tokenise(text) {
		f(g)
	}
}

func (t ngramTokeniser) Tokenise(text string) []string {
	return ngrams(tokens(text), t.minN, t.maxN)
}

type nonZeroDoer interface {
	DoNonZero(fn func(i, j int, v float64))
}

func eachNonZero(m mat.Matrix, fn func(i, j int, v float64)) {
	if nz, ok := m.(nonZeroDoer); ok {
		nz.DoNonZero(fn)
		return
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); v != 0 {
				fn(i, j, v)
			}
		}
	}
}

// tfidfSalience returns the mean l2-normalised TF-IDF weight of every term
// that appears in at least MinDF documents. idf is smoothed:
// ln((1+n)/(1+df)) + 1. The transformer supplies tf*ln((1+n)/(1+df)); the
// raw count adds the +1.
func tfidfSalience(docs []string, opts tfidfOptions) map[string]float64 {
	n := len(docs)
	tok := ngramTokeniser{minN: opts.MinN, maxN: opts.MaxN}
	empty := true
	for _, d := range docs {
		if len(tok.Tokenise(d)) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return map[string]float64{}
	}

	vec := &nlp.CountVectoriser{Vocabulary: map[string]int{}, Tokeniser: tok}
	counts, err := vec.FitTransform(docs...)
	if err != nil {
		log.Warn().Str("stage", "themes").Err(err).Msg("count vectoriser failed")
		return map[string]float64{}
	}
	weighted, err := nlp.NewTfidfTransformer().FitTransform(counts)
	if err != nil {
		log.Warn().Str("stage", "themes").Err(err).Msg("tfidf transform failed")
		return map[string]float64{}
	}

	terms := make([]string, len(vec.Vocabulary))
	for term, row := range vec.Vocabulary {
		terms[row] = term
	}
	df := make([]int, len(terms))
	eachNonZero(counts, func(i, _ int, _ float64) { df[i]++ })

	type cell struct {
		term string
		w    float64
	}
	perDoc := make([][]cell, n)
	eachNonZero(counts, func(i, j int, tf float64) {
		if df[i] < opts.MinDF {
			return
		}
		perDoc[j] = append(perDoc[j], cell{term: terms[i], w: weighted.At(i, j) + tf})
	})

	sum := map[string]float64{}
	for _, cells := range perDoc {
		// sorted terms keep float summation order, and so the output, stable
		sort.Slice(cells, func(a, b int) bool { return cells[a].term < cells[b].term })
		var norm float64
		for _, c := range cells {
			norm += c.w * c.w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for _, c := range cells {
			sum[c.term] += c.w / norm
		}
	}

	out := make(map[string]float64, len(sum))
	for g, s := range sum {
		out[g] = s / float64(n)
	}
	return out
}

// topTerms ranks by score, ties by term.
func topTerms(sal map[string]float64, limit int) []domain.TermScore {
	out := make([]domain.TermScore, 0, len(sal))
	for g, s := range sal {
		out = append(out, domain.TermScore{Term: g, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
