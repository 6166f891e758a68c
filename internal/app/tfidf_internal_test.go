package app

import (
	"math"
	"testing"
)

func TestThemeText(t *testing.T) {
	got := themeText("Can't LOGIN!! 2 times\n  since   update")
	if got != "can t login times since update" {
		t.Fatalf("themeText = %q", got)
	}
}

func TestTokens_DropsStopWordsAndSingleLetters(t *testing.T) {
	got := tokens("The app is slow and it crashes on my login x")
	want := []string{"app", "slow", "crashes", "login"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", got, want)
		}
	}
}

func TestTFIDF_MinDFAndNormalisation(t *testing.T) {
	docs := []string{"transfer money", "transfer money", "crash"}
	sal := tfidfSalience(docs, defaultTFIDF)

	if _, ok := sal["crash"]; ok {
		t.Fatalf("term in one document must be dropped by min_df")
	}
	// each of the 3 surviving terms weighs 1/sqrt(3) in docs 0 and 1, nothing in doc 2
	want := 2 * (1 / math.Sqrt(3)) / 3
	for _, term := range []string{"transfer", "money", "transfer money"} {
		if math.Abs(sal[term]-want) > 1e-9 {
			t.Fatalf("salience[%q] = %v, want %v", term, sal[term], want)
		}
	}
}

func TestTFIDF_EmptyInput(t *testing.T) {
	if sal := tfidfSalience(nil, defaultTFIDF); len(sal) != 0 {
		t.Fatalf("expected no terms, got %v", sal)
	}
	if sal := tfidfSalience([]string{"the", "!!"}, defaultTFIDF); len(sal) != 0 {
		t.Fatalf("expected no terms for stop words only, got %v", sal)
	}
}

func TestTFIDF_TermInEveryDocKeepsWeight(t *testing.T) {
	// with smoothing a term present everywhere still counts
	sal := tfidfSalience([]string{"transfer", "transfer"}, defaultTFIDF)
	if math.Abs(sal["transfer"]-1) > 1e-9 {
		t.Fatalf("salience = %v, want 1", sal)
	}
}

func TestTFIDF_RarerTermWeighsMore(t *testing.T) {
	docs := []string{"transfer failed", "transfer failed", "transfer", "transfer"}
	sal := tfidfSalience(docs, defaultTFIDF)
	// per document, failed outweighs transfer because its idf is higher
	single := sal["transfer"] - 2*(1.0/4)
	if sal["failed"] <= 0 || single <= 0 || sal["failed"] <= single {
		t.Fatalf("salience = %v", sal)
	}
}

func TestNgramTokeniser(t *testing.T) {
	var got []string
	ngramTokeniser{minN: 1, maxN: 3}.ForEachIn("transfer money fast", func(tok string) { got = append(got, tok) })
	want := []string{"transfer", "money", "fast", "transfer money", "money fast", "transfer money fast"}
	if len(got) != len(want) {
		t.Fatalf("grams = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("grams = %v, want %v", got, want)
		}
	}
}

func TestTopTerms_TiesByTerm(t *testing.T) {
	sal := map[string]float64{"slow": 0.2, "app": 0.5, "bug": 0.2, "fee": 0.1}
	got := topTerms(sal, 3)
	if len(got) != 3 || got[0].Term != "app" || got[1].Term != "bug" || got[2].Term != "slow" {
		t.Fatalf("topTerms = %+v", got)
	}
}
