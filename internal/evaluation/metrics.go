// Package evaluation scores answer quality against references and embedding quality against human similarity judgements.
package evaluation

import (
	"errors"
	"math"
	"sort"
)

// ErrUndefined is returned for correlations of constant or too-short series.
var ErrUndefined = errors.New("correlation undefined")

func fmeasure(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// Rouge1 is the unigram-overlap F-measure of candidate against reference.
func Rouge1(reference, candidate string) float64 {
	ref, cand := rougeTokens(reference), rougeTokens(candidate)
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	counts := make(map[string]int, len(ref))
	for _, t := range ref {
		counts[t]++
	}
	overlap := 0
	for _, t := range cand {
		if counts[t] > 0 {
			counts[t]--
			overlap++
		}
	}
	return fmeasure(float64(overlap)/float64(len(cand)), float64(overlap)/float64(len(ref)))
}

// RougeL is the longest-common-subsequence F-measure of candidate against reference.
func RougeL(reference, candidate string) float64 {
	ref, cand := rougeTokens(reference), rougeTokens(candidate)
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	l := lcs(ref, cand)
	return fmeasure(float64(l)/float64(len(cand)), float64(l)/float64(len(ref)))
}

func lcs(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// TFIDFCosine fits a TF-IDF model on the two texts (smooth idf, L2-normalized rows) and
// returns the cosine similarity of their vectors.
func TFIDFCosine(a, b string) float64 {
	docs := [][]string{tfidfTokens(a), tfidfTokens(b)}
	df := make(map[string]int)
	tfs := make([]map[string]float64, len(docs))
	for i, toks := range docs {
		tfs[i] = make(map[string]float64)
		for _, t := range toks {
			if tfs[i][t] == 0 {
				df[t]++
			}
			tfs[i][t]++
		}
	}
	n := float64(len(docs))
	for _, tf := range tfs {
		var norm float64
		for t, c := range tf {
			w := c * (math.Log((1+n)/(1+float64(df[t]))) + 1)
			tf[t] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		for t := range tf {
			if norm > 0 {
				tf[t] /= norm
			}
		}
	}
	var dot float64
	for t, w := range tfs[0] {
		dot += w * tfs[1][t]
	}
	return dot
}

// Pearson returns the Pearson correlation coefficient of x and y.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, ErrUndefined
	}
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, ErrUndefined
	}
	return sxy / math.Sqrt(sxx*syy), nil
}

// Spearman returns the rank correlation of x and y; tied values get their average rank.
func Spearman(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, ErrUndefined
	}
	return Pearson(ranks(x), ranks(y))
}

func ranks(v []float64) []float64 {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })
	out := make([]float64, len(v))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && v[idx[j+1]] == v[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}
