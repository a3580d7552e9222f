// Package keyword provides a full-text index over case metadata for case lookup.
package keyword

// SearchOptions optional parameters for case search. Nil means use defaults.
type SearchOptions struct {
	// TitleBoost multiplies the score contribution from matches in the case title.
	// Values > 1 make title matches rank above summary matches. Defaults to 3.
	TitleBoost float64
	// IssueBoost multiplies the score contribution from matches in the issue keywords. Defaults to 2.
	IssueBoost float64
	// FuzzyEnabled enables fuzzy matching so "opression" still finds "oppression".
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 1 when FuzzyEnabled is true.
	Fuzziness int
}

// Hit is a single case search result.
type Hit struct {
	Filename string
	Score    float64
}

const (
	defaultTitleBoost = 3.0
	defaultIssueBoost = 2.0
)

func (o *SearchOptions) withDefaults() SearchOptions {
	out := SearchOptions{TitleBoost: defaultTitleBoost, IssueBoost: defaultIssueBoost, Fuzziness: 1}
	if o == nil {
		return out
	}
	if o.TitleBoost > 0 {
		out.TitleBoost = o.TitleBoost
	}
	if o.IssueBoost > 0 {
		out.IssueBoost = o.IssueBoost
	}
	out.FuzzyEnabled = o.FuzzyEnabled
	if o.Fuzziness > 0 {
		out.Fuzziness = o.Fuzziness
	}
	return out
}
