package evaluation

import (
	"regexp"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	tfidfWord = regexp.MustCompile(`\w\w+`)
)

// rougeTokens lowercases, splits on anything that is not [a-z0-9] and Porter-stems
// tokens longer than three characters.
func rougeTokens(s string) []string {
	fields := strings.Fields(nonAlnum.ReplaceAllString(strings.ToLower(s), " "))
	for i, f := range fields {
		if len(f) > 3 {
			fields[i] = porterstemmer.StemString(f)
		}
	}
	return fields
}

// tfidfTokens returns lowercase tokens of two or more word characters.
func tfidfTokens(s string) []string {
	return tfidfWord.FindAllString(strings.ToLower(s), -1)
}
