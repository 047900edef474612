package cluster

import (
	"regexp"
	"strings"
)

// leadingArticle matches one leading determiner token. The list covers the
// Italian articles the corpus was produced with plus the English ones.
var leadingArticle = regexp.MustCompile(`^\s*(il|la|lo|i|gli|le|un|uno|una|the|an|a)\s+`)

// nonWord matches characters that are neither word characters nor whitespace.
// \p{L}\p{N} rather than \w so accented letters survive.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Normalize canonicalizes an entity string for comparison: lower-case, strip
// leading articles, drop punctuation, trim. The result is a fixpoint:
// Normalize(Normalize(x)) == Normalize(x). Used only for matching, never
// persisted.
func Normalize(entity string) string {
	s := strings.ToLower(entity)
	s = stripArticles(s)
	s = nonWord.ReplaceAllString(s, "")
	// Removing punctuation can expose another leading article ("'the dog'"),
	// so strip again to keep the function idempotent.
	s = stripArticles(s)
	return strings.TrimSpace(s)
}

func stripArticles(s string) string {
	for {
		stripped := leadingArticle.ReplaceAllString(s, "")
		if stripped == s {
			return s
		}
		s = stripped
	}
}
