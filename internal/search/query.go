// Package search turns free-text catalog queries into parameterized SQL
// predicates and a relevance expression.
//
// Every query token contributes a literal substring pattern and, for tokens
// longer than three characters, a prefix "stem" pattern. A row is a member
// when every token matches title, category or description, and at least one
// token matches title or category.
package search

import (
	"strings"
	"unicode/utf8"
)

const (
	minStemmedLen = 4
	maxStemLen    = 5
)

// Term is one lower-cased query token. Stem is empty when the token is too
// short to stem.
type Term struct {
	Word string
	Stem string
}

type Query struct {
	Terms []Term
}

// Parse lower-cases raw, splits it on whitespace and derives stems.
func Parse(raw string) Query {
	fields := strings.Fields(strings.ToLower(raw))
	terms := make([]Term, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, Term{Word: f, Stem: Stem(f)})
	}
	return Query{Terms: terms}
}

func (q Query) Empty() bool {
	return len(q.Terms) == 0
}

// Stem returns a naive prefix of word used as a secondary substring match.
// Words of three runes or fewer are not stemmed. Longer words keep at most
// five runes and always drop at least the last one, so inflected endings
// ("баня" vs "бани") still match.
func Stem(word string) string {
	n := utf8.RuneCountInString(word)
	if n < minStemmedLen {
		return ""
	}
	keep := n - 1
	if keep > maxStemLen {
		keep = maxStemLen
	}
	runes := []rune(word)
	return string(runes[:keep])
}

// Document is the searchable text of one catalog row.
type Document struct {
	Title       string
	Category    string
	Description string
}

func (t Term) matches(text string) bool {
	text = strings.ToLower(text)
	if strings.Contains(text, t.Word) {
		return true
	}
	return t.Stem != "" && strings.Contains(text, t.Stem)
}

// Matches evaluates the membership rule in memory. It mirrors the SQL built by
// Bound.Filter.
func (q Query) Matches(d Document) bool {
	if q.Empty() {
		return true
	}
	primary := false
	for _, t := range q.Terms {
		inTitle := t.matches(d.Title)
		inCategory := t.matches(d.Category)
		if !inTitle && !inCategory && !t.matches(d.Description) {
			return false
		}
		if inTitle || inCategory {
			primary = true
		}
	}
	return primary
}

// Score evaluates the relevance expression in memory: per token 3 for a title
// match, else 2 for category, else 1 for description.
func (q Query) Score(d Document) int {
	score := 0
	for _, t := range q.Terms {
		score += t.weight(d)
	}
	return score
}

func (t Term) weight(d Document) int {
	switch {
	case t.matches(d.Title):
		return 3
	case t.matches(d.Category):
		return 2
	case t.matches(d.Description):
		return 1
	}
	return 0
}
