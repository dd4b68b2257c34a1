package search

import (
	"strconv"
	"strings"
)

// Args collects positional parameters for one statement.
type Args struct {
	values []any
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

func (a *Args) Values() []any {
	out := make([]any, len(a.values))
	copy(out, a.values)
	return out
}

func (a *Args) Len() int {
	return len(a.values)
}

// Fields names the SQL expressions searched for each document part.
type Fields struct {
	Title       string
	Category    string
	Description string
}

type boundTerm struct {
	word string
	stem string
}

// Bound is a query whose patterns are already registered in an Args.
type Bound struct {
	terms []boundTerm
}

// Bind registers one pattern per token and per stem.
func (q Query) Bind(args *Args) Bound {
	b := Bound{terms: make([]boundTerm, 0, len(q.Terms))}
	for _, t := range q.Terms {
		bt := boundTerm{word: args.Add(ContainsPattern(t.Word))}
		if t.Stem != "" {
			bt.stem = args.Add(ContainsPattern(t.Stem))
		}
		b.terms = append(b.terms, bt)
	}
	return b
}

func (b Bound) Empty() bool {
	return len(b.terms) == 0
}

// Filter returns the membership predicate, or "" for an empty query.
func (b Bound) Filter(f Fields) string {
	if b.Empty() {
		return ""
	}

	all := make([]string, 0, len(b.terms))
	primary := make([]string, 0, len(b.terms))
	for _, t := range b.terms {
		all = append(all, "("+t.match(f.Title, f.Category, f.Description)+")")
		primary = append(primary, t.match(f.Title, f.Category))
	}

	return "(" + strings.Join(all, " AND ") + ") AND (" + strings.Join(primary, " OR ") + ")"
}

// Relevance returns an integer SQL expression, "0" for an empty query.
func (b Bound) Relevance(f Fields) string {
	if b.Empty() {
		return "0"
	}

	parts := make([]string, 0, len(b.terms))
	for _, t := range b.terms {
		parts = append(parts, "CASE WHEN "+t.match(f.Title)+" THEN 3"+
			" WHEN "+t.match(f.Category)+" THEN 2"+
			" WHEN "+t.match(f.Description)+" THEN 1 ELSE 0 END")
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

func (t boundTerm) match(columns ...string) string {
	preds := make([]string, 0, len(columns)*2)
	for _, col := range columns {
		preds = append(preds, col+" ILIKE "+t.word)
		if t.stem != "" {
			preds = append(preds, col+" ILIKE "+t.stem)
		}
	}
	return strings.Join(preds, " OR ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern wraps s for a substring LIKE, escaping wildcards.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
