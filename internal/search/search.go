// Package search filters and orders the scanned document set. Matching is
// case-insensitive substring containment; no index is built or persisted.
package search

import (
	"html/template"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/garagekb/garagekb/internal/kb"
)

// Search types.
const (
	TypeTitle    = "title"
	TypeContent  = "content"
	TypeAdvanced = "advanced"
)

// Advanced sub-modes.
const (
	ModeAny   = "any"
	ModeAll   = "all"
	ModeExact = "exact"
)

// Sort orders.
const (
	SortRelevance = "relevance"
	SortDateNew   = "date_new"
	SortDateOld   = "date_old"
	SortTitle     = "title"
)

// Query describes one search request. Mode only applies to TypeAdvanced.
type Query struct {
	Text string
	Type string
	Mode string
}

// Result pairs a matched document with an optional preview. Previews are
// safe HTML: source text is escaped first, and the <mark> wrapped around
// the matched substring is the only markup added.
type Result struct {
	Doc     kb.Document
	Preview string
}

// Engine holds the preview settings. The zero radius disables context
// windows around matches.
type Engine struct {
	previewRadius int
}

func NewEngine(previewRadius int) *Engine {
	return &Engine{previewRadius: previewRadius}
}

// Search filters docs by the query. An empty or blank query returns every
// document in its original order, without previews.
func (e *Engine) Search(docs []kb.Document, q Query) []Result {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	results := make([]Result, 0, len(docs))
	if text == "" {
		for _, d := range docs {
			results = append(results, Result{Doc: d})
		}
		return results
	}

	switch q.Type {
	case TypeContent:
		for _, d := range docs {
			if strings.Contains(strings.ToLower(d.Content), text) {
				results = append(results, Result{
					Doc:     d,
					Preview: highlight(snippet(d.Content, text, e.previewRadius), q.Text),
				})
			}
		}
	case TypeAdvanced:
		words := strings.Fields(text)
		for _, d := range docs {
			if matchAdvanced(d, text, words, q.Mode) {
				results = append(results, Result{Doc: d})
			}
		}
	default: // TypeTitle
		for _, d := range docs {
			if strings.Contains(strings.ToLower(d.Title), text) {
				results = append(results, Result{
					Doc:     d,
					Preview: "<strong>Title:</strong> " + template.HTMLEscapeString(d.Title),
				})
			}
		}
	}
	return results
}

// Sort reorders results in place. SortRelevance (and anything unknown)
// keeps the filter order. Sorting is stable.
func (e *Engine) Sort(results []Result, order string) {
	switch order {
	case SortDateNew:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Doc.ModifiedAt.After(results[j].Doc.ModifiedAt)
		})
	case SortDateOld:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Doc.ModifiedAt.Before(results[j].Doc.ModifiedAt)
		})
	case SortTitle:
		col := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(results, func(i, j int) bool {
			return col.CompareString(results[i].Doc.Title, results[j].Doc.Title) < 0
		})
	}
}

// Snippet returns a plain-text context window around the first match, for
// JSON and CLI output. The empty string means no match.
func Snippet(content, query string, radius int) string {
	return snippet(content, strings.ToLower(strings.TrimSpace(query)), radius)
}

func matchAdvanced(d kb.Document, text string, words []string, mode string) bool {
	title := strings.ToLower(d.Title)
	content := strings.ToLower(d.Content)
	switch mode {
	case ModeExact:
		return strings.Contains(content, text) || strings.Contains(title, text)
	case ModeAll:
		// Every word has to land in the same field.
		return containsAll(title, words) || containsAll(content, words)
	default: // ModeAny
		return containsAny(content, words) || containsAny(title, words)
	}
}

func containsAll(field string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(field, w) {
			return false
		}
	}
	return len(words) > 0
}

func containsAny(field string, words []string) bool {
	for _, w := range words {
		if strings.Contains(field, w) {
			return true
		}
	}
	return false
}

// snippet cuts a ±radius rune window around the first occurrence of the
// lower-cased query, wrapped in ellipses.
func snippet(content, loweredQuery string, radius int) string {
	if loweredQuery == "" {
		return ""
	}
	lower := []rune(strings.ToLower(content))
	needle := []rune(loweredQuery)
	pos := runeIndex(lower, needle)
	if pos < 0 {
		return ""
	}
	orig := []rune(content)
	start := pos - radius
	if start < 0 {
		start = 0
	}
	end := pos + len(needle) + radius
	if end > len(orig) {
		end = len(orig)
	}
	return "..." + string(orig[start:end]) + "..."
}

// runeIndex is strings.Index over rune slices.
func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// highlight escapes fragment for HTML output and wraps every occurrence of
// query in <mark>, ignoring case. Matches are located before escaping, so
// the match markers are the only tags in the result.
func highlight(fragment, query string) string {
	query = strings.TrimSpace(query)
	if fragment == "" {
		return fragment
	}
	if query == "" {
		return template.HTMLEscapeString(fragment)
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return template.HTMLEscapeString(fragment)
	}
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(fragment, -1) {
		b.WriteString(template.HTMLEscapeString(fragment[last:m[0]]))
		b.WriteString("<mark>")
		b.WriteString(template.HTMLEscapeString(fragment[m[0]:m[1]]))
		b.WriteString("</mark>")
		last = m[1]
	}
	b.WriteString(template.HTMLEscapeString(fragment[last:]))
	return b.String()
}
