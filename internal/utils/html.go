package utils

import (
	"strings"

	"golang.org/x/net/html"
)

// StripTags returns the text content of an HTML fragment with all tags
// removed. Broken markup is tolerated: the tokenizer emits whatever text it
// can recognize.
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
