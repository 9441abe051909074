package markdown

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/garagekb/garagekb/internal/kb"
)

var imageRefRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// Rewriter points markdown references at internal routes before rendering.
// Both rewrites are purely textual and run on the raw markdown.
type Rewriter struct {
	shareRe *regexp.Regexp
}

// NewRewriter compiles the share-link pattern. The pattern's first capture
// group is the identifier looked up against document ids and titles.
func NewRewriter(sharePattern string) (*Rewriter, error) {
	re, err := regexp.Compile(sharePattern)
	if err != nil {
		return nil, fmt.Errorf("compile share pattern: %w", err)
	}
	return &Rewriter{shareRe: re}, nil
}

// RewriteShareLinks replaces external share URLs whose captured identifier
// matches a known document with the internal instruction route. URLs with
// no matching document are left untouched.
func (rw *Rewriter) RewriteShareLinks(content string, docs []kb.Document) string {
	return rw.shareRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := rw.shareRe.FindStringSubmatch(m)
		if len(sub) < 2 {
			return m
		}
		id := sub[1]
		for _, d := range docs {
			if strings.Contains(d.ID, id) || strings.Contains(d.Title, id) {
				return "/instruction/" + d.ID
			}
		}
		return m
	})
}

// RewriteImages points relative image targets at the image route of the
// given document. Targets that already carry a URL scheme stay as they are,
// so the rewrite is idempotent on absolute URLs.
func (rw *Rewriter) RewriteImages(content, docID string) string {
	return imageRefRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := imageRefRe.FindStringSubmatch(m)
		if len(sub) < 3 {
			return m
		}
		alt, target := sub[1], sub[2]
		if hasScheme(target) {
			return m
		}
		return "![" + alt + "](/image/" + docID + "/" + target + ")"
	})
}

func hasScheme(target string) bool {
	u, err := url.Parse(strings.TrimSpace(target))
	return err == nil && u.Scheme != ""
}
