package web

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/garagekb/garagekb/internal/kb"
	"github.com/garagekb/garagekb/internal/search"
)

const (
	apiSearchMinQuery = 2
	apiSearchLimit    = 10
	apiSnippetRadius  = 50
)

type apiSearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
}

type apiInstruction struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ImageCount int    `json:"image_count"`
	Modified   int64  `json:"modified"`
}

// handleIndex renders the listing, filtered and ordered by the query
// parameters. Without a query the full set comes back in scan order.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	docs := s.store.Documents(c.Context())

	q := strings.TrimSpace(c.Query("q"))
	searchType := c.Query("search_type", search.TypeTitle)
	searchMode := c.Query("search_mode", search.ModeAny)
	sortOrder := c.Query("sort", search.SortRelevance)

	results := s.engine.Search(docs, search.Query{Text: q, Type: searchType, Mode: searchMode})
	s.engine.Sort(results, sortOrder)

	return c.Render("index", fiber.Map{
		"Service":    ServiceName,
		"Results":    results,
		"Query":      q,
		"SearchType": searchType,
		"SearchMode": searchMode,
		"Sort":       sortOrder,
		"Total":      len(docs),
	})
}

// handleInstruction renders one document with rewritten links, a table of
// contents and the documents it references.
func (s *Server) handleInstruction(c *fiber.Ctx) error {
	id := pathParam(c, "id")
	docs := s.store.Documents(c.Context())

	var doc *kb.Document
	for i := range docs {
		if docs[i].ID == id {
			doc = &docs[i]
			break
		}
	}
	if doc == nil {
		s.logger.Warn("instruction not found", zap.String("id", id), zap.String("request_id", requestID(c)))
		return c.Status(fiber.StatusNotFound).Render("404", fiber.Map{"Service": ServiceName, "RequestedID": id})
	}

	content := s.rewriter.RewriteShareLinks(doc.Content, docs)
	content = s.rewriter.RewriteImages(content, doc.ID)
	rendered := s.renderer.Render(content)

	return c.Render("instruction", fiber.Map{
		"Service": ServiceName,
		"Doc":     doc,
		"HTML":    rendered.HTML,
		"TOC":     rendered.TOC,
		"Related": relatedDocs(*doc, docs),
		"Total":   len(docs),
	})
}

// handleImage serves raw image bytes from a document folder.
func (s *Server) handleImage(c *fiber.Ctx) error {
	id := pathParam(c, "id")
	filename := pathParam(c, "filename")
	path, err := s.store.ImagePath(id, filename)
	if err != nil {
		return fiber.ErrNotFound
	}
	return c.SendFile(path)
}

// handleAPISearch answers autocomplete-style queries with up to ten plain
// previews. Queries shorter than two runes return an empty result set.
func (s *Server) handleAPISearch(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	searchType := c.Query("type", search.TypeTitle)
	if searchType != search.TypeTitle {
		searchType = search.TypeContent
	}

	out := make([]apiSearchResult, 0, apiSearchLimit)
	if utf8.RuneCountInString(q) < apiSearchMinQuery {
		return c.JSON(fiber.Map{"results": out})
	}

	docs := s.store.Documents(c.Context())
	results := s.engine.Search(docs, search.Query{Text: q, Type: searchType})
	if len(results) > apiSearchLimit {
		results = results[:apiSearchLimit]
	}
	for _, r := range results {
		preview := "Found in title: " + r.Doc.Title
		if searchType == search.TypeContent {
			preview = search.Snippet(r.Doc.Content, q, apiSnippetRadius)
		}
		out = append(out, apiSearchResult{ID: r.Doc.ID, Title: r.Doc.Title, Preview: preview})
	}
	return c.JSON(fiber.Map{"results": out})
}

// handleAPIInstructions lists the document set with image counts and unix
// modification times.
func (s *Server) handleAPIInstructions(c *fiber.Ctx) error {
	docs := s.store.Documents(c.Context())
	out := make([]apiInstruction, 0, len(docs))
	for _, d := range docs {
		out = append(out, apiInstruction{
			ID:         d.ID,
			Title:      d.Title,
			ImageCount: len(d.Images),
			Modified:   d.ModifiedAt.Unix(),
		})
	}
	return c.JSON(fiber.Map{"count": len(docs), "instructions": out})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	docs := s.store.Documents(c.Context())
	return c.JSON(fiber.Map{
		"status":            "healthy",
		"service":           ServiceName,
		"instruction_count": len(docs),
		"search_types":      []string{search.TypeTitle, search.TypeContent, search.TypeAdvanced},
	})
}

// relatedDocs lists the documents referenced by id or title from doc's
// content, in scan order.
func relatedDocs(doc kb.Document, docs []kb.Document) []kb.Document {
	var related []kb.Document
	for _, other := range docs {
		if other.ID == doc.ID {
			continue
		}
		if strings.Contains(doc.Content, other.ID) || strings.Contains(doc.Content, other.Title) {
			related = append(related, other)
		}
	}
	return related
}

// pathParam decodes a route parameter; fasthttp hands them over escaped.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
