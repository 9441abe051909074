package kb

import "time"

// Document is one knowledge-base entry: a folder holding a markdown file and
// optional images. The folder name doubles as the identifier used in routes.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Images     []string  `json:"images"`
	Tags       []string  `json:"tags,omitempty"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Listed reports whether the document appears in listings. Folders without
// readable markdown end up with empty content and stay hidden.
func (d Document) Listed() bool { return d.Content != "" }

// FolderScan is the outcome of scanning a single folder. Err is set for
// folder-level failures; Doc still carries whatever was salvaged so callers
// can report the folder by name.
type FolderScan struct {
	Doc Document
	Err error
}
