package kb

import (
	"path/filepath"
	"strings"
)

// isMarkdown reports whether filename looks like a markdown document.
func isMarkdown(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".markdown")
}

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// isImage reports whether filename carries a supported image extension.
func isImage(filename string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// normalizeContent normalizes line endings and trims excessive blank lines.
func normalizeContent(content []byte) string {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	// Collapse >2 consecutive newlines to exactly two
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}
