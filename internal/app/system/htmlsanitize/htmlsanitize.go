// Package htmlsanitize cleans user-supplied text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps a safe subset of HTML and removes scripts, event handlers
// and javascript: URLs. Plain text passes through unchanged apart from
// HTML escaping of stray markup characters.
func Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// StripTags removes every tag and returns the remaining text unescaped, for
// fields stored and served as plain text.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strict.Sanitize(s))
}
