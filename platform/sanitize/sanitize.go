// Package sanitize strips markup from free-text fields before storage.
// Request descriptions, estimate line items and dispute messages arrive
// from guests and artisans alike and are rendered back to the other party,
// so anything tag-shaped is dropped on the way in.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and decodes the common entities, stripping a
// second time so entity-encoded tags do not survive the decode.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text cleans a user-provided text field for storage.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr applies Text to optional fields.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}
