// Package textutil cleans feed text: HTML entity decoding and tag stripping.
package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	htmlTagRegex = regexp.MustCompile(`</?[^>]+(>|$)`)
	entityRegex  = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)
)

// DecodeEntities replaces complete named (&amp;, &lt;, …) and numeric or hex
// character references with their literal characters. Unknown names and
// references missing the trailing ';' are left as-is.
func DecodeEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return entityRegex.ReplaceAllStringFunc(text, decodeEntity)
}

// decodeEntity decodes a single "&...;" reference. UnescapeString also
// accepts known prefixes of longer names ("&notin;" inside "&notanentity;"),
// which leaves part of the name behind. A full reference decodes to at most
// two runes, so anything longer is treated as unknown.
func decodeEntity(ref string) string {
	decoded := html.UnescapeString(ref)
	if decoded == ref || utf8.RuneCountInString(decoded) > 2 {
		return ref
	}
	return decoded
}

// StripHTML decodes entities, replaces every tag with a space, collapses
// whitespace and trims. A nil input yields nil.
func StripHTML(text *string) *string {
	if text == nil {
		return nil
	}
	decoded := DecodeEntities(*text)
	plain := htmlTagRegex.ReplaceAllString(decoded, " ")
	cleaned := strings.Join(strings.Fields(plain), " ")
	return &cleaned
}
