// Package scraper implements feed fetching, parsing and ingestion.
package scraper

import "strings"

var remoteKeywords = []string{
	"remote", "work from home", "home-based", "telecommute", "virtual", "anywhere",
}

// ContainsKeyword returns true if any keyword appears (case-insensitive)
// inside any one of the fields.
func ContainsKeyword(keywords []string, fields ...string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, f := range fields {
		if f == "" {
			continue
		}
		lower := strings.ToLower(f)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// IsRemote reports whether a listing reads as remote work, scanning title,
// description and location for the remote keywords.
func IsRemote(title, description, location string) bool {
	return ContainsKeyword(remoteKeywords, title, description, location)
}
