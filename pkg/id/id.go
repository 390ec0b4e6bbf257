// Package id derives stable identifiers for channels and episodes.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Derive hashes the first non-empty candidate into a name based (v5) UUID.
// Returns false if none of the candidates is present.
func Derive(candidates ...string) (uuid.UUID, bool) {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(candidate)), true
	}

	return uuid.Nil, false
}

// Episode derives episode ID from GUID, link or title (in that order)
func Episode(guid, link, title string) (uuid.UUID, bool) {
	return Derive(guid, link, title)
}

// Channel derives channel ID from the feed self link, then the address the feed was fetched from.
// The site link comes last as it is often shared by several feeds (e.g. audio and video editions).
func Channel(feedLink, feedURL, link string) (uuid.UUID, bool) {
	return Derive(feedLink, feedURL, link)
}
