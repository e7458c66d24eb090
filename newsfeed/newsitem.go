package newsfeed

import (
	"crypto/md5"
	"encoding/hex"
)

// NoSummary is the summary stored when no summary could be extracted.
const NoSummary = "Sin resumen disponible"

// NewsItem is a single article as extracted from the listing, optionally
// enriched from its detail page.
type NewsItem struct {
	Title         string  `json:"title"`
	Summary       string  `json:"summary"`
	Link          string  `json:"link"`
	ImageURL      *string `json:"image_url"`
	Author        *string `json:"author"`
	PublishedDate *string `json:"published_date"`
	ID            string  `json:"news_id"`
}

// NewNewsItem creates an item and derives its ID from title and link. The
// ID never changes afterwards, even if other fields are enriched.
func NewNewsItem(title, summary, link string) NewsItem {
	return NewsItem{
		Title:   title,
		Summary: summary,
		Link:    link,
		ID:      ComputeID(title, link),
	}
}

// ComputeID returns the hex MD5 digest of "title|link". It is the only
// deduplication key: two items with the same title and link are the same
// item regardless of summary or image.
func ComputeID(title, link string) string {
	sum := md5.Sum([]byte(title + "|" + link))
	return hex.EncodeToString(sum[:])
}

// HasImage reports whether the item carries a non-empty image URL.
func (n NewsItem) HasImage() bool {
	return n.ImageURL != nil && *n.ImageURL != ""
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
