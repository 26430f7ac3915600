// Package gallery turns recommended books into image/caption pairs for display.
package gallery

import (
	"fmt"
	"strings"

	"book-recommender/internal/catalog"
)

// DescriptionWords is how many words of a description a caption keeps.
const DescriptionWords = 30

// Item is one gallery tile.
type Item struct {
	ISBN13   int64  `json:"isbn13"`
	ImageURL string `json:"image_url"`
	HasCover bool   `json:"has_cover"`
	Title    string `json:"-"`
	Caption  string `json:"caption"`
}

// Format converts books to gallery items, keeping their order.
func Format(books []catalog.Book) []Item {
	items := make([]Item, len(books))
	for i, b := range books {
		items[i] = Item{
			ISBN13:   b.ISBN13,
			ImageURL: b.LargeThumbnail,
			HasCover: b.HasCover(),
			Title:    b.Title,
			Caption:  Caption(b),
		}
	}
	return items
}

// Caption renders "<title> by <authors>: <truncated description>". The caption
// starts with the bare title; no row marker or brackets surround it.
func Caption(b catalog.Book) string {
	return fmt.Sprintf("%s by %s: %s", b.Title, FormatAuthors(b.Authors), TruncateDescription(b.Description, DescriptionWords))
}

// TruncateDescription keeps the first n whitespace-delimited words, joined by single
// spaces, and always appends "...".
func TruncateDescription(description string, n int) string {
	words := strings.Fields(description)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ") + "..."
}

// FormatAuthors renders a semicolon-separated author list:
// "A" stays "A", two names become "A and B " (trailing space included)
// and three or more become "A, B, and C".
func FormatAuthors(authors string) string {
	names := strings.Split(authors, ";")
	switch {
	case len(names) == 2:
		return fmt.Sprintf("%s and %s ", names[0], names[1])
	case len(names) > 2:
		return fmt.Sprintf("%s, and %s", strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
	default:
		return authors
	}
}
