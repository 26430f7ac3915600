package gallery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-recommender/internal/catalog"
)

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		authors string
		want    string
	}{
		{"Jane Austen", "Jane Austen"},
		{"A;B", "A and B "},
		{"A;B;C", "A, B, and C"},
		{"A;B;C;D", "A, B, C, and D"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.authors, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAuthors(tt.authors))
		})
	}
}

func TestTruncateDescription(t *testing.T) {
	words := make([]string, 50)
	for i := range words {
		words[i] = "w" + string(rune('a'+i%26))
	}
	description := strings.Join(words, "  \n ")

	got := TruncateDescription(description, DescriptionWords)
	assert.Equal(t, strings.Join(words[:30], " ")+"...", got)

	assert.Equal(t, "short text...", TruncateDescription("short   text", DescriptionWords))
	assert.Equal(t, "...", TruncateDescription("", DescriptionWords))
}

func TestFormat(t *testing.T) {
	books := []catalog.Book{
		{
			ISBN13:         9780002261982,
			Title:          "Spider's Web",
			Authors:        "Charles Osborne;Agatha Christie",
			Description:    "A new 'Christie for Christmas'.",
			Thumbnail:      "http://img/1",
			LargeThumbnail: "http://img/1" + catalog.LargeThumbnailSuffix,
		},
		{
			ISBN13:         9780002005883,
			Title:          "Gilead",
			Authors:        "Marilynne Robinson",
			Description:    "A novel.",
			LargeThumbnail: catalog.MissingCover,
		},
	}

	items := Format(books)
	require.Len(t, items, 2)

	assert.Equal(t, "http://img/1&fife=w800", items[0].ImageURL)
	assert.True(t, items[0].HasCover)
	assert.Equal(t, "Spider's Web by Charles Osborne and Agatha Christie : A new 'Christie for Christmas'....", items[0].Caption)

	assert.Equal(t, catalog.MissingCover, items[1].ImageURL)
	assert.False(t, items[1].HasCover)
	assert.Equal(t, "Gilead by Marilynne Robinson: A novel....", items[1].Caption)
	assert.Equal(t, int64(9780002005883), items[1].ISBN13)
}

func TestFormatEmpty(t *testing.T) {
	assert.Empty(t, Format(nil))
}

func TestCaptionTemplate(t *testing.T) {
	b := catalog.Book{Title: "Gilead", Authors: "Marilynne Robinson", Description: "A novel."}
	caption := Caption(b)
	assert.Equal(t, "Gilead by Marilynne Robinson: A novel....", caption)
	assert.True(t, strings.HasPrefix(caption, b.Title+" by "))
	assert.NotContains(t, caption, "[")
}
