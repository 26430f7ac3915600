// Package catalog loads the book catalog CSV into an immutable in-memory table.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	// LargeThumbnailSuffix asks the cover host for an 800px wide variant.
	LargeThumbnailSuffix = "&fife=w800"
	// MissingCover replaces LargeThumbnail when a row has no thumbnail.
	MissingCover = "cover not found"
)

// RequiredColumns lists the header names Read expects; order in the file is free.
var RequiredColumns = []string{
	"isbn13", "title", "authors", "description", "thumbnail",
	"simple_categories", "joy", "sadness", "anger", "fear",
}

var (
	ErrMissingColumn = errors.New("missing column")
	ErrDuplicateISBN = errors.New("duplicate isbn13")
)

// Book is one catalog row. Empty Category or Thumbnail means the source cell was missing.
type Book struct {
	ISBN13         int64
	Title          string
	Authors        string
	Description    string
	Category       string
	Thumbnail      string
	LargeThumbnail string
	Joy            float64
	Sadness        float64
	Anger          float64
	Fear           float64
}

// HasCover reports whether the row carries a real cover URL.
func (b Book) HasCover() bool {
	return b.LargeThumbnail != MissingCover
}

// Catalog is read-only after Load and safe for concurrent use.
type Catalog struct {
	books      []Book
	byISBN     map[int64]int
	categories []string
}

// Load opens path and parses it with Read.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a catalog CSV with a header row.
func Read(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	c := &Catalog{byISBN: make(map[int64]int)}
	seenCategory := make(map[string]bool)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog line %d: %w", line, err)
		}
		book, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", line, err)
		}
		if _, dup := c.byISBN[book.ISBN13]; dup {
			return nil, fmt.Errorf("catalog line %d: %w: %d", line, ErrDuplicateISBN, book.ISBN13)
		}
		c.byISBN[book.ISBN13] = len(c.books)
		c.books = append(c.books, book)
		if book.Category != "" && !seenCategory[book.Category] {
			seenCategory[book.Category] = true
			c.categories = append(c.categories, book.Category)
		}
	}
	sort.Strings(c.categories)
	return c, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := cols[name]; !ok {
			cols[name] = i
		}
	}
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func parseRow(record []string, cols map[string]int) (Book, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	isbn, err := parseISBN(field("isbn13"))
	if err != nil {
		return Book{}, err
	}
	b := Book{
		ISBN13:      isbn,
		Title:       field("title"),
		Authors:     field("authors"),
		Description: field("description"),
		Category:    field("simple_categories"),
		Thumbnail:   field("thumbnail"),
	}
	b.LargeThumbnail = largeThumbnail(b.Thumbnail)

	scores := []struct {
		name string
		dst  *float64
	}{
		{"joy", &b.Joy},
		{"sadness", &b.Sadness},
		{"anger", &b.Anger},
		{"fear", &b.Fear},
	}
	for _, s := range scores {
		raw := field(s.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Book{}, fmt.Errorf("invalid %s score %q: %w", s.name, raw, err)
		}
		*s.dst = v
	}
	return b, nil
}

// parseISBN accepts plain integers and the float rendering pandas sometimes writes ("9780002005883.0").
func parseISBN(raw string) (int64, error) {
	raw = strings.TrimSuffix(raw, ".0")
	isbn, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid isbn13 %q: %w", raw, err)
	}
	return isbn, nil
}

func largeThumbnail(thumbnail string) string {
	if thumbnail == "" {
		return MissingCover
	}
	return thumbnail + LargeThumbnailSuffix
}

// Lookup returns the row for isbn.
func (c *Catalog) Lookup(isbn int64) (Book, bool) {
	i, ok := c.byISBN[isbn]
	if !ok {
		return Book{}, false
	}
	return c.books[i], true
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return len(c.books)
}

// Books returns a copy of all rows in file order.
func (c *Catalog) Books() []Book {
	out := make([]Book, len(c.books))
	copy(out, c.books)
	return out
}

// Categories returns the distinct non-empty categories, sorted.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// HasCategory reports whether any row carries category.
func (c *Catalog) HasCategory(category string) bool {
	i := sort.SearchStrings(c.categories, category)
	return i < len(c.categories) && c.categories[i] == category
}
