// Package corpus reads the tagged description file into one chunk per line.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
)

// Chunk is one tagged description. Its first whitespace token is the book's isbn13.
type Chunk struct {
	Index      int
	Text       string
	TokenCount int
}

var ErrNoISBN = errors.New("no leading isbn token")

// Load reads path through the langchaingo text loader and splits it on newlines.
func Load(ctx context.Context, path string) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open descriptions: %w", err)
	}
	defer f.Close()

	docs, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load descriptions: %w", err)
	}
	var chunks []Chunk
	for _, d := range docs {
		for _, c := range SplitLines(d.PageContent) {
			c.Index = len(chunks)
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// SplitLines makes every non-blank line its own chunk: no size limit, no overlap.
// Surrounding whitespace is trimmed from each line.
func SplitLines(text string) []Chunk {
	var chunks []Chunk
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Text:       line,
			TokenCount: len(strings.Fields(line)),
		})
	}
	return chunks
}

// ISBN extracts the leading identifier token of a tagged description,
// ignoring surrounding double quotes.
func ISBN(text string) (int64, error) {
	fields := strings.Fields(strings.Trim(text, `"`))
	if len(fields) == 0 {
		return 0, ErrNoISBN
	}
	isbn, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoISBN, fields[0])
	}
	return isbn, nil
}
