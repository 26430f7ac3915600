package recommend

import (
	"errors"
	"fmt"

	"book-recommender/internal/catalog"
)

var (
	ErrEmptyQuery      = errors.New("query text is empty")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownTone     = errors.New("unknown tone")
)

// Category is a catalog category label or CategoryAll.
type Category string

// CategoryAll disables category filtering.
const CategoryAll Category = "All"

// Tone selects the emotion score used to re-rank results.
type Tone string

const (
	ToneAll     Tone = "All"
	ToneHappy   Tone = "Happy"
	ToneSad     Tone = "Sad"
	ToneAngry   Tone = "Angry"
	ToneFearful Tone = "Fearful"
)

// Tones lists the dropdown options in display order.
var Tones = []Tone{ToneAll, ToneHappy, ToneSad, ToneAngry, ToneFearful}

// ParseTone maps a dropdown value to a Tone. Empty means ToneAll.
func ParseTone(s string) (Tone, error) {
	if s == "" {
		return ToneAll, nil
	}
	for _, t := range Tones {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTone, s)
}

// score returns the emotion score a tone sorts by; ok is false for ToneAll and unknown tones.
func (t Tone) score(b catalog.Book) (v float64, ok bool) {
	switch t {
	case ToneHappy:
		return b.Joy, true
	case ToneSad:
		return b.Sadness, true
	case ToneAngry:
		return b.Anger, true
	case ToneFearful:
		return b.Fear, true
	default:
		return 0, false
	}
}

func (t Tone) ranks() bool {
	_, ok := t.score(catalog.Book{})
	return ok
}
