package layout

import (
	"strings"
	"unicode/utf8"
)

// WidthEstimator predicts the rendered width of a string in millimetres
type WidthEstimator interface {
	Width(s string, size float64) float64
}

// DefaultWidthFactor approximates the average advance of a proportional
// sans-serif face as a fraction of the font size, in mm per pt.
const DefaultWidthFactor = 0.16

// FixedWidth treats every rune as having the same advance
type FixedWidth struct {
	Factor float64
}

// Width implements WidthEstimator
func (f FixedWidth) Width(s string, size float64) float64 {
	factor := f.Factor
	if factor <= 0 {
		factor = DefaultWidthFactor
	}
	return float64(utf8.RuneCountInString(s)) * size * factor
}

// WrapLines greedily packs whitespace-separated words into lines no wider
// than maxWidth. A word is never split: a word wider than maxWidth on its
// own occupies a line by itself.
func WrapLines(est WidthEstimator, text string, maxWidth, size float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := ""
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		candidate := current + " " + word
		if est.Width(candidate, size) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
