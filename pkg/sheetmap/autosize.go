package sheetmap

import (
	"math"
	"unicode/utf8"
)

const (
	maxDigitWidth  = 7.0
	maxColumnWidth = 255.0
)

// widthTracker keeps the widest rendered character count per column.
type widthTracker struct {
	chars []int
}

func newWidthTracker(columns int) *widthTracker {
	return &widthTracker{chars: make([]int, columns)}
}

// observe records text rendered in column col. Bold fonts add one character;
// numeric masks add room for separators and the currency sign.
func (w *widthTracker) observe(col int, text string, bold, numeric bool) {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return
	}
	if numeric {
		n += 3 + n/4
	}
	if bold {
		n++
	}
	if n > w.chars[col] {
		w.chars[col] = n
	}
}

func (w *widthTracker) width(col int, fallback float64) float64 {
	if w.chars[col] == 0 {
		return fallback
	}
	return columnWidth(w.chars[col])
}

// columnWidth converts a character count into column width units:
// trunc((chars*maxDigitWidth+5)/maxDigitWidth*256)/256.
func columnWidth(chars int) float64 {
	w := math.Trunc((float64(chars)*maxDigitWidth+5)/maxDigitWidth*256) / 256
	return math.Min(w, maxColumnWidth)
}
