package layout

import (
	"math"

	"golang.org/x/text/width"
)

const (
	// DefaultFontSize is the label font size in layout units.
	DefaultFontSize = 14.0

	fontCharWidth  = 0.55
	fontLineHeight = 1.3
	labelPadding   = 16.0
)

// LabelBounds estimates the width and height of the box a node label
// occupies when drawn at fontSize. East Asian wide characters count
// double.
func LabelBounds(label string, fontSize float64) (w, h float64) {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	units := 0
	for _, r := range label {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			units += 2
		default:
			units++
		}
	}
	w = math.Round(float64(max(units, 1))*fontSize*fontCharWidth + labelPadding)
	h = math.Round(fontSize * fontLineHeight)
	return w, h
}
