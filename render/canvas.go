// Package render - Draws frame classification results onto frames.
package render

import (
	"image"
	"image/color"
)

// Canvas is a drawing surface for one frame.
type Canvas interface {
	// Rectangle strokes r with the given line thickness.
	Rectangle(r image.Rectangle, c color.RGBA, thickness int)
	// Text draws text with its baseline starting at origin. scale is relative to the
	// surface's base font size.
	Text(text string, origin image.Point, scale float64, c color.RGBA, thickness int)
}
