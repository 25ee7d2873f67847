package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MatCanvas draws directly on a gocv frame.
type MatCanvas struct {
	mat *gocv.Mat
}

// NewMatCanvas wraps mat. Drawing mutates mat in place.
func NewMatCanvas(mat *gocv.Mat) *MatCanvas {
	return &MatCanvas{mat: mat}
}

// Rectangle draws r with gocv.Rectangle.
func (c *MatCanvas) Rectangle(r image.Rectangle, col color.RGBA, thickness int) {
	gocv.Rectangle(c.mat, r, col, thickness)
}

// Text draws text in the Hershey simplex face.
func (c *MatCanvas) Text(text string, origin image.Point, scale float64, col color.RGBA, thickness int) {
	gocv.PutText(c.mat, text, origin, gocv.FontHersheySimplex, scale, col, thickness)
}
