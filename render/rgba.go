package render

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/goki/freetype"
	"github.com/goki/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// baseFontSize is the point size matching scale 1.0 of the Hershey simplex face.
const baseFontSize = 22.0

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

func regularFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = freetype.ParseFont(goregular.TTF)
		if fontErr != nil {
			fontErr = errors.Wrap(fontErr, "parsing Go Regular font")
		}
	})
	return goFont, fontErr
}

// RGBACanvas draws on an in-memory image, for headless rendering.
type RGBACanvas struct {
	img  *image.RGBA
	font *truetype.Font
	err  error
}

// NewRGBACanvas wraps img.
//
// Arguments:
//   - img: The image to draw on. Drawing mutates it in place.
//
// Returns:
//   - *RGBACanvas: The canvas.
//   - error: An error if the embedded font cannot be parsed.
func NewRGBACanvas(img *image.RGBA) (*RGBACanvas, error) {
	f, err := regularFont()
	if err != nil {
		return nil, err
	}
	return &RGBACanvas{img: img, font: f}, nil
}

// Image returns the underlying image.
func (c *RGBACanvas) Image() *image.RGBA {
	return c.img
}

// Rectangle strokes r inward from its edges, thickness pixels wide.
func (c *RGBACanvas) Rectangle(r image.Rectangle, col color.RGBA, thickness int) {
	r = r.Canon()
	src := image.NewUniform(col)
	for i := 0; i < thickness; i++ {
		inner := r.Inset(i)
		if inner.Empty() {
			break
		}
		edges := []image.Rectangle{
			image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+1),
			image.Rect(inner.Min.X, inner.Max.Y-1, inner.Max.X, inner.Max.Y),
			image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+1, inner.Max.Y),
			image.Rect(inner.Max.X-1, inner.Min.Y, inner.Max.X, inner.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(c.img, e.Intersect(c.img.Bounds()), src, image.Point{}, draw.Src)
		}
	}
}

// Err returns the first error hit while drawing text.
func (c *RGBACanvas) Err() error {
	return c.err
}

// Text draws text with freetype. Thickness is ignored; glyph weight comes from the font.
// Failures are kept for Err.
func (c *RGBACanvas) Text(text string, origin image.Point, scale float64, col color.RGBA, _ int) {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(c.font)
	ctx.SetFontSize(baseFontSize * scale)
	ctx.SetClip(c.img.Bounds())
	ctx.SetDst(c.img)
	ctx.SetSrc(image.NewUniform(col))

	_, err := ctx.DrawString(text, fixed.Point26_6{
		X: fixed.I(origin.X),
		Y: fixed.I(origin.Y),
	})
	if err != nil && c.err == nil {
		c.err = errors.Wrapf(err, "drawing %q", text)
	}
}
