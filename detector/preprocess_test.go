package detector

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestFillCHW(t *testing.T) {
	size := image.Point{X: 8, Y: 4}
	dst := make([]float32, 3*size.X*size.Y)

	err := FillCHW(uniformImage(32, 16, color.RGBA{R: 255, G: 51, B: 0, A: 255}), dst, size)
	require.NoError(t, err)

	plane := size.X * size.Y
	for i := 0; i < plane; i++ {
		assert.InDelta(t, 1.0, dst[i], 1e-6)
		assert.InDelta(t, 0.2, dst[plane+i], 1e-6)
		assert.InDelta(t, 0.0, dst[2*plane+i], 1e-6)
	}
}

func TestFillCHWOffsetBounds(t *testing.T) {
	size := image.Point{X: 2, Y: 2}
	img := uniformImage(4, 4, color.RGBA{R: 0, G: 0, B: 255, A: 255}).SubImage(image.Rect(2, 2, 4, 4))
	dst := make([]float32, 12)

	require.NoError(t, FillCHW(img, dst, size))
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1}, dst)
}

func TestFillCHWRejectsSmallTensor(t *testing.T) {
	err := FillCHW(uniformImage(4, 4, color.RGBA{}), make([]float32, 10), image.Point{X: 4, Y: 4})
	assert.ErrorContains(t, err, "needs 48")
}
