package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nvr-ai/crowdwatch/classifier"
)

// Overlay layout.
const (
	BoxThickness = 2

	LabelOffsetY   = 10
	LabelScale     = 0.5
	LabelThickness = 2

	SummaryScale     = 0.7
	SummaryThickness = 2

	BannerText      = "ANOMALY DETECTED!"
	BannerScale     = 1.0
	BannerThickness = 3
)

var (
	// SummaryOrigin is where the people count is drawn.
	SummaryOrigin = image.Point{X: 10, Y: 30}
	// BannerOrigin is where the anomaly banner is drawn.
	BannerOrigin = image.Point{X: 10, Y: 60}
	// SummaryColor is the people count color.
	SummaryColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer overlays a FrameResult onto a frame.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render draws every annotation box with its optional label, the people count, and the anomaly
// banner when the frame is anomalous. Nothing else is drawn.
func (r *Renderer) Render(canvas Canvas, result classifier.FrameResult) {
	for _, a := range result.Annotations {
		canvas.Rectangle(a.Box, a.Color, BoxThickness)
		if a.HasLabel() {
			origin := image.Point{X: a.Box.Min.X, Y: a.Box.Min.Y - LabelOffsetY}
			canvas.Text(a.Label, origin, LabelScale, a.Color, LabelThickness)
		}
	}

	canvas.Text(SummaryText(result.PersonCount), SummaryOrigin, SummaryScale, SummaryColor, SummaryThickness)

	if result.AnomalyDetected {
		canvas.Text(BannerText, BannerOrigin, BannerScale, classifier.AnomalyColor, BannerThickness)
	}
}

// SummaryText formats the people count line.
func SummaryText(count int) string {
	return fmt.Sprintf("People Count: %d", count)
}
