// Package classifier - Per-frame decision policy turning raw detections into a person count and an
// anomaly flag.
package classifier

import (
	"fmt"
	"image"
	"image/color"
)

// PersonLabel is the class label counted toward the person tally.
const PersonLabel = "person"

var (
	// PersonColor is the box color for qualifying person detections.
	PersonColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	// AnomalyColor is the box, label and banner color for anomalous detections.
	AnomalyColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Detection represents one object reported by the detector for a single frame.
type Detection struct {
	// Label is the resolved class name (e.g. "person", "truck").
	Label string `json:"label"`
	// Confidence is the detector score in [0, 1].
	Confidence float32 `json:"confidence"`
	// Box is the bounding box in frame pixel coordinates.
	Box image.Rectangle `json:"box"`
	// ClassID is the raw class index emitted by the model.
	ClassID int `json:"class_id"`
}

func (d Detection) String() string {
	return fmt.Sprintf("%s (%.2f) %v", d.Label, d.Confidence, d.Box)
}

// AnnotationKind tells the renderer why a box is highlighted.
type AnnotationKind int

const (
	// KindPerson marks a counted person.
	KindPerson AnnotationKind = iota + 1
	// KindAnomaly marks an anomalous object.
	KindAnomaly
)

func (k AnnotationKind) String() string {
	switch k {
	case KindPerson:
		return "person"
	case KindAnomaly:
		return "anomaly"
	default:
		return "unknown"
	}
}

// Annotation is a single box to draw on the frame.
type Annotation struct {
	Box   image.Rectangle
	Kind  AnnotationKind
	Color color.RGBA
	// Label is drawn above the box. Empty means no label.
	Label string
}

// HasLabel reports whether the annotation carries label text.
func (a Annotation) HasLabel() bool {
	return a.Label != ""
}

// FrameResult is the outcome of classifying one frame.
type FrameResult struct {
	PersonCount     int
	AnomalyDetected bool
	Annotations     []Annotation
}

// anomalyLabel formats the text drawn above an anomalous detection.
func anomalyLabel(d Detection) string {
	return fmt.Sprintf("ANOMALY: %s (%.2f)", d.Label, d.Confidence)
}
