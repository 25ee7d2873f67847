package classifier

import "github.com/chewxy/math32"

// Classifier binds a confidence threshold and an anomalous class set.
//
// It holds no per-frame state: every call to Classify returns a fresh FrameResult.
type Classifier struct {
	threshold float32
	anomalies ClassSet
}

// New creates a classifier.
//
// Arguments:
//   - threshold: Exclusive lower bound a detection confidence must exceed.
//   - anomalyClasses: Labels that raise the anomaly flag.
//
// Returns:
//   - *Classifier: The configured classifier.
//
// @example
// c := classifier.New(0.5, "car", "truck", "bus")
// result := c.Classify(detections)
func New(threshold float32, anomalyClasses ...string) *Classifier {
	return &Classifier{
		threshold: threshold,
		anomalies: NewClassSet(anomalyClasses...),
	}
}

// Threshold returns the configured confidence threshold.
func (c *Classifier) Threshold() float32 {
	return c.threshold
}

// AnomalyClasses returns the configured anomalous class set.
func (c *Classifier) AnomalyClasses() ClassSet {
	return c.anomalies
}

// Classify applies the configured policy to one frame's detections.
func (c *Classifier) Classify(detections []Detection) FrameResult {
	return Classify(detections, c.threshold, c.anomalies)
}

// Classify partitions one frame's detections into counted persons and anomalous objects.
//
// A detection qualifies only when its confidence is strictly greater than threshold; a confidence
// equal to the threshold, or one that is NaN or infinite, never qualifies. Annotations follow the
// order of the input slice.
//
// Arguments:
//   - detections: Raw detections for a single frame.
//   - threshold: Exclusive confidence threshold.
//   - anomalyClasses: Labels that raise the anomaly flag.
//
// Returns:
//   - FrameResult: Person count, anomaly flag and the boxes to highlight.
func Classify(detections []Detection, threshold float32, anomalyClasses ClassSet) FrameResult {
	result := FrameResult{
		Annotations: make([]Annotation, 0, len(detections)),
	}

	for _, d := range detections {
		if !qualifies(d.Confidence, threshold) {
			continue
		}

		if d.Label == PersonLabel {
			result.PersonCount++
			result.Annotations = append(result.Annotations, Annotation{
				Box:   d.Box,
				Kind:  KindPerson,
				Color: PersonColor,
			})
		}

		if anomalyClasses.Contains(d.Label) {
			result.AnomalyDetected = true
			result.Annotations = append(result.Annotations, Annotation{
				Box:   d.Box,
				Kind:  KindAnomaly,
				Color: AnomalyColor,
				Label: anomalyLabel(d),
			})
		}
	}

	return result
}

func qualifies(confidence, threshold float32) bool {
	if math32.IsNaN(confidence) || math32.IsInf(confidence, 0) {
		return false
	}
	return confidence > threshold
}
