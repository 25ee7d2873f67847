package classifier

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	box1 = image.Rect(10, 20, 110, 220)
	box2 = image.Rect(300, 40, 500, 160)
	box3 = image.Rect(50, 50, 90, 140)
)

func vehicles() ClassSet {
	return NewClassSet("car", "truck", "bus")
}

func TestClassifyScenarios(t *testing.T) {
	tests := []struct {
		name            string
		detections      []Detection
		threshold       float32
		expectedPersons int
		expectedAnomaly bool
		expectedLen     int
	}{
		{
			name: "person and car above threshold",
			detections: []Detection{
				{Label: "person", Confidence: 0.9, Box: box1},
				{Label: "car", Confidence: 0.6, Box: box2},
			},
			threshold:       0.5,
			expectedPersons: 1,
			expectedAnomaly: true,
			expectedLen:     2,
		},
		{
			name:            "person below threshold",
			detections:      []Detection{{Label: "person", Confidence: 0.4, Box: box1}},
			threshold:       0.5,
			expectedPersons: 0,
			expectedAnomaly: false,
			expectedLen:     0,
		},
		{
			name:            "empty frame",
			detections:      []Detection{},
			threshold:       0.5,
			expectedPersons: 0,
			expectedAnomaly: false,
			expectedLen:     0,
		},
		{
			name:            "truck exactly at threshold",
			detections:      []Detection{{Label: "truck", Confidence: 0.5, Box: box1}},
			threshold:       0.5,
			expectedPersons: 0,
			expectedAnomaly: false,
			expectedLen:     0,
		},
		{
			name:            "person exactly at threshold",
			detections:      []Detection{{Label: "person", Confidence: 0.5, Box: box1}},
			threshold:       0.5,
			expectedPersons: 0,
			expectedAnomaly: false,
			expectedLen:     0,
		},
		{
			name: "unlisted class is ignored",
			detections: []Detection{
				{Label: "dog", Confidence: 0.99, Box: box1},
				{Label: "boat", Confidence: 0.99, Box: box2},
			},
			threshold:       0.5,
			expectedPersons: 0,
			expectedAnomaly: false,
			expectedLen:     0,
		},
		{
			name: "crowd with a bus",
			detections: []Detection{
				{Label: "person", Confidence: 0.91, Box: box1},
				{Label: "person", Confidence: 0.51, Box: box2},
				{Label: "person", Confidence: 0.49, Box: box3},
				{Label: "bus", Confidence: 0.77, Box: box2},
			},
			threshold:       0.5,
			expectedPersons: 2,
			expectedAnomaly: true,
			expectedLen:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.detections, tt.threshold, vehicles())

			assert.Equal(t, tt.expectedPersons, result.PersonCount)
			assert.Equal(t, tt.expectedAnomaly, result.AnomalyDetected)
			assert.Len(t, result.Annotations, tt.expectedLen)
		})
	}
}

func TestClassifyEmptyInputReturnsEmptyAnnotations(t *testing.T) {
	for _, in := range [][]Detection{nil, {}} {
		result := Classify(in, 0.5, vehicles())
		require.NotNil(t, result.Annotations)
		assert.Empty(t, result.Annotations)
		assert.Zero(t, result.PersonCount)
		assert.False(t, result.AnomalyDetected)
	}
}

func TestClassifyAnnotations(t *testing.T) {
	detections := []Detection{
		{Label: "car", Confidence: 0.6, Box: box2},
		{Label: "person", Confidence: 0.9, Box: box1},
		{Label: "truck", Confidence: 0.876, Box: box3},
	}

	result := Classify(detections, 0.5, vehicles())
	require.Len(t, result.Annotations, 3)

	assert.Equal(t, Annotation{
		Box:   box2,
		Kind:  KindAnomaly,
		Color: AnomalyColor,
		Label: "ANOMALY: car (0.60)",
	}, result.Annotations[0])

	assert.Equal(t, Annotation{
		Box:   box1,
		Kind:  KindPerson,
		Color: PersonColor,
	}, result.Annotations[1])
	assert.False(t, result.Annotations[1].HasLabel())

	assert.Equal(t, "ANOMALY: truck (0.88)", result.Annotations[2].Label)
	assert.True(t, result.Annotations[2].HasLabel())
}

func TestClassifyPersonConfiguredAsAnomaly(t *testing.T) {
	result := Classify(
		[]Detection{{Label: "person", Confidence: 0.8, Box: box1}},
		0.5,
		NewClassSet("person"),
	)

	assert.Equal(t, 1, result.PersonCount)
	assert.True(t, result.AnomalyDetected)
	require.Len(t, result.Annotations, 2)
	assert.Equal(t, KindPerson, result.Annotations[0].Kind)
	assert.Equal(t, KindAnomaly, result.Annotations[1].Kind)
}

func TestClassifyNonFiniteConfidence(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	result := Classify([]Detection{
		{Label: "person", Confidence: nan, Box: box1},
		{Label: "car", Confidence: nan, Box: box2},
		{Label: "person", Confidence: inf, Box: box1},
		{Label: "bus", Confidence: inf, Box: box2},
	}, 0.5, vehicles())

	assert.Zero(t, result.PersonCount)
	assert.False(t, result.AnomalyDetected)
	assert.Empty(t, result.Annotations)
}

func TestClassifyReorderInvariance(t *testing.T) {
	detections := []Detection{
		{Label: "person", Confidence: 0.7, Box: box1},
		{Label: "car", Confidence: 0.3, Box: box2},
		{Label: "person", Confidence: 0.2, Box: box3},
		{Label: "person", Confidence: 0.95, Box: box2},
		{Label: "truck", Confidence: 0.55, Box: box1},
	}
	baseline := Classify(detections, 0.5, vehicles())

	reversed := make([]Detection, len(detections))
	for i, d := range detections {
		reversed[len(detections)-1-i] = d
	}
	rotated := append(append([]Detection{}, detections[2:]...), detections[:2]...)

	for _, permutation := range [][]Detection{reversed, rotated} {
		result := Classify(permutation, 0.5, vehicles())
		assert.Equal(t, baseline.PersonCount, result.PersonCount)
		assert.Equal(t, baseline.AnomalyDetected, result.AnomalyDetected)
		assert.ElementsMatch(t, baseline.Annotations, result.Annotations)
	}
}

func TestClassifierIsIdempotent(t *testing.T) {
	c := New(0.5, "car", "truck", "bus")
	detections := []Detection{
		{Label: "person", Confidence: 0.9, Box: box1},
		{Label: "car", Confidence: 0.6, Box: box2},
	}

	first := c.Classify(detections)
	second := c.Classify(detections)

	assert.Equal(t, first, second)
	assert.Equal(t, float32(0.5), c.Threshold())
	assert.Equal(t, []string{"bus", "car", "truck"}, c.AnomalyClasses().Names())
}

func TestClassSet(t *testing.T) {
	set := NewClassSet("car", "bus", "car")

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("car"))
	assert.False(t, set.Contains("Car"))
	assert.False(t, ClassSet{}.Contains("car"))
	assert.Equal(t, []string{"bus", "car"}, set.Names())
}

func TestAnnotationKindString(t *testing.T) {
	assert.Equal(t, "person", KindPerson.String())
	assert.Equal(t, "anomaly", KindAnomaly.String())
	assert.Equal(t, "unknown", AnnotationKind(0).String())
}

// BenchmarkClassify measures classification of a busy street frame.
func BenchmarkClassify(b *testing.B) {
	labels := []string{"person", "car", "bicycle", "person", "truck", "dog", "person", "bus"}
	detections := make([]Detection, 0, 100)
	for i := 0; i < 100; i++ {
		detections = append(detections, Detection{
			Label:      labels[i%len(labels)],
			Confidence: float32(i%10) / 10,
			Box:        image.Rect(i, i, i+40, i+80),
		})
	}
	c := New(0.5, "fire hydrant", "bus", "truck", "airplane", "boat", "car")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		c.Classify(detections)
	}
}
