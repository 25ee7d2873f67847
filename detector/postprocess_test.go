package detector

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/crowdwatch/models"
)

// tensorBuilder writes anchors into a YOLOv8 style [4+classes, anchors] layout.
type tensorBuilder struct {
	classes int
	anchors int
	data    []float32
}

func newTensor(classes, anchors int) *tensorBuilder {
	return &tensorBuilder{
		classes: classes,
		anchors: anchors,
		data:    make([]float32, (4+classes)*anchors),
	}
}

func (b *tensorBuilder) set(idx int, cx, cy, w, h float32, class int, score float32) *tensorBuilder {
	b.data[idx] = cx
	b.data[b.anchors+idx] = cy
	b.data[2*b.anchors+idx] = w
	b.data[3*b.anchors+idx] = h
	b.data[b.anchors*(4+class)+idx] = score
	return b
}

func newTestDecoder() *Decoder {
	yolo := models.YOLOClasses()
	return NewDecoder(DecoderConfig{
		Classes:      &yolo,
		InputShape:   image.Point{X: 640, Y: 640},
		ScoreFloor:   0.25,
		NMSThreshold: 0.7,
	})
}

func TestDecodeScalesAndLabels(t *testing.T) {
	tensor := newTensor(80, 4).
		set(0, 320, 320, 100, 200, 0, 0.9). // person
		set(2, 100, 100, 40, 40, 2, 0.6)    // car

	detections, err := newTestDecoder().Decode(tensor.data, image.Point{X: 1280, Y: 720})
	require.NoError(t, err)
	require.Len(t, detections, 2)

	assert.Equal(t, "person", detections[0].Label)
	assert.Equal(t, 0, detections[0].ClassID)
	assert.InDelta(t, 0.9, detections[0].Confidence, 1e-6)
	// x: (320±50)*2, y: (320±100)*1.125
	assert.Equal(t, image.Rect(540, 248, 740, 473), detections[0].Box)

	assert.Equal(t, "car", detections[1].Label)
	assert.Equal(t, image.Rect(160, 90, 240, 135), detections[1].Box)
}

func TestDecodeDropsBelowFloorAndNaN(t *testing.T) {
	tensor := newTensor(80, 3).
		set(0, 320, 320, 100, 100, 0, 0.24).
		set(1, 320, 320, 100, 100, 7, float32(math.NaN())).
		set(2, 320, 320, 100, 100, 7, 0.25)

	detections, err := newTestDecoder().Decode(tensor.data, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, "truck", detections[0].Label)
}

func TestDecodeClampsAndDropsDegenerateBoxes(t *testing.T) {
	tensor := newTensor(80, 2).
		set(0, 10, 10, 100, 100, 0, 0.8).   // spills over the top-left corner
		set(1, 700, 700, 20, 20, 0, 0.8)    // entirely outside the frame

	detections, err := newTestDecoder().Decode(tensor.data, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, image.Rect(0, 0, 60, 60), detections[0].Box)
}

func TestDecodeNMSIsClassAware(t *testing.T) {
	tensor := newTensor(80, 4).
		set(0, 320, 320, 100, 100, 0, 0.7).
		set(1, 322, 322, 100, 100, 0, 0.9). // same person, higher score
		set(2, 321, 321, 100, 100, 2, 0.5). // a car in the same place survives
		set(3, 100, 100, 50, 50, 0, 0.4)    // separate person

	detections, err := newTestDecoder().Decode(tensor.data, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	require.Len(t, detections, 3)

	assert.Equal(t, "person", detections[0].Label)
	assert.InDelta(t, 0.9, detections[0].Confidence, 1e-6)
	assert.Equal(t, "car", detections[1].Label)
	assert.Equal(t, "person", detections[2].Label)
	assert.InDelta(t, 0.4, detections[2].Confidence, 1e-6)
}

func TestDecodeUnknownClassLabel(t *testing.T) {
	labels := models.OutputClassSet{
		Style:   models.ModelFamilyCustom,
		Classes: []models.OutputClass{{Index: 0, Name: "pedestrian"}},
	}
	decoder := NewDecoder(DecoderConfig{
		Classes:      &labels,
		InputShape:   image.Point{X: 640, Y: 640},
		ScoreFloor:   0.25,
		NMSThreshold: 0.7,
	})

	tensor := newTensor(1, 1).set(0, 320, 320, 10, 10, 0, 0.9)
	detections, err := decoder.Decode(tensor.data, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, "pedestrian", detections[0].Label)
	assert.Equal(t, "unknown_3", decoder.label(3))
}

func TestDecodeRejectsMisshapenOutput(t *testing.T) {
	_, err := newTestDecoder().Decode(make([]float32, 85), image.Point{X: 640, Y: 640})
	assert.Error(t, err)

	_, err = newTestDecoder().Decode(nil, image.Point{X: 640, Y: 640})
	assert.Error(t, err)
}

func TestBestClasses(t *testing.T) {
	// 3 classes x 4 anchors, class-major.
	scores := []float32{
		0.1, 0.9, 0.0, 0.2,
		0.8, 0.1, 0.0, 0.2,
		0.3, 0.2, 0.0, 0.7,
	}
	classes, err := bestClasses(scores, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0, 2}, classes)
}

func TestNonMaxSuppressionEmpty(t *testing.T) {
	assert.Nil(t, nonMaxSuppression(nil, 0.5))
}

func TestAnchorCount(t *testing.T) {
	assert.Equal(t, 8400, anchorCount(image.Point{X: 640, Y: 640}))
	assert.Equal(t, 2100, anchorCount(image.Point{X: 320, Y: 320}))
}

// BenchmarkDecode measures decoding a full 640x640 output tensor.
func BenchmarkDecode(b *testing.B) {
	anchors := anchorCount(image.Point{X: 640, Y: 640})
	tensor := newTensor(80, anchors)
	for i := 0; i < anchors; i += 97 {
		tensor.set(i, float32(i%640), float32(i%600), 40, 80, i%80, 0.3+float32(i%7)/10)
	}
	decoder := newTestDecoder()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := decoder.Decode(tensor.data, image.Point{X: 1920, Y: 1080}); err != nil {
			b.Fatal(err)
		}
	}
}
