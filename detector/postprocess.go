package detector

import (
	"fmt"
	"image"
	"sort"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/crowdwatch/classifier"
	"github.com/nvr-ai/crowdwatch/images"
	"github.com/nvr-ai/crowdwatch/models"
)

// DecoderConfig configures YOLOv8 output decoding.
type DecoderConfig struct {
	Classes      *models.OutputClassSet
	InputShape   image.Point
	ScoreFloor   float32
	NMSThreshold float32
}

// Decoder turns a raw YOLOv8 output tensor into labelled detections.
//
// The tensor layout is [1, 4+numClasses, anchors]: rows 0-3 hold cx, cy, w, h in model input
// pixels and the remaining rows hold one score per class.
type Decoder struct {
	cfg    DecoderConfig
	labels *models.ClassManager
}

// candidate is a box that survived the score floor.
type candidate struct {
	box   images.Rect
	score float32
	class int
}

// NewDecoder creates a decoder.
func NewDecoder(cfg DecoderConfig) *Decoder {
	return &Decoder{
		cfg:    cfg,
		labels: models.NewClassManager(cfg.Classes),
	}
}

// NumClasses returns the number of class score rows expected per anchor.
func (d *Decoder) NumClasses() int {
	return d.cfg.Classes.Len()
}

// Decode decodes one output tensor.
//
// Arguments:
//   - output: The flattened output tensor.
//   - frameSize: The original frame size used to scale boxes back to frame pixels.
//
// Returns:
//   - []classifier.Detection: Detections sorted by descending confidence.
//   - error: An error if the tensor size does not match the class count.
func (d *Decoder) Decode(output []float32, frameSize image.Point) ([]classifier.Detection, error) {
	rows := 4 + d.NumClasses()
	if len(output) == 0 || len(output)%rows != 0 {
		return nil, errors.Errorf("output of %d values does not hold %d rows", len(output), rows)
	}
	anchors := len(output) / rows

	candidates, err := d.candidates(output, anchors, frameSize)
	if err != nil {
		return nil, err
	}
	kept := nonMaxSuppression(candidates, d.cfg.NMSThreshold)

	detections := make([]classifier.Detection, 0, len(kept))
	for _, c := range kept {
		detections = append(detections, classifier.Detection{
			Label:      d.label(c.class),
			Confidence: c.score,
			Box:        c.box.Rectangle(),
			ClassID:    c.class,
		})
	}
	return detections, nil
}

func (d *Decoder) candidates(output []float32, anchors int, frameSize image.Point) ([]candidate, error) {
	classes, err := bestClasses(output[4*anchors:], d.NumClasses(), anchors)
	if err != nil {
		return nil, err
	}

	scaleX := float32(frameSize.X) / float32(d.cfg.InputShape.X)
	scaleY := float32(frameSize.Y) / float32(d.cfg.InputShape.Y)

	var out []candidate
	for idx, classID := range classes {
		best := output[anchors*(classID+4)+idx]
		if math32.IsNaN(best) || best < d.cfg.ScoreFloor {
			continue
		}

		xc, yc := output[idx], output[anchors+idx]
		w, h := output[2*anchors+idx], output[3*anchors+idx]
		box := images.Rect{
			X1: int(math32.Round((xc - w/2) * scaleX)),
			Y1: int(math32.Round((yc - h/2) * scaleY)),
			X2: int(math32.Round((xc + w/2) * scaleX)),
			Y2: int(math32.Round((yc + h/2) * scaleY)),
		}.ClampTo(frameSize.X, frameSize.Y)
		if box.Empty() {
			continue
		}

		out = append(out, candidate{box: box, score: best, class: classID})
	}
	return out, nil
}

// bestClasses returns the highest scoring class per anchor from the [classes, anchors] score block.
func bestClasses(scores []float32, classes, anchors int) ([]int, error) {
	t := tensor.New(tensor.WithShape(classes, anchors), tensor.WithBacking(scores))
	argmax, err := t.Argmax(0)
	if err != nil {
		return nil, errors.Wrap(err, "selecting best class")
	}

	switch v := argmax.Data().(type) {
	case []int:
		return v, nil
	case int:
		return []int{v}, nil
	default:
		return nil, errors.Errorf("unexpected argmax result %T", v)
	}
}

func (d *Decoder) label(class int) string {
	name, err := d.labels.GetName(d.cfg.Classes.Style, class)
	if err != nil {
		return fmt.Sprintf("unknown_%d", class)
	}
	return name
}

// nonMaxSuppression performs class-aware greedy NMS. The result is ordered by descending score.
func nonMaxSuppression(candidates []candidate, iouThreshold float32) []candidate {
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	kept := make([]candidate, 0, len(candidates))
	used := make([]bool, len(candidates))
	for i := range candidates {
		if used[i] {
			continue
		}
		anchor := candidates[i]
		kept = append(kept, anchor)
		used[i] = true

		for j := i + 1; j < len(candidates); j++ {
			if used[j] || candidates[j].class != anchor.class {
				continue
			}
			if images.CalculateIoU(anchor.box, candidates[j].box) > iouThreshold {
				used[j] = true
			}
		}
	}
	return kept
}

// anchorCount returns the number of YOLOv8 anchors for an input shape (strides 8, 16 and 32).
func anchorCount(shape image.Point) int {
	total := 0
	for _, stride := range []int{8, 16, 32} {
		total += (shape.X / stride) * (shape.Y / stride)
	}
	return total
}
