// Package models - Label-index mapping for detection model outputs.
package models

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ModelFamily identifies the naming convention / dataset of a model's class indices.
type ModelFamily string

const (
	// ModelFamilyYOLO is the 80 COCO classes without background, as emitted by YOLOv5/v8.
	ModelFamilyYOLO ModelFamily = "yolo"
	// ModelFamilyCustom is a label set loaded from a file.
	ModelFamilyCustom ModelFamily = "custom"
)

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
}

// OutputClassSet ties a family to its full list of labels.
type OutputClassSet struct {
	// Class set identifier.
	Style ModelFamily
	// Classes that are supported and mappable.
	Classes []OutputClass
}

// Len returns the number of classes in the set.
func (s *OutputClassSet) Len() int {
	return len(s.Classes)
}

// ClassManager holds all registered class sets.
type ClassManager struct {
	sets map[ModelFamily]*OutputClassSet
}

// NewClassManager initializes and registers the given sets.
func NewClassManager(allSets ...*OutputClassSet) *ClassManager {
	mgr := &ClassManager{sets: make(map[ModelFamily]*OutputClassSet)}
	for _, set := range allSets {
		mgr.sets[set.Style] = set
	}
	return mgr
}

// GetName returns the class name for a given style and index.
func (m *ClassManager) GetName(style ModelFamily, idx int) (string, error) {
	set, ok := m.sets[style]
	if !ok {
		return "", errors.Errorf("style %q not registered", style)
	}
	if idx < 0 || idx >= len(set.Classes) {
		return "", errors.Errorf("index %d out of range for style %q", idx, style)
	}
	return set.Classes[idx].Name, nil
}

// LoadLabels reads a label file with one class name per line. Blank lines and lines starting with
// '#' are skipped; the remaining lines are numbered from zero.
//
// Arguments:
//   - path: Path to the label file (e.g. an exported coco.names).
//
// Returns:
//   - OutputClassSet: A set with style ModelFamilyCustom.
//   - error: An error if the file cannot be read or holds no labels.
func LoadLabels(path string) (OutputClassSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return OutputClassSet{}, errors.Wrapf(err, "opening label file %s", path)
	}
	defer f.Close()

	set := OutputClassSet{Style: ModelFamilyCustom}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.Classes = append(set.Classes, OutputClass{Index: len(set.Classes), Name: line})
	}
	if err := scanner.Err(); err != nil {
		return OutputClassSet{}, errors.Wrapf(err, "reading label file %s", path)
	}
	if len(set.Classes) == 0 {
		return OutputClassSet{}, errors.Errorf("label file %s holds no labels", path)
	}

	return set, nil
}

var yoloNames = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse", "sheep",
	"cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase",
	"frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich",
	"orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant",
	"bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "cell phone", "microwave",
	"oven", "toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// YOLOClasses is the 80 COCO classes. YOLO models index directly into this zero-based list.
func YOLOClasses() OutputClassSet {
	classes := make([]OutputClass, len(yoloNames))
	for i, name := range yoloNames {
		classes[i] = OutputClass{Index: i, Name: name}
	}
	return OutputClassSet{Style: ModelFamilyYOLO, Classes: classes}
}
