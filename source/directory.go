package source

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var frameIndexPattern = regexp.MustCompile(`(\d+)$`)

// ImageFile is one still frame in a directory.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the name, or -1 when the name carries none.
	Frame int
}

// ListImageFiles lists the image files of dir in playback order.
//
// Files named with a trailing frame number (frame-12.jpg) are ordered by that number and come
// first; the rest follow in lexical order.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: The image files in playback order.
//   - error: Error if the directory cannot be read.
func ListImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp":
			files = append(files, ImageFile{
				Path:  filepath.Join(dir, entry.Name()),
				Frame: frameIndex(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))),
			})
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if (a.Frame < 0) != (b.Frame < 0) {
			return a.Frame >= 0
		}
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Path < b.Path
	})

	return files, nil
}

func frameIndex(stem string) int {
	m := frameIndexPattern.FindString(stem)
	if m == "" {
		return -1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return -1
	}
	return n
}

// Directory replays a directory of still frames.
type Directory struct {
	files []ImageFile
	next  int
	log   logrus.FieldLogger
}

// OpenDirectory opens a directory of still frames. A directory without images is unavailable.
func OpenDirectory(dir string, log logrus.FieldLogger) (*Directory, error) {
	files, err := ListImageFiles(dir)
	if err != nil {
		return nil, unavailable(dir, err)
	}
	if len(files) == 0 {
		return nil, unavailable(dir, errors.New("no image files"))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Directory{files: files, log: log.WithField("path", dir)}, nil
}

// Read decodes the next file. Files that cannot be decoded are skipped with a warning.
func (d *Directory) Read(dst *gocv.Mat) bool {
	for d.next < len(d.files) {
		file := d.files[d.next]
		d.next++

		mat, err := decode(file.Path)
		if err != nil {
			d.log.WithError(err).WithField("file", file.Path).Warn("skipping unreadable frame")
			continue
		}
		mat.CopyTo(dst)
		mat.Close()
		return true
	}
	return false
}

func decode(path string) (gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.Mat{}, err
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "decoding image")
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, errors.New("decoded image is empty")
	}
	return mat, nil
}

// Close is a no-op; frames are read one at a time.
func (d *Directory) Close() error {
	return nil
}
