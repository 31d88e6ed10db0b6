package benchmark

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/preprocess"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp"}

// LoadInputs reads one image file, or every image file of a directory.
//
// Directory entries are ordered by the frame number at the end of their base name
// ("frame-2.jpg" before "frame-10.jpg"), then by name.
//
// Arguments:
//   - path: An image file or a directory.
//
// Returns:
//   - []*preprocess.InputData: The images in order.
//   - error: When the path cannot be read or a directory holds no images.
func LoadInputs(path string) ([]*preprocess.InputData, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat input %s", path)
	}
	if !info.IsDir() {
		in, err := preprocess.NewInputData(path)
		if err != nil {
			return nil, err
		}
		return []*preprocess.InputData{in}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", path)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no images found in directory %s", path)
	}
	slices.SortFunc(names, compareFrames)

	inputs := make([]*preprocess.InputData, 0, len(names))
	for _, name := range names {
		in, err := preprocess.NewInputData(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func compareFrames(a, b string) int {
	fa, oka := frameNumber(a)
	fb, okb := frameNumber(b)
	if oka && okb && fa != fb {
		return fa - fb
	}
	return strings.Compare(a, b)
}

// frameNumber returns the trailing number of a file's base name.
func frameNumber(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(base[i:])
	return n, err == nil
}
