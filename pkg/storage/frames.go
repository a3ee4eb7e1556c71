// All frame image files related functions
package storage

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cfg "github.com/1F47E/go-framereel/pkg/config"
)

var (
	ErrDirectoryEmpty = errors.New("no source frames")
	ErrIO             = errors.New("io error")
)

// ScanFrames lists files in dir with one of the given extensions, sorted by path.
// Extensions are matched case-sensitively, hidden files and dirs are skipped.
// An empty list is not an error here, callers decide with ErrDirectoryEmpty.
func ScanFrames(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read frames dir: %w", ErrIO, err)
	}
	filesList := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if hasExt(name, exts) {
			filesList = append(filesList, filepath.Join(dir, name))
		}
	}
	// plain lexicographic order, frame names are expected to be zero padded
	sort.Strings(filesList)
	return filesList, nil
}

func hasExt(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// NonConforming returns the files whose names are not fixed width numbers,
// for those sort order may differ from the frame order.
func NonConforming(files []string) []string {
	var bad []string
	width := -1
	for _, f := range files {
		base := filepath.Base(f)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if !isDigits(stem) {
			bad = append(bad, f)
			continue
		}
		if width == -1 {
			width = len(stem)
		} else if len(stem) != width {
			bad = append(bad, f)
		}
	}
	return bad
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func CreateFramesDir(dir string) error {
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w: cannot create frames dir: %w", ErrIO, err)
	}
	return nil
}

func FrameRead(filename string) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode %s: %w", ErrIO, filename, err)
	}
	return img, nil
}

// FramePath returns the output path of frame idx in dir.
func FramePath(dir string, idx int) string {
	return filepath.Join(dir, fmt.Sprintf(cfg.FrameNameFormat, idx))
}

func SaveFrame(dir string, idx int, img image.Image) error {
	filePath := FramePath(dir, idx)
	imgFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot create file: %w", ErrIO, err)
	}
	err = png.Encode(imgFile, img)
	if err != nil {
		imgFile.Close()
		return fmt.Errorf("%w: cannot encode to file %s: %w", ErrIO, filePath, err)
	}
	if err = imgFile.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
