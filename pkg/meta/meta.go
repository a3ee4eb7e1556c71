package meta

import (
	"errors"
	"fmt"
	"hash"
	"hash/fnv"
)

// ErrShapeMismatch is returned when a dat file or a frame does not fit the declared shape.
var ErrShapeMismatch = errors.New("shape mismatch")

// Shape is the logical (frames, height, width, channels) layout of a dat file.
// It is not stored in headerless files, reader and writer must agree on it.
type Shape struct {
	Frames   int
	Height   int
	Width    int
	Channels int
}

func (s Shape) Print() string {
	return fmt.Sprintf("frames: %d, height: %d, width: %d, channels: %d", s.Frames, s.Height, s.Width, s.Channels)
}

// FrameSize is the byte length of one frame.
func (s Shape) FrameSize() int64 {
	return int64(s.Height) * int64(s.Width) * int64(s.Channels)
}

// DataSize is the byte length of all frames, header excluded.
func (s Shape) DataSize() int64 {
	return int64(s.Frames) * s.FrameSize()
}

// Offset of frame i relative to the start of the sample data.
func (s Shape) Offset(i int) int64 {
	return int64(i) * s.FrameSize()
}

// ValidateFrame checks the per-frame dimensions, frames count is not required.
func (s Shape) ValidateFrame() error {
	if s.Height <= 0 || s.Width <= 0 {
		return fmt.Errorf("%w: invalid frame size %dx%d", ErrShapeMismatch, s.Width, s.Height)
	}
	if s.Channels != 3 && s.Channels != 4 {
		return fmt.Errorf("%w: invalid channel count %d", ErrShapeMismatch, s.Channels)
	}
	return nil
}

// Resolve checks the shape against the sample data length of a file.
// With Frames == 0 the count is derived, otherwise it must match exactly.
func (s Shape) Resolve(dataLen int64) (Shape, error) {
	if err := s.ValidateFrame(); err != nil {
		return s, err
	}
	fs := s.FrameSize()
	if dataLen%fs != 0 {
		return s, fmt.Errorf("%w: %d data bytes is not a multiple of frame size %d (%s)", ErrShapeMismatch, dataLen, fs, s.Print())
	}
	frames := int(dataLen / fs)
	if s.Frames != 0 && s.Frames != frames {
		return s, fmt.Errorf("%w: file holds %d frames, expected %d (%s)", ErrShapeMismatch, frames, s.Frames, s.Print())
	}
	s.Frames = frames
	return s, nil
}

// Merge fills zero fields of s from other and fails if a set field disagrees.
func (s Shape) Merge(other Shape) (Shape, error) {
	merge := func(name string, a, b int) (int, error) {
		if a == 0 {
			return b, nil
		}
		if b != 0 && a != b {
			return a, fmt.Errorf("%w: %s is %d, file says %d", ErrShapeMismatch, name, a, b)
		}
		return a, nil
	}
	var err error
	if s.Frames, err = merge("frames", s.Frames, other.Frames); err != nil {
		return s, err
	}
	if s.Height, err = merge("height", s.Height, other.Height); err != nil {
		return s, err
	}
	if s.Width, err = merge("width", s.Width, other.Width); err != nil {
		return s, err
	}
	if s.Channels, err = merge("channels", s.Channels, other.Channels); err != nil {
		return s, err
	}
	return s, nil
}

// NewChecksum returns the hash used for the companion record checksum.
func NewChecksum() hash.Hash64 {
	return fnv.New64a()
}

func generateChecksum(bytes []byte) uint64 {
	hasher := NewChecksum()
	_, _ = hasher.Write(bytes)
	return hasher.Sum64()
}
