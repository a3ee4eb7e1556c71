package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/1F47E/go-framereel/pkg/meta"
)

// Array is a flat dat file of fixed size frames addressed by index.
type Array struct {
	file   *os.File
	path   string
	shape  meta.Shape
	offset int64 // start of the sample data, header size or 0
}

// CreateArray creates or truncates path and preallocates it for the whole shape.
func CreateArray(path string, shape meta.Shape, header bool) (*Array, error) {
	if err := shape.ValidateFrame(); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot create dat file: %w", ErrIO, err)
	}
	a := &Array{file: file, path: path, shape: shape}
	if header {
		a.offset = meta.HeaderSize
		if _, err := file.WriteAt(shape.Header(), 0); err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: cannot write header: %w", ErrIO, err)
		}
	}
	if err := file.Truncate(a.offset + shape.DataSize()); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: cannot allocate %s: %w", ErrIO, path, err)
	}
	logger.Log.WithField("scope", "storage").Debugf("Allocated %s: %s, header: %v", path, shape.Print(), header)
	return a, nil
}

// OpenArray opens a dat file read-only. With header set the file must start
// with a valid header, zero fields of the declared shape are filled from it
// and set ones must agree. The shape is then checked against the file size.
func OpenArray(path string, declared meta.Shape, header bool) (*Array, error) {
	log := logger.Log.WithField("scope", "storage")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open dat file: %w", ErrIO, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	size := info.Size()

	a := &Array{file: file, path: path, shape: declared}
	if header {
		buf := make([]byte, meta.HeaderSize)
		if _, err := file.ReadAt(buf, 0); err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: cannot read header of %s: %w", meta.ErrShapeMismatch, path, err)
		}
		hs, err := meta.ParseHeader(buf)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: %s: %w", meta.ErrShapeMismatch, path, err)
		}
		log.Debugf("Header found in %s: %s", path, hs.Print())
		a.shape, err = declared.Merge(hs)
		if err != nil {
			file.Close()
			return nil, err
		}
		a.offset = meta.HeaderSize
	}

	a.shape, err = a.shape.Resolve(size - a.offset)
	if err != nil {
		file.Close()
		return nil, err
	}
	return a, nil
}

func (a *Array) Shape() meta.Shape {
	return a.shape
}

func (a *Array) Path() string {
	return a.path
}

// Offset returns the absolute byte offset of frame i in the file.
func (a *Array) Offset(i int) int64 {
	return a.offset + a.shape.Offset(i)
}

// ReadFrame reads frame i into buf, which is reused when big enough.
func (a *Array) ReadFrame(i int, buf []byte) ([]byte, error) {
	if i < 0 || i >= a.shape.Frames {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", i, a.shape.Frames)
	}
	size := int(a.shape.FrameSize())
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	n, err := a.file.ReadAt(buf, a.Offset(i))
	if err != nil && !(err == io.EOF && n == size) {
		return nil, fmt.Errorf("%w: cannot read frame %d: %w", ErrIO, i, err)
	}
	return buf, nil
}

// WriteFrame writes one frame worth of samples at index i.
func (a *Array) WriteFrame(i int, data []byte) error {
	if i < 0 || i >= a.shape.Frames {
		return fmt.Errorf("frame %d out of range [0, %d)", i, a.shape.Frames)
	}
	if int64(len(data)) != a.shape.FrameSize() {
		return fmt.Errorf("%w: frame has %d bytes, expected %d", meta.ErrShapeMismatch, len(data), a.shape.FrameSize())
	}
	if _, err := a.file.WriteAt(data, a.Offset(i)); err != nil {
		return fmt.Errorf("%w: cannot write frame %d: %w", ErrIO, i, err)
	}
	return nil
}

// Sync flushes the file to durable storage.
func (a *Array) Sync() error {
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("%w: cannot sync %s: %w", ErrIO, a.path, err)
	}
	return nil
}

func (a *Array) Close() error {
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("%w: cannot close %s: %w", ErrIO, a.path, err)
	}
	return nil
}
