package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/1F47E/go-framereel/pkg/config"
	"github.com/1F47E/go-framereel/pkg/encoder"
	"github.com/1F47E/go-framereel/pkg/meta"
	"github.com/1F47E/go-framereel/pkg/storage"
)

// encode + decode + compare
// The dir is encoded as both original and processed set, the original dat is
// decoded back and every frame is compared with its source pixel by pixel.
func (c *Core) Compare(dir string, channels int) (bool, error) {
	tmp, err := os.MkdirTemp("", "framereel-")
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer os.RemoveAll(tmp)

	enc := config.NewEncodeConfig(dir, dir, filepath.Join(tmp, "original.dat"), filepath.Join(tmp, "processed.dat"))
	enc.Channels = channels
	shape, err := c.Encode(enc)
	if err != nil {
		return false, err
	}

	out := filepath.Join(tmp, "frames")
	_, err = c.Decode(config.DecodeConfig{
		ArrayPath: enc.OriginalOutPath,
		OutputDir: out,
		Frames:    shape.Frames,
		Height:    shape.Height,
		Width:     shape.Width,
		Channels:  shape.Channels,
	})
	if err != nil {
		return false, err
	}

	sources, err := storage.ScanFrames(dir, enc.Extensions)
	if err != nil {
		return false, err
	}
	if len(sources) != shape.Frames {
		return false, fmt.Errorf("%w: %d frames in %s, %d encoded", ErrFrameCountMismatch, len(sources), dir, shape.Frames)
	}
	for i, src := range sources {
		same, err := compareFrames(src, storage.FramePath(out, i), shape)
		if err != nil {
			return false, err
		}
		if !same {
			return false, fmt.Errorf("frame %d differs from %s", i, src)
		}
	}
	return true, nil
}

// compareFrames checks color samples only, decoded frames carry no alpha
func compareFrames(file1, file2 string, shape meta.Shape) (bool, error) {
	shape.Channels = config.ChannelsColor
	enc := encoder.NewFrameEncoder(shape)

	img1, err := storage.FrameRead(file1)
	if err != nil {
		return false, err
	}
	img2, err := storage.FrameRead(file2)
	if err != nil {
		return false, err
	}
	b1, err := enc.EncodeFrame(img1, nil)
	if err != nil {
		return false, err
	}
	b2, err := enc.EncodeFrame(img2, nil)
	if err != nil {
		return false, err
	}
	return bytes.Equal(b1, b2), nil
}
