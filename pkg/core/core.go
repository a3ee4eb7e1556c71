package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/1F47E/go-framereel/pkg/config"
	"github.com/1F47E/go-framereel/pkg/meta"
	"github.com/1F47E/go-framereel/pkg/storage"
)

var (
	ErrFrameCountMismatch = errors.New("frame count mismatch")
	ErrNotImplemented     = errors.New("not implemented")

	ErrDirectoryEmpty = storage.ErrDirectoryEmpty
	ErrShapeMismatch  = meta.ErrShapeMismatch
	ErrIO             = storage.ErrIO
)

// Core converts frame dirs to flat dat files and back.
// It keeps no state between calls, the shape travels explicitly.
type Core struct {
	ctx context.Context
}

func NewCore(ctx context.Context) *Core {
	return &Core{ctx: ctx}
}

// cancelled is checked between frames
func (c *Core) cancelled() error {
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return nil
	}
}

// Allocate creates a zero filled dat file of the given shape,
// e.g. the output file a stabilizer writes into.
func (c *Core) Allocate(path string, shape meta.Shape, header, writeMeta bool) error {
	if shape.Frames < 1 {
		return fmt.Errorf("%w: frames must be >= 1, got %d", ErrShapeMismatch, shape.Frames)
	}
	a, err := storage.CreateArray(path, shape, header)
	if err != nil {
		return err
	}
	if err := a.Sync(); err != nil {
		a.Close()
		return err
	}
	if err := a.Close(); err != nil {
		return err
	}
	if writeMeta {
		rec := meta.NewRecord(shape, header, "", 0)
		rec.Checksum = ""
		if err := meta.SaveRecord(config.MetaPathFor(path), rec); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	log.Infof("Allocated %s: %s", path, shape.Print())
	return nil
}

// FlowConsistency will compare optical flow consistency between ground truth
// and generated frames, optionally at a reduced resolution.
// TODO: needs an optical flow estimator, until then it only validates arguments.
func (c *Core) FlowConsistency(gtDir, processedDir, generatedDir string, downscale int) error {
	if err := config.ValidateDownscale(downscale); err != nil {
		return err
	}
	return fmt.Errorf("flow consistency check: %w", ErrNotImplemented)
}
