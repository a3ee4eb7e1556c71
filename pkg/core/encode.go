package core

import (
	"fmt"
	"hash"

	"github.com/1F47E/go-framereel/pkg/config"
	p "github.com/1F47E/go-framereel/pkg/core/progress"
	"github.com/1F47E/go-framereel/pkg/encoder"
	"github.com/1F47E/go-framereel/pkg/job"
	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/1F47E/go-framereel/pkg/meta"
	"github.com/1F47E/go-framereel/pkg/storage"
)

var log = logger.Log

// output is one dat file being written during encode
type output struct {
	array    *storage.Array
	source   string
	checksum hash.Hash64
	buf      []byte
}

// 1. scan both dirs, check the frames count
// 2. derive the shape from the first original frame
// 3. preallocate both dat files and write every frame pair at its index
func (c *Core) Encode(cfg config.EncodeConfig) (meta.Shape, error) {
	log := logger.Log.WithField("scope", "core encode")
	var shape meta.Shape

	if err := cfg.Validate(); err != nil {
		return shape, err
	}

	origFiles, err := storage.ScanFrames(cfg.OriginalDir, cfg.Extensions)
	if err != nil {
		return shape, err
	}
	procFiles, err := storage.ScanFrames(cfg.ProcessedDir, cfg.Extensions)
	if err != nil {
		return shape, err
	}
	if len(origFiles) != len(procFiles) {
		return shape, fmt.Errorf("%w: %d original frames, %d processed frames", ErrFrameCountMismatch, len(origFiles), len(procFiles))
	}
	if len(origFiles) == 0 {
		return shape, fmt.Errorf("%w in %s and %s", ErrDirectoryEmpty, cfg.OriginalDir, cfg.ProcessedDir)
	}
	warnNonConforming(cfg.OriginalDir, origFiles)
	warnNonConforming(cfg.ProcessedDir, procFiles)

	// channels come from the config, not from the image
	first, err := storage.FrameRead(origFiles[0])
	if err != nil {
		return shape, err
	}
	first = encoder.Downscale(first, cfg.Downscale)
	shape = meta.Shape{
		Frames:   len(origFiles),
		Height:   first.Bounds().Dy(),
		Width:    first.Bounds().Dx(),
		Channels: cfg.Channels,
	}
	log.Debugf("Shape: %s", shape.Print())

	outs := make([]*output, 0, 2)
	defer func() {
		// no-op after a successful close, leaves partial files on failure
		for _, o := range outs {
			_ = o.array.Close()
		}
	}()
	for _, path := range []string{cfg.OriginalOutPath, cfg.ProcessedOutPath} {
		a, err := storage.CreateArray(path, shape, cfg.Header)
		if err != nil {
			return shape, err
		}
		outs = append(outs, &output{array: a, checksum: meta.NewChecksum()})
	}
	outs[0].source = cfg.OriginalDir
	outs[1].source = cfg.ProcessedDir

	enc := encoder.NewFrameEncoder(shape)
	p.ProgressReset(shape.Frames, "Encoding frames... ")
	for _, j := range job.Pairs(origFiles, procFiles) {
		if err := c.cancelled(); err != nil {
			return shape, err
		}
		log.Debug(j.Print())
		if j.NamesDiffer() {
			log.Debugf("Frame %d pairs different names: %s, %s", j.FrameNum, j.Original, j.Processed)
		}
		if err := writeFrame(enc, outs[0], j.FrameNum, j.Original, cfg.Downscale); err != nil {
			return shape, err
		}
		if err := writeFrame(enc, outs[1], j.FrameNum, j.Processed, cfg.Downscale); err != nil {
			return shape, err
		}
		p.Add(1)
	}
	p.Finish()

	for _, o := range outs {
		if err := o.array.Sync(); err != nil {
			return shape, err
		}
		if err := o.array.Close(); err != nil {
			return shape, err
		}
		if cfg.WriteMeta {
			rec := meta.NewRecord(shape, cfg.Header, o.source, o.checksum.Sum64())
			if err := meta.SaveRecord(config.MetaPathFor(o.array.Path()), rec); err != nil {
				return shape, fmt.Errorf("%w: %w", ErrIO, err)
			}
		}
	}

	log.Infof("DONE. Encoded %s", shape.Print())
	return shape, nil
}

func writeFrame(enc *encoder.FrameEncoder, o *output, idx int, path string, downscale int) error {
	img, err := storage.FrameRead(path)
	if err != nil {
		return fmt.Errorf("frame %d: %w", idx, err)
	}
	img = encoder.Downscale(img, downscale)
	o.buf, err = enc.EncodeFrame(img, o.buf)
	if err != nil {
		return fmt.Errorf("frame %d (%s): %w", idx, path, err)
	}
	if err := o.array.WriteFrame(idx, o.buf); err != nil {
		return err
	}
	_, _ = o.checksum.Write(o.buf)
	return nil
}

func warnNonConforming(dir string, files []string) {
	bad := storage.NonConforming(files)
	if len(bad) == 0 {
		return
	}
	log.Warnf("%d of %d frames in %s are not zero padded numbers (e.g. %s), frame order follows plain name sorting", len(bad), len(files), dir, bad[0])
}
