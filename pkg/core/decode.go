package core

import (
	"fmt"

	"github.com/1F47E/go-framereel/pkg/config"
	p "github.com/1F47E/go-framereel/pkg/core/progress"
	"github.com/1F47E/go-framereel/pkg/encoder"
	"github.com/1F47E/go-framereel/pkg/job"
	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/1F47E/go-framereel/pkg/meta"
	"github.com/1F47E/go-framereel/pkg/storage"
)

// 1. resolve the shape: explicit fields, companion record, header
// 2. check it against the dat file size
// 3. read every frame by offset and save it as a png
func (c *Core) Decode(cfg config.DecodeConfig) (int, error) {
	log := logger.Log.WithField("scope", "core decode")

	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	declared := meta.Shape{
		Frames:   cfg.Frames,
		Height:   cfg.Height,
		Width:    cfg.Width,
		Channels: cfg.Channels,
	}
	header := cfg.Header
	var rec *meta.Record
	if cfg.MetaPath != "" {
		r, err := meta.LoadRecord(cfg.MetaPath)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrIO, err)
		}
		rec = &r
		header = header || r.Header
		declared, err = declared.Merge(r.Shape())
		if err != nil {
			return 0, err
		}
		log.Debugf("Shape from %s: %s", cfg.MetaPath, declared.Print())
	}

	a, err := storage.OpenArray(cfg.ArrayPath, declared, header)
	if err != nil {
		return 0, err
	}
	defer a.Close()
	shape := a.Shape()
	log.Debugf("Decoding %s: %s", cfg.ArrayPath, shape.Print())

	if err := storage.CreateFramesDir(cfg.OutputDir); err != nil {
		return 0, err
	}

	dec := encoder.NewFrameEncoder(shape)
	checksum := meta.NewChecksum()
	var buf []byte
	p.ProgressReset(shape.Frames, "Decoding frames... ")
	for i := 0; i < shape.Frames; i++ {
		if err := c.cancelled(); err != nil {
			return i, err
		}
		j := job.JobDec{FrameNum: i, File: storage.FramePath(cfg.OutputDir, i)}
		log.Debug(j.Print())

		buf, err = a.ReadFrame(j.FrameNum, buf)
		if err != nil {
			return i, err
		}
		_, _ = checksum.Write(buf)
		img, err := dec.DecodeFrame(buf)
		if err != nil {
			return i, err
		}
		if err := storage.SaveFrame(cfg.OutputDir, j.FrameNum, img); err != nil {
			return i, err
		}
		p.Add(1)
	}
	p.Finish()

	if rec != nil && !rec.Validate(checksum.Sum64()) {
		log.Warnf("!!! checksum mismatch between %s and %s", cfg.ArrayPath, cfg.MetaPath)
	}

	log.Infof("DONE. Decoded %d frames into %s", shape.Frames, cfg.OutputDir)
	return shape.Frames, nil
}
