package meta

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

const dtypeName = "uint8"

// Record is the companion metadata stored next to a dat file,
// so a later reader does not have to know the shape out of band.
type Record struct {
	Frames       int    `yaml:"frames"`
	Height       int    `yaml:"height"`
	Width        int    `yaml:"width"`
	Channels     int    `yaml:"channels"`
	Dtype        string `yaml:"dtype"`
	ChannelOrder string `yaml:"channel_order"`
	Header       bool   `yaml:"header"`
	Source       string `yaml:"source,omitempty"`
	Checksum     string `yaml:"checksum,omitempty"`
}

func NewRecord(s Shape, header bool, source string, checksum uint64) Record {
	order := "RGB"
	if s.Channels == 4 {
		order = "RGBA"
	}
	return Record{
		Frames:       s.Frames,
		Height:       s.Height,
		Width:        s.Width,
		Channels:     s.Channels,
		Dtype:        dtypeName,
		ChannelOrder: order,
		Header:       header,
		Source:       source,
		Checksum:     strconv.FormatUint(checksum, 16),
	}
}

func (r Record) Shape() Shape {
	return Shape{Frames: r.Frames, Height: r.Height, Width: r.Width, Channels: r.Channels}
}

// Validate compares the stored checksum with the given one.
// Records without a checksum always validate.
func (r Record) Validate(checksum uint64) bool {
	if r.Checksum == "" {
		return true
	}
	return r.Checksum == strconv.FormatUint(checksum, 16)
}

func SaveRecord(path string, r Record) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("cannot marshal meta record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadRecord(path string) (Record, error) {
	var r Record
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.UnmarshalStrict(data, &r); err != nil {
		return r, fmt.Errorf("cannot parse meta record %s: %w", path, err)
	}
	if r.Dtype != "" && r.Dtype != dtypeName {
		return r, fmt.Errorf("unsupported dtype %q in %s", r.Dtype, path)
	}
	if r.Frames < 1 {
		return r, fmt.Errorf("%w: no frames in %s", ErrShapeMismatch, path)
	}
	if err := r.Shape().ValidateFrame(); err != nil {
		return r, err
	}
	return r, nil
}
