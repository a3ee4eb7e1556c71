package config

import (
	"fmt"
	"strings"
)

// NOTE: frames are stored top to bottom, left to right, one byte per sample
const (
	// samples per pixel
	ChannelsColor = 3 // R,G,B
	ChannelsAlpha = 4 // R,G,B,A

	DefaultChannels  = ChannelsColor
	DefaultDownscale = 1

	// frames written by decode: 000000.png, 000001.png...
	FrameNameFormat = "%06d.png"

	// companion record is stored next to the dat file
	MetaFileSuffix = ".yaml"

	// Environment
	EnvDebug = "DEBUG"
)

// supported source frame formats, matched case-sensitively
var DefaultExtensions = []string{".jpg", ".png"}

// EncodeConfig describes one frames -> dat run.
type EncodeConfig struct {
	OriginalDir      string
	ProcessedDir     string
	OriginalOutPath  string
	ProcessedOutPath string

	Channels   int
	Extensions []string
	Downscale  int

	// Header prefixes the dat files with a shape header
	Header bool
	// WriteMeta writes a <dat>.yaml companion record for every output
	WriteMeta bool
}

// NewEncodeConfig returns a config with the default policy filled in.
func NewEncodeConfig(originalDir, processedDir, originalOut, processedOut string) EncodeConfig {
	return EncodeConfig{
		OriginalDir:      originalDir,
		ProcessedDir:     processedDir,
		OriginalOutPath:  originalOut,
		ProcessedOutPath: processedOut,
		Channels:         DefaultChannels,
		Extensions:       append([]string(nil), DefaultExtensions...),
		Downscale:        DefaultDownscale,
	}
}

func (c EncodeConfig) Validate() error {
	if c.OriginalDir == "" || c.ProcessedDir == "" {
		return fmt.Errorf("original and processed frame dirs are required")
	}
	if c.OriginalOutPath == "" || c.ProcessedOutPath == "" {
		return fmt.Errorf("original and processed output paths are required")
	}
	if c.OriginalOutPath == c.ProcessedOutPath {
		return fmt.Errorf("output paths must differ: %s", c.OriginalOutPath)
	}
	if err := ValidateChannels(c.Channels); err != nil {
		return err
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("at least one frame extension is required")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid extension %q: must start with a dot", ext)
		}
	}
	return ValidateDownscale(c.Downscale)
}

// DecodeConfig describes one dat -> frames run.
// The full shape must match what the dat was written with. Fields left zero
// are taken from the file header (Header) or a companion record (MetaPath).
type DecodeConfig struct {
	ArrayPath string
	OutputDir string

	Frames   int
	Height   int
	Width    int
	Channels int

	// Header means the dat starts with a shape header
	Header   bool
	MetaPath string
}

func (c DecodeConfig) Validate() error {
	if c.ArrayPath == "" {
		return fmt.Errorf("dat file path is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir is required")
	}
	if c.Frames < 0 || c.Height < 0 || c.Width < 0 {
		return fmt.Errorf("frames, height and width can not be negative")
	}
	if c.Channels != 0 {
		if err := ValidateChannels(c.Channels); err != nil {
			return err
		}
	}
	if c.Header || c.MetaPath != "" {
		return nil
	}
	// headerless file, nothing else knows the shape
	if c.Height == 0 || c.Width == 0 {
		return fmt.Errorf("height and width are required without a header or meta record")
	}
	if c.Channels == 0 {
		return fmt.Errorf("channels are required without a header or meta record")
	}
	if c.Frames == 0 {
		return fmt.Errorf("frames are required without a header or meta record")
	}
	return nil
}

func ValidateChannels(ch int) error {
	if ch != ChannelsColor && ch != ChannelsAlpha {
		return fmt.Errorf("invalid channel count %d: must be %d or %d", ch, ChannelsColor, ChannelsAlpha)
	}
	return nil
}

func ValidateDownscale(d int) error {
	if d < 1 {
		return fmt.Errorf("invalid downscale factor %d: must be >= 1", d)
	}
	return nil
}

// MetaPathFor returns the companion record path of a dat file.
func MetaPathFor(datPath string) string {
	return datPath + MetaFileSuffix
}
