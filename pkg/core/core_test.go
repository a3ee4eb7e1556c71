package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/1F47E/go-framereel/pkg/config"
	"github.com/1F47E/go-framereel/pkg/core/progress"
	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/1F47E/go-framereel/pkg/meta"
)

func TestMain(m *testing.M) {
	progress.SetOutput(io.Discard)
	logger.SetQuiet()
	os.Exit(m.Run())
}

// testFrame returns a w x h frame with samples derived from the frame number
func testFrame(n, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(n*50 + x),
				G: uint8(y * 10),
				B: uint8(200 - n),
				A: 255,
			})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
}

// frameDir writes frames numbered first..first+count-1 as 000000.png style files
func frameDir(t *testing.T, first, count, w, h int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < count; i++ {
		writePNG(t, filepath.Join(dir, frameName(i)), testFrame(first+i, w, h))
	}
	return dir
}

func frameName(i int) string {
	return fmt.Sprintf("%06d.png", i)
}

func newEncodeConfig(t *testing.T, orig, proc string) config.EncodeConfig {
	t.Helper()
	out := t.TempDir()
	return config.NewEncodeConfig(orig, proc, filepath.Join(out, "original.dat"), filepath.Join(out, "processed.dat"))
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	return b
}

func TestEncodeOffsetAddressing(t *testing.T) {
	orig := frameDir(t, 0, 2, 2, 2)
	proc := frameDir(t, 2, 2, 2, 2)
	cfg := newEncodeConfig(t, orig, proc)

	shape, err := NewCore(context.Background()).Encode(cfg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := meta.Shape{Frames: 2, Height: 2, Width: 2, Channels: 3}
	if shape != want {
		t.Errorf("shape = %+v, want %+v", shape, want)
	}

	wantOrig := []byte{
		// frame 0
		0, 0, 200, 1, 0, 200,
		0, 10, 200, 1, 10, 200,
		// frame 1
		50, 0, 199, 51, 0, 199,
		50, 10, 199, 51, 10, 199,
	}
	wantProc := []byte{
		100, 0, 198, 101, 0, 198,
		100, 10, 198, 101, 10, 198,
		150, 0, 197, 151, 0, 197,
		150, 10, 197, 151, 10, 197,
	}
	if got := readFile(t, cfg.OriginalOutPath); !bytes.Equal(got, wantOrig) {
		t.Errorf("original dat = %v, want %v", got, wantOrig)
	}
	if got := readFile(t, cfg.ProcessedOutPath); !bytes.Equal(got, wantProc) {
		t.Errorf("processed dat = %v, want %v", got, wantProc)
	}
}

func TestRoundTrip(t *testing.T) {
	testCases := []struct {
		name     string
		channels int
	}{
		{name: "rgb", channels: 3},
		{name: "rgba", channels: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			const n, w, h = 3, 5, 4
			orig := frameDir(t, 0, n, w, h)
			cfg := newEncodeConfig(t, orig, orig)
			cfg.Channels = tc.channels
			c := NewCore(context.Background())

			shape, err := c.Encode(cfg)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if info, err := os.Stat(cfg.OriginalOutPath); err != nil || info.Size() != int64(n*w*h*tc.channels) {
				t.Fatalf("dat size = %v (%v), want %d", info, err, n*w*h*tc.channels)
			}

			out := filepath.Join(t.TempDir(), "decoded")
			frames, err := c.Decode(config.DecodeConfig{
				ArrayPath: cfg.OriginalOutPath,
				OutputDir: out,
				Frames:    n,
				Height:    shape.Height,
				Width:     shape.Width,
				Channels:  tc.channels,
			})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if frames != n {
				t.Fatalf("decoded %d frames, want %d", frames, n)
			}

			entries, err := os.ReadDir(out)
			if err != nil {
				t.Fatalf("ReadDir() error = %v", err)
			}
			if len(entries) != n {
				t.Fatalf("got %d files, want %d", len(entries), n)
			}
			for i, e := range entries {
				if e.Name() != frameName(i) {
					t.Errorf("file %d = %s, want %s", i, e.Name(), frameName(i))
				}
				same, err := compareFrames(filepath.Join(orig, frameName(i)), filepath.Join(out, e.Name()), shape)
				if err != nil {
					t.Fatalf("compareFrames() error = %v", err)
				}
				if !same {
					t.Errorf("frame %d differs from the source", i)
				}
			}
		})
	}
}

func TestEncodeCountMismatch(t *testing.T) {
	testCases := []struct {
		name      string
		original  int
		processed int
	}{
		{name: "2 vs 1", original: 2, processed: 1},
		{name: "3 vs 0", original: 3, processed: 0},
		{name: "0 vs 1", original: 0, processed: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orig := frameDir(t, 0, tc.original, 2, 2)
			proc := frameDir(t, 0, tc.processed, 2, 2)
			cfg := newEncodeConfig(t, orig, proc)

			// a pre-existing output stays untouched
			if err := os.WriteFile(cfg.ProcessedOutPath, []byte("keep"), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			_, err := NewCore(context.Background()).Encode(cfg)
			if !errors.Is(err, ErrFrameCountMismatch) {
				t.Fatalf("Encode() error = %v, want %v", err, ErrFrameCountMismatch)
			}
			if _, err := os.Stat(cfg.OriginalOutPath); !os.IsNotExist(err) {
				t.Errorf("original dat should not exist, stat error = %v", err)
			}
			if got := readFile(t, cfg.ProcessedOutPath); string(got) != "keep" {
				t.Errorf("processed dat = %q, want untouched", got)
			}
		})
	}
}

func TestEncodeEmptyDir(t *testing.T) {
	orig := t.TempDir()
	proc := t.TempDir()
	// files with other extensions do not count as frames
	if err := os.WriteFile(filepath.Join(orig, "000000.bmp"), nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg := newEncodeConfig(t, orig, proc)

	_, err := NewCore(context.Background()).Encode(cfg)
	if !errors.Is(err, ErrDirectoryEmpty) {
		t.Errorf("Encode() error = %v, want %v", err, ErrDirectoryEmpty)
	}
	if _, err := os.Stat(cfg.OriginalOutPath); !os.IsNotExist(err) {
		t.Errorf("original dat should not exist, stat error = %v", err)
	}
}

func TestEncodeFrameSizeMismatch(t *testing.T) {
	orig := frameDir(t, 0, 2, 2, 2)
	writePNG(t, filepath.Join(orig, frameName(1)), testFrame(1, 3, 2))
	proc := frameDir(t, 0, 2, 2, 2)

	_, err := NewCore(context.Background()).Encode(newEncodeConfig(t, orig, proc))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Encode() error = %v, want %v", err, ErrShapeMismatch)
	}
}

func TestDecodeChannelMismatch(t *testing.T) {
	// 4 rgb frames of 2x2 are 48 bytes, also a whole number of rgba frames
	orig := frameDir(t, 0, 4, 2, 2)
	cfg := newEncodeConfig(t, orig, orig)
	c := NewCore(context.Background())
	if _, err := c.Encode(cfg); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	out := filepath.Join(t.TempDir(), "decoded")
	_, err := c.Decode(config.DecodeConfig{
		ArrayPath: cfg.OriginalOutPath,
		OutputDir: out,
		Frames:    4,
		Height:    2,
		Width:     2,
		Channels:  4,
	})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("Decode() error = %v, want %v", err, ErrShapeMismatch)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output dir should not be created, stat error = %v", err)
	}

	// the frames count can not be left out on a headerless file
	_, err = c.Decode(config.DecodeConfig{
		ArrayPath: cfg.OriginalOutPath,
		OutputDir: out,
		Height:    2,
		Width:     2,
		Channels:  4,
	})
	if err == nil {
		t.Fatal("Decode() without frames expected error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output dir should not be created, stat error = %v", err)
	}
}

func TestDecodeFramesMismatch(t *testing.T) {
	orig := frameDir(t, 0, 2, 2, 2)
	cfg := newEncodeConfig(t, orig, orig)
	c := NewCore(context.Background())
	if _, err := c.Encode(cfg); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	_, err := c.Decode(config.DecodeConfig{
		ArrayPath: cfg.OriginalOutPath,
		OutputDir: t.TempDir(),
		Frames:    3,
		Height:    2,
		Width:     2,
		Channels:  3,
	})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Decode() error = %v, want %v", err, ErrShapeMismatch)
	}
}

func TestEncodeIdempotent(t *testing.T) {
	orig := frameDir(t, 0, 3, 4, 3)
	proc := frameDir(t, 5, 3, 4, 3)
	cfg := newEncodeConfig(t, orig, proc)
	c := NewCore(context.Background())

	if _, err := c.Encode(cfg); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	first := readFile(t, cfg.OriginalOutPath)
	firstProc := readFile(t, cfg.ProcessedOutPath)

	if _, err := c.Encode(cfg); err != nil {
		t.Fatalf("second Encode() error = %v", err)
	}
	if !bytes.Equal(first, readFile(t, cfg.OriginalOutPath)) {
		t.Error("original dat differs between runs")
	}
	if !bytes.Equal(firstProc, readFile(t, cfg.ProcessedOutPath)) {
		t.Error("processed dat differs between runs")
	}
}

func TestEncodeHeaderAndMeta(t *testing.T) {
	orig := frameDir(t, 0, 2, 3, 2)
	cfg := newEncodeConfig(t, orig, orig)
	cfg.Header = true
	cfg.WriteMeta = true
	c := NewCore(context.Background())

	shape, err := c.Encode(cfg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	dat := readFile(t, cfg.OriginalOutPath)
	if int64(len(dat)) != meta.HeaderSize+shape.DataSize() {
		t.Fatalf("dat size = %d, want %d", len(dat), meta.HeaderSize+shape.DataSize())
	}
	hs, err := meta.ParseHeader(dat[:meta.HeaderSize])
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	if hs != shape {
		t.Errorf("header shape = %+v, want %+v", hs, shape)
	}

	rec, err := meta.LoadRecord(config.MetaPathFor(cfg.OriginalOutPath))
	if err != nil {
		t.Fatalf("LoadRecord() error = %v", err)
	}
	if rec.Shape() != shape || !rec.Header || rec.Source != orig {
		t.Errorf("record = %+v", rec)
	}

	// shape comes from the header alone
	frames, err := c.Decode(config.DecodeConfig{ArrayPath: cfg.OriginalOutPath, OutputDir: t.TempDir(), Header: true})
	if err != nil {
		t.Fatalf("Decode(header) error = %v", err)
	}
	if frames != 2 {
		t.Errorf("decoded %d frames, want 2", frames)
	}

	// and from the companion record
	frames, err = c.Decode(config.DecodeConfig{
		ArrayPath: cfg.ProcessedOutPath,
		OutputDir: t.TempDir(),
		MetaPath:  config.MetaPathFor(cfg.ProcessedOutPath),
	})
	if err != nil {
		t.Fatalf("Decode(meta) error = %v", err)
	}
	if frames != 2 {
		t.Errorf("decoded %d frames, want 2", frames)
	}

	// explicit fields must agree with the header
	_, err = c.Decode(config.DecodeConfig{ArrayPath: cfg.OriginalOutPath, OutputDir: t.TempDir(), Header: true, Channels: 4})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Decode(channels 4) error = %v, want %v", err, ErrShapeMismatch)
	}
}

func TestEncodeDownscale(t *testing.T) {
	orig := frameDir(t, 0, 2, 8, 6)
	cfg := newEncodeConfig(t, orig, orig)
	cfg.Downscale = 2

	shape, err := NewCore(context.Background()).Encode(cfg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if shape.Width != 4 || shape.Height != 3 {
		t.Errorf("shape = %+v, want 4x3", shape)
	}
	if got := len(readFile(t, cfg.OriginalOutPath)); got != 2*4*3*3 {
		t.Errorf("dat size = %d, want %d", got, 2*4*3*3)
	}
}

func TestEncodeCancelled(t *testing.T) {
	orig := frameDir(t, 0, 2, 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCore(ctx).Encode(newEncodeConfig(t, orig, orig))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Encode() error = %v, want %v", err, context.Canceled)
	}
}

func TestCompare(t *testing.T) {
	dir := frameDir(t, 0, 2, 4, 4)
	f, err := os.Create(filepath.Join(dir, "000002.jpg"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := jpeg.Encode(f, testFrame(2, 4, 4), nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	f.Close()

	same, err := NewCore(context.Background()).Compare(dir, 3)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if !same {
		t.Error("Compare() = false, want true")
	}
}

func TestAllocate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stabilized.dat")
	shape := meta.Shape{Frames: 3, Height: 2, Width: 2, Channels: 3}
	c := NewCore(context.Background())

	if err := c.Allocate(path, shape, false, true); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if got := readFile(t, path); !bytes.Equal(got, make([]byte, 36)) {
		t.Errorf("allocated = %v, want 36 zero bytes", got)
	}
	rec, err := meta.LoadRecord(config.MetaPathFor(path))
	if err != nil {
		t.Fatalf("LoadRecord() error = %v", err)
	}
	if rec.Shape() != shape {
		t.Errorf("record shape = %+v, want %+v", rec.Shape(), shape)
	}

	if err := c.Allocate(path, meta.Shape{Height: 2, Width: 2, Channels: 3}, false, false); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Allocate(0 frames) error = %v, want %v", err, ErrShapeMismatch)
	}
}

func TestFlowConsistency(t *testing.T) {
	c := NewCore(context.Background())
	if err := c.FlowConsistency("gt", "proc", "gen", 2); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("FlowConsistency() error = %v, want %v", err, ErrNotImplemented)
	}
	if err := c.FlowConsistency("gt", "proc", "gen", 0); err == nil || errors.Is(err, ErrNotImplemented) {
		t.Errorf("FlowConsistency(0) error = %v, want downscale error", err)
	}
}
