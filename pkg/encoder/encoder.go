package encoder

import (
	"fmt"
	"image"
	"image/color"

	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/1F47E/go-framereel/pkg/meta"
	"github.com/nfnt/resize"
)

// FrameEncoder packs images into interleaved uint8 samples and back.
// Samples are R,G,B for 3 channels and R,G,B,A for 4.
// No color management is applied, stored values are copied as is.
type FrameEncoder struct {
	width    int
	height   int
	channels int
}

func NewFrameEncoder(s meta.Shape) *FrameEncoder {
	return &FrameEncoder{s.Width, s.Height, s.Channels}
}

// FrameSize in bytes
func (f *FrameEncoder) FrameSize() int {
	return f.width * f.height * f.channels
}

// EncodeFrame writes the image samples into buf, which is reused when big enough.
func (f *FrameEncoder) EncodeFrame(img image.Image, buf []byte) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() != f.width || b.Dy() != f.height {
		return nil, fmt.Errorf("%w: frame is %dx%d, expected %dx%d", meta.ErrShapeMismatch, b.Dx(), b.Dy(), f.width, f.height)
	}
	size := f.FrameSize()
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]

	ch := f.channels
	switch src := img.(type) {
	case *image.NRGBA:
		// straight copy, alpha dropped when not needed
		for y := 0; y < f.height; y++ {
			start := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[start : start+f.width*4]
			out := buf[y*f.width*ch : (y+1)*f.width*ch]
			if ch == 4 {
				copy(out, row)
				continue
			}
			for x := 0; x < f.width; x++ {
				out[x*3] = row[x*4]
				out[x*3+1] = row[x*4+1]
				out[x*3+2] = row[x*4+2]
			}
		}
	case *image.YCbCr:
		// jpeg frames
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				yi := src.YOffset(x, y)
				ci := src.COffset(x, y)
				r, g, bl := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				buf[i], buf[i+1], buf[i+2] = r, g, bl
				if ch == 4 {
					buf[i+3] = 0xff
				}
				i += ch
			}
		}
	default:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				buf[i], buf[i+1], buf[i+2] = c.R, c.G, c.B
				if ch == 4 {
					buf[i+3] = c.A
				}
				i += ch
			}
		}
	}
	return buf, nil
}

// DecodeFrame turns frame samples into an opaque color image.
// The alpha channel of 4 channel frames is dropped.
func (f *FrameEncoder) DecodeFrame(data []byte) (*image.NRGBA, error) {
	if len(data) != f.FrameSize() {
		return nil, fmt.Errorf("%w: frame has %d bytes, expected %d", meta.ErrShapeMismatch, len(data), f.FrameSize())
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.width, f.height))
	ch := f.channels
	for p, i := 0, 0; i < len(data); p, i = p+4, i+ch {
		img.Pix[p] = data[i]
		img.Pix[p+1] = data[i+1]
		img.Pix[p+2] = data[i+2]
		img.Pix[p+3] = 0xff
	}
	return img, nil
}

// ScaledSize returns the frame size after downscaling by factor, never below 1px.
func ScaledSize(width, height, factor int) (int, int) {
	if factor <= 1 {
		return width, height
	}
	w, h := width/factor, height/factor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Downscale resizes the image by an integer factor, factor 1 returns img untouched.
func Downscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), factor)
	logger.Log.WithField("scope", "frame encoder").Debugf("Downscaling %dx%d -> %dx%d", b.Dx(), b.Dy(), w, h)
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear)
}
