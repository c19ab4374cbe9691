package dds

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math/bits"
	"strings"

	"golang.org/x/image/draw"

	"github.com/erinpentecost/bntxtool/internal/format"
)

type Codec int

const (
	// DXT1 doesn't support alpha.
	DXT1 Codec = iota
	// DXT5 supports alpha.
	DXT5
	// Lossless is plain RGBA8.
	Lossless
)

func (c Codec) String() string {
	switch c {
	case DXT1:
		return "dxt1"
	case DXT5:
		return "dxt5"
	case Lossless:
		return "lossless"
	}
	return fmt.Sprintf("Codec(%d)", int(c))
}

func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "dxt1", "bc1":
		return DXT1, nil
	case "dxt5", "bc3":
		return DXT5, nil
	case "lossless", "rgba8", "rgba":
		return Lossless, nil
	}
	return 0, fmt.Errorf("unknown codec %q", s)
}

func (c Codec) format() format.Format {
	switch c {
	case DXT1:
		return format.New(format.KindBC1, format.VariantUNorm)
	case DXT5:
		return format.New(format.KindBC3, format.VariantUNorm)
	default:
		return format.New(format.KindR8G8B8A8, format.VariantUNorm)
	}
}

// FromImage encodes m as a DDS file with the given number of levels. Levels
// below 1 produce the full chain down to 1x1; larger requests are clamped to
// it. Each level is resampled from the full-size image.
func FromImage(m image.Image, codec Codec, levels int) ([]byte, error) {
	if codec < DXT1 || codec > Lossless {
		return nil, fmt.Errorf("encode dds: unknown codec %v", codec)
	}
	b := m.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("encode dds: empty image")
	}
	w, h := b.Dx(), b.Dy()
	full := bits.Len(uint(max(w, h)))
	if levels < 1 || levels > full {
		levels = full
	}

	base := toRGBA(m)
	var body bytes.Buffer
	var mip0 int
	for i := range levels {
		level := base
		if i > 0 {
			lw, lh := max(1, w>>i), max(1, h>>i)
			level = image.NewRGBA(image.Rect(0, 0, lw, lh))
			draw.BiLinear.Scale(level, level.Bounds(), base, base.Bounds(), draw.Src, nil)
		}
		payload := encodeLevel(level, codec)
		if i == 0 {
			mip0 = len(payload)
		}
		body.Write(payload)
	}

	var out bytes.Buffer
	err := WriteHeader(&out, HeaderParams{
		Width:    uint32(w),
		Height:   uint32(h),
		Format:   codec.format(),
		MipCount: levels,
		CompSel:  identity,
		Mip0Size: uint32(mip0),
	})
	if err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func toRGBA(m image.Image) *image.RGBA {
	if im, ok := m.(*image.RGBA); ok && im.Rect.Min == (image.Point{}) {
		return im
	}
	b := m.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), m, b.Min, draw.Src)
	return rgba
}

func encodeLevel(m *image.RGBA, codec Codec) []byte {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	if codec == Lossless {
		out := make([]byte, 0, w*h*4)
		for y := range h {
			off := y * m.Stride
			out = append(out, m.Pix[off:off+w*4]...)
		}
		return out
	}

	size := 8
	if codec == DXT5 {
		size = 16
	}
	out := make([]byte, 0, ((w+3)/4)*((h+3)/4)*size)
	for by := 0; by < h; by += 4 {
		for bx := 0; bx < w; bx += 4 {
			var px block
			for i := range px {
				// Edge blocks repeat the last row and column.
				x := min(bx+i%4, w-1)
				y := min(by+i/4, h-1)
				off := y*m.Stride + x*4
				px[i] = color.RGBA{m.Pix[off], m.Pix[off+1], m.Pix[off+2], m.Pix[off+3]}
			}
			if codec == DXT5 {
				a := alphaBlock(px)
				out = append(out, a[:]...)
			}
			c := colorBlock(px)
			out = append(out, c[:]...)
		}
	}
	return out
}
