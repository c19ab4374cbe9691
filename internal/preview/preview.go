// Package preview renders the first mip level of a stored texture into an
// ordinary image.
package preview

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"math/bits"
	"strings"

	"github.com/dblezek/tga"
	"github.com/mauserzjeh/dxt"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/dds"
	"github.com/erinpentecost/bntxtool/internal/export"
	"github.com/erinpentecost/bntxtool/internal/format"
)

// Kind is an output image encoding.
type Kind string

const (
	PNG Kind = "png"
	BMP Kind = "bmp"
	TGA Kind = "tga"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case PNG, BMP, TGA:
		return k, nil
	}
	return "", fmt.Errorf("unknown preview format %q", s)
}

type blockDecoder func(data []byte, width, height uint) ([]byte, error)

var blockDecoders = map[uint8]blockDecoder{
	format.KindBC1: dxt.DecodeDXT1,
	format.KindBC2: dxt.DecodeDXT3,
	format.KindBC3: dxt.DecodeDXT5,
}

// Render decodes mip 0 of tex and applies its channel selectors.
func Render(tex *bntx.Texture) (*image.NRGBA, error) {
	mips, err := export.Deswizzle(tex)
	if err != nil {
		return nil, err
	}
	w, h := int(tex.Width), int(tex.Height)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	// DDS order: selector i feeds output R, G, B, A.
	sel := tex.CompSel.Reverse()
	var px [6]uint8
	px[format.ChannelOne] = 0xff

	if decode, ok := blockDecoders[tex.Format.Kind()]; ok {
		rgba, err := decode(mips[0], uint(w), uint(h))
		if err != nil {
			return nil, fmt.Errorf("%q: decode %s: %w", tex.Name, tex.Format, err)
		}
		for i := 0; i+4 <= len(rgba) && i+4 <= len(img.Pix); i += 4 {
			copy(px[format.ChannelRed:], rgba[i:i+4])
			store(img.Pix[i:i+4], sel, &px)
		}
		return img, nil
	}

	bpp, masks, ok := dds.ChannelMasks(tex.Format)
	if !ok {
		return nil, fmt.Errorf("%q: no preview for %s: %w", tex.Name, tex.Format, bntx.ErrUnsupportedFormat)
	}
	src := mips[0]
	if len(src) < w*h*int(bpp) {
		return nil, fmt.Errorf("%q: level 0 holds %d bytes: %w", tex.Name, len(src), bntx.ErrTruncated)
	}
	for i := range w * h {
		v := pixel(src[i*int(bpp):], bpp)
		for c := format.ChannelRed; c <= format.ChannelAlpha; c++ {
			px[c] = channel(v, masks[c])
		}
		if masks[format.ChannelAlpha] == 0 {
			px[format.ChannelAlpha] = 0xff
		}
		store(img.Pix[i*4:i*4+4], sel, &px)
	}
	return img, nil
}

func store(dst []byte, sel bntx.ChannelSelector, px *[6]uint8) {
	for i, s := range sel {
		if int(s) < len(px) {
			dst[i] = px[s]
		}
	}
}

func pixel(b []byte, bpp uint32) uint32 {
	switch bpp {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	}
	return binary.LittleEndian.Uint32(b)
}

// channel extracts the masked bits of v and widens them to eight bits.
func channel(v, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	top := mask >> shift
	return uint8(((v & mask) >> shift) * 255 / top)
}

// Scale shrinks img so neither side exceeds limit, keeping the aspect
// ratio. Images already small enough, or a limit of zero, are returned as is.
func Scale(img *image.NRGBA, limit int) *image.NRGBA {
	b := img.Bounds()
	if limit <= 0 || (b.Dx() <= limit && b.Dy() <= limit) {
		return img
	}
	w, h := limit, limit
	if b.Dx() > b.Dy() {
		h = b.Dy() * limit / b.Dx()
	} else {
		w = b.Dx() * limit / b.Dy()
	}
	out := image.NewNRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// Encode writes img to w in the given encoding.
func Encode(w io.Writer, img image.Image, kind Kind) error {
	var err error
	switch kind {
	case PNG:
		err = png.Encode(w, img)
	case BMP:
		err = bmp.Encode(w, img)
	case TGA:
		err = tga.Encode(w, img)
	default:
		return fmt.Errorf("unknown preview format %q", kind)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", kind, bntx.ErrIO, err)
	}
	return nil
}
