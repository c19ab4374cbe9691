// Package dds reads and writes the DirectDraw Surface container as far as
// texture import and export need it: legacy FourCC and DX10 block formats,
// and mask-described uncompressed formats.
package dds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/erinpentecost/bntxtool/internal/format"
)

var (
	ErrInvalidHeader = errors.New("invalid dds header")
	ErrShortData     = errors.New("dds pixel data is shorter than its header claims")
)

const (
	magic      = "DDS "
	headerSize = 124
	pfSize     = 32
	dx10Size   = 20

	// Offsets from the start of the file, magic included.
	offHeight    = 12
	offWidth     = 16
	offPitch     = 20
	offMipCount  = 28
	offPfFlags   = 80
	offFourCC    = 84
	offBitCount  = 88
	offMasks     = 92
	offCaps      = 108
	offDXGI      = 128
	dataLegacy   = 4 + headerSize
	dataExtended = dataLegacy + dx10Size

	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPitch       = 0x8
	ddsdPixelFormat = 0x1000
	ddsdMipMapCount = 0x20000
	ddsdLinearSize  = 0x80000

	ddpfAlphaPixels = 0x1
	ddpfAlpha       = 0x2
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40
	ddpfLuminance   = 0x20000

	capsComplex = 0x8
	capsTexture = 0x1000
	capsMipMap  = 0x400000

	dx10Texture2D = 3
)

// channelMasks gives, for an uncompressed format, the bit mask of each stored
// channel indexed by selector value (Red=2 .. Alpha=5). Zero and One have no
// mask.
type channelMasks struct {
	bpp       uint32
	luminance bool
	masks     [6]uint32
}

func rgbaMasks(bpp, r, g, b, a uint32) channelMasks {
	return channelMasks{bpp: bpp, masks: [6]uint32{0, 0, r, g, b, a}}
}

func lumMasks(bpp, l, a uint32) channelMasks {
	return channelMasks{bpp: bpp, luminance: true, masks: [6]uint32{0, 0, l, a, 0, 0}}
}

// uncompressed is ordered by preference when several kinds match the same
// mask set.
var uncompressed = []struct {
	kind uint8
	channelMasks
}{
	{format.KindR8G8B8A8, rgbaMasks(4, 0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000)},
	{format.KindB8G8R8A8, rgbaMasks(4, 0x00ff0000, 0x0000ff00, 0x000000ff, 0xff000000)},
	{format.KindR10G10B10A2, rgbaMasks(4, 0x000003ff, 0x000ffc00, 0x3ff00000, 0xc0000000)},
	{format.KindR5G6B5, rgbaMasks(2, 0x001f, 0x07e0, 0xf800, 0)},
	{format.KindB5G6R5, rgbaMasks(2, 0xf800, 0x07e0, 0x001f, 0)},
	{format.KindR5G5B5A1, rgbaMasks(2, 0x001f, 0x03e0, 0x7c00, 0x8000)},
	{format.KindB5G5R5A1, rgbaMasks(2, 0x7c00, 0x03e0, 0x001f, 0x8000)},
	{format.KindA1B5G5R5, rgbaMasks(2, 0xf800, 0x07c0, 0x003e, 0x0001)},
	{format.KindR4G4B4A4, rgbaMasks(2, 0x000f, 0x00f0, 0x0f00, 0xf000)},
	{format.KindA4B4G4R4, rgbaMasks(2, 0xf000, 0x0f00, 0x00f0, 0x000f)},
	{format.KindR8G8, lumMasks(2, 0x00ff, 0xff00)},
	{format.KindR8, lumMasks(1, 0xff, 0)},
	{format.KindR4G4, lumMasks(1, 0x0f, 0xf0)},
}

func masksFor(kind uint8) (channelMasks, bool) {
	for _, u := range uncompressed {
		if u.kind == kind {
			return u.channelMasks, true
		}
	}
	return channelMasks{}, false
}

// ChannelMasks returns the bytes per pixel of an uncompressed format and the
// bit mask of each stored channel, indexed by selector value.
func ChannelMasks(f format.Format) (bpp uint32, masks [6]uint32, ok bool) {
	cm, ok := masksFor(f.Kind())
	return cm.bpp, cm.masks, ok
}

type fourCC [4]byte

var legacyCodes = []struct {
	code   fourCC
	kind   uint8
	signed bool
}{
	{fourCC{'D', 'X', 'T', '1'}, format.KindBC1, false},
	{fourCC{'D', 'X', 'T', '3'}, format.KindBC2, false},
	{fourCC{'D', 'X', 'T', '5'}, format.KindBC3, false},
	{fourCC{'B', 'C', '4', 'U'}, format.KindBC4, false},
	{fourCC{'A', 'T', 'I', '1'}, format.KindBC4, false},
	{fourCC{'B', 'C', '4', 'S'}, format.KindBC4, true},
	{fourCC{'B', 'C', '5', 'U'}, format.KindBC5, false},
	{fourCC{'A', 'T', 'I', '2'}, format.KindBC5, false},
	{fourCC{'B', 'C', '5', 'S'}, format.KindBC5, true},
}

var dx10FourCC = fourCC{'D', 'X', '1', '0'}

// dxgiFormats maps DXGI_FORMAT values to format codes.
var dxgiFormats = map[uint32]format.Format{
	24: format.New(format.KindR10G10B10A2, format.VariantUNorm),
	28: format.New(format.KindR8G8B8A8, format.VariantUNorm),
	29: format.New(format.KindR8G8B8A8, format.VariantSRGB),
	71: format.New(format.KindBC1, format.VariantUNorm),
	72: format.New(format.KindBC1, format.VariantSRGB),
	74: format.New(format.KindBC2, format.VariantUNorm),
	75: format.New(format.KindBC2, format.VariantSRGB),
	77: format.New(format.KindBC3, format.VariantUNorm),
	78: format.New(format.KindBC3, format.VariantSRGB),
	80: format.New(format.KindBC4, format.VariantUNorm),
	81: format.New(format.KindBC4, format.VariantSNorm),
	83: format.New(format.KindBC5, format.VariantUNorm),
	84: format.New(format.KindBC5, format.VariantSNorm),
	87: format.New(format.KindB8G8R8A8, format.VariantUNorm),
	91: format.New(format.KindB8G8R8A8, format.VariantSRGB),
	95: format.New(format.KindBC6H, format.VariantUF16),
	96: format.New(format.KindBC6H, format.VariantSF16),
	98: format.New(format.KindBC7, format.VariantUNorm),
	99: format.New(format.KindBC7, format.VariantSRGB),
}

func dxgiFor(f format.Format) (uint32, bool) {
	for k, v := range dxgiFormats {
		if v == f {
			return k, true
		}
	}
	return 0, false
}

// HeaderParams describes the surface a header is written for.
type HeaderParams struct {
	Width, Height uint32
	Format        format.Format
	// MipCount is the total number of levels, at least 1.
	MipCount int
	// CompSel lists, for the R, G, B and A outputs in that order, which
	// stored channel feeds it (0 Zero, 1 One, 2 Red .. 5 Alpha).
	CompSel [4]uint8
	// Mip0Size is the byte size of the first level.
	Mip0Size uint32
}

// WriteHeader writes the magic and header, plus the DX10 extension when the
// format has no legacy encoding.
func WriteHeader(w io.Writer, p HeaderParams) error {
	hdr, err := header(p)
	if err != nil {
		return err
	}
	_, err = w.Write(hdr)
	return err
}

func header(p HeaderParams) ([]byte, error) {
	if p.Width == 0 || p.Height == 0 {
		return nil, fmt.Errorf("dds header %dx%d: %w", p.Width, p.Height, ErrInvalidHeader)
	}
	mips := max(1, p.MipCount)
	compressed := format.IsBlockCompressed(p.Format)

	hdr := make([]byte, dataLegacy, dataExtended)
	copy(hdr, magic)
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(hdr[off:], v) }

	flags := uint32(ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat)
	caps := uint32(capsTexture)
	if mips > 1 {
		flags |= ddsdMipMapCount
		caps |= capsComplex | capsMipMap
	}
	if compressed {
		flags |= ddsdLinearSize
	} else {
		flags |= ddsdPitch
	}
	put(4, headerSize)
	put(8, flags)
	put(offHeight, p.Height)
	put(offWidth, p.Width)
	put(offPitch, p.Mip0Size)
	put(offMipCount, uint32(mips))
	put(76, pfSize)
	put(offCaps, caps)

	if compressed {
		if code, ok := legacyFourCC(p.Format); ok {
			put(offPfFlags, ddpfFourCC)
			copy(hdr[offFourCC:], code[:])
			return hdr, nil
		}
		dxgi, ok := dxgiFor(p.Format)
		if !ok {
			return nil, fmt.Errorf("dds header for %s: %w", p.Format, format.ErrUnsupportedFormat)
		}
		put(offPfFlags, ddpfFourCC)
		copy(hdr[offFourCC:], dx10FourCC[:])
		hdr = hdr[:dataExtended]
		put(offDXGI, dxgi)
		put(offDXGI+4, dx10Texture2D)
		put(offDXGI+12, 1)
		return hdr, nil
	}

	cm, ok := masksFor(p.Format.Kind())
	if !ok {
		return nil, fmt.Errorf("dds header for %s: %w", p.Format, format.ErrUnsupportedFormat)
	}
	var masks [4]uint32
	for i, sel := range p.CompSel {
		if int(sel) < len(cm.masks) {
			masks[i] = cm.masks[sel]
		}
	}
	pf := uint32(ddpfRGB)
	switch {
	case masks[0] == 0 && masks[1] == 0 && masks[2] == 0:
		pf = ddpfAlpha
	case cm.luminance && masks[0] == masks[1] && masks[1] == masks[2]:
		pf = ddpfLuminance
	}
	if masks[3] != 0 && pf != ddpfAlpha {
		pf |= ddpfAlphaPixels
	}
	put(offPfFlags, pf)
	put(offBitCount, cm.bpp*8)
	for i, m := range masks {
		put(offMasks+4*i, m)
	}
	return hdr, nil
}

func legacyFourCC(f format.Format) (fourCC, bool) {
	switch f.Kind() {
	case format.KindBC1, format.KindBC2, format.KindBC3:
		for _, c := range legacyCodes {
			if c.kind == f.Kind() {
				return c.code, true
			}
		}
	case format.KindBC4, format.KindBC5:
		signed := f.Variant() == format.VariantSNorm
		for _, c := range legacyCodes {
			if c.kind == f.Kind() && c.signed == signed && c.code[0] == 'B' {
				return c.code, true
			}
		}
	}
	return fourCC{}, false
}
