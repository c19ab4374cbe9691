// Package format holds the static tables describing the pixel formats, tile
// modes and enumerations found in BNTX texture descriptors.
package format

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrUnsupportedTileMode = errors.New("unsupported tiling mode")
)

// Format is a BNTX pixel format code. The high byte selects the channel
// layout and the low byte the numeric interpretation.
type Format uint32

// Kind returns the channel layout part of the code.
func (f Format) Kind() uint8 { return uint8(f >> 8) }

// Variant returns the numeric interpretation part of the code.
func (f Format) Variant() uint8 { return uint8(f) }

// IsSRGB reports whether the variant is the sRGB one.
func (f Format) IsSRGB() bool { return f.Variant() == VariantSRGB }

func (f Format) String() string {
	if name, ok := names[f]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", uint32(f))
}

// Variants (low byte).
const (
	VariantUNorm uint8 = 0x01
	VariantSNorm uint8 = 0x02
	VariantSF16  uint8 = 0x05
	VariantSRGB  uint8 = 0x06
	VariantUF16  uint8 = 0x0a
)

// Kinds (high byte).
const (
	KindR4G4         uint8 = 0x01
	KindR8           uint8 = 0x02
	KindR4G4B4A4     uint8 = 0x03
	KindA4B4G4R4     uint8 = 0x04
	KindR5G5B5A1     uint8 = 0x05
	KindA1B5G5R5     uint8 = 0x06
	KindR5G6B5       uint8 = 0x07
	KindB5G6R5       uint8 = 0x08
	KindR8G8         uint8 = 0x09
	KindR16          uint8 = 0x0a
	KindR8G8B8A8     uint8 = 0x0b
	KindB8G8R8A8     uint8 = 0x0c
	KindR9G9B9E5     uint8 = 0x0d
	KindR10G10B10A2  uint8 = 0x0e
	KindR11G11B10    uint8 = 0x0f
	KindR16G16       uint8 = 0x12
	KindD24S8        uint8 = 0x13
	KindR32          uint8 = 0x14
	KindR16G16B16A16 uint8 = 0x15
	KindD32FS8       uint8 = 0x16
	KindR32G32       uint8 = 0x17
	KindR32G32B32    uint8 = 0x18
	KindR32G32B32A32 uint8 = 0x19
	KindBC1          uint8 = 0x1a
	KindBC2          uint8 = 0x1b
	KindBC3          uint8 = 0x1c
	KindBC4          uint8 = 0x1d
	KindBC5          uint8 = 0x1e
	KindBC6H         uint8 = 0x1f
	KindBC7          uint8 = 0x20
	KindASTC4x4      uint8 = 0x2d
	KindASTC5x4      uint8 = 0x2e
	KindASTC5x5      uint8 = 0x2f
	KindASTC6x5      uint8 = 0x30
	KindASTC6x6      uint8 = 0x31
	KindASTC8x5      uint8 = 0x32
	KindASTC8x6      uint8 = 0x33
	KindASTC8x8      uint8 = 0x34
	KindASTC10x5     uint8 = 0x35
	KindASTC10x6     uint8 = 0x36
	KindASTC10x8     uint8 = 0x37
	KindASTC10x10    uint8 = 0x38
	KindASTC12x10    uint8 = 0x39
	KindASTC12x12    uint8 = 0x3a
	KindB5G5R5A1     uint8 = 0x3b
)

// New builds a format code.
func New(kind, variant uint8) Format {
	return Format(uint32(kind)<<8 | uint32(variant))
}

// bytesPerBlock is authoritative for layout computation: a miss rejects.
var bytesPerBlock = map[uint8]uint32{
	KindR4G4:         1,
	KindR8:           1,
	KindR4G4B4A4:     2,
	KindA4B4G4R4:     2,
	KindR5G5B5A1:     2,
	KindA1B5G5R5:     2,
	KindR5G6B5:       2,
	KindB5G6R5:       2,
	KindR8G8:         2,
	KindR16:          2,
	KindR8G8B8A8:     4,
	KindB8G8R8A8:     4,
	KindR9G9B9E5:     4,
	KindR10G10B10A2:  4,
	KindR11G11B10:    4,
	KindR16G16:       4,
	KindD24S8:        4,
	KindR32:          4,
	KindR16G16B16A16: 8,
	KindD32FS8:       8,
	KindR32G32:       8,
	KindR32G32B32:    12,
	KindR32G32B32A32: 16,
	KindBC1:          8,
	KindBC2:          16,
	KindBC3:          16,
	KindBC4:          8,
	KindBC5:          16,
	KindBC6H:         16,
	KindBC7:          16,
	KindASTC4x4:      16,
	KindASTC5x4:      16,
	KindASTC5x5:      16,
	KindASTC6x5:      16,
	KindASTC6x6:      16,
	KindASTC8x5:      16,
	KindASTC8x6:      16,
	KindASTC8x8:      16,
	KindASTC10x5:     16,
	KindASTC10x6:     16,
	KindASTC10x8:     16,
	KindASTC10x10:    16,
	KindASTC12x10:    16,
	KindASTC12x12:    16,
	KindB5G5R5A1:     2,
}

var blockDims = map[uint8][2]uint32{
	KindBC1:       {4, 4},
	KindBC2:       {4, 4},
	KindBC3:       {4, 4},
	KindBC4:       {4, 4},
	KindBC5:       {4, 4},
	KindBC6H:      {4, 4},
	KindBC7:       {4, 4},
	KindASTC4x4:   {4, 4},
	KindASTC5x4:   {5, 4},
	KindASTC5x5:   {5, 5},
	KindASTC6x5:   {6, 5},
	KindASTC6x6:   {6, 6},
	KindASTC8x5:   {8, 5},
	KindASTC8x6:   {8, 6},
	KindASTC8x8:   {8, 8},
	KindASTC10x5:  {10, 5},
	KindASTC10x6:  {10, 6},
	KindASTC10x8:  {10, 8},
	KindASTC10x10: {10, 10},
	KindASTC12x10: {12, 10},
	KindASTC12x12: {12, 12},
}

// BytesPerBlock returns the size of one block (one pixel for uncompressed
// formats) in bytes.
func BytesPerBlock(f Format) (uint32, bool) {
	b, ok := bytesPerBlock[f.Kind()]
	return b, ok
}

// BitsPerBlock is BytesPerBlock in bits.
func BitsPerBlock(f Format) (uint32, bool) {
	b, ok := BytesPerBlock(f)
	return b * 8, ok
}

// BlockDims returns the block footprint in pixels. Formats without an entry
// are addressed per pixel.
func BlockDims(f Format) (width, height uint32) {
	if d, ok := blockDims[f.Kind()]; ok {
		return d[0], d[1]
	}
	return 1, 1
}

func IsASTC(f Format) bool {
	k := f.Kind()
	return k >= KindASTC4x4 && k <= KindASTC12x12
}

// IsBlockCompressed reports BC1 through BC7.
func IsBlockCompressed(f Format) bool {
	k := f.Kind()
	return k >= KindBC1 && k <= KindBC7
}

func IsCompressed(f Format) bool {
	return IsBlockCompressed(f) || IsASTC(f)
}

// Supported reports whether f is one of the formats the tool can convert.
func Supported(f Format) bool {
	_, ok := names[f]
	return ok
}

// Name returns the display name of a supported format.
func Name(f Format) (string, bool) {
	name, ok := names[f]
	return name, ok
}

var names = func() map[Format]string {
	m := map[Format]string{
		New(KindR4G4, VariantUNorm):        "R4_G4_UNORM",
		New(KindR8, VariantUNorm):          "R8_UNORM",
		New(KindR4G4B4A4, VariantUNorm):    "R4_G4_B4_A4_UNORM",
		New(KindA4B4G4R4, VariantUNorm):    "A4_B4_G4_R4_UNORM",
		New(KindR5G5B5A1, VariantUNorm):    "R5_G5_B5_A1_UNORM",
		New(KindA1B5G5R5, VariantUNorm):    "A1_B5_G5_R5_UNORM",
		New(KindR5G6B5, VariantUNorm):      "R5_G6_B5_UNORM",
		New(KindB5G6R5, VariantUNorm):      "B5_G6_R5_UNORM",
		New(KindR8G8, VariantUNorm):        "R8_G8_UNORM",
		New(KindR8G8B8A8, VariantUNorm):    "R8_G8_B8_A8_UNORM",
		New(KindR8G8B8A8, VariantSRGB):     "R8_G8_B8_A8_SRGB",
		New(KindB8G8R8A8, VariantUNorm):    "B8_G8_R8_A8_UNORM",
		New(KindB8G8R8A8, VariantSRGB):     "B8_G8_R8_A8_SRGB",
		New(KindR10G10B10A2, VariantUNorm): "R10_G10_B10_A2_UNORM",
		New(KindBC1, VariantUNorm):         "BC1_UNORM",
		New(KindBC1, VariantSRGB):          "BC1_SRGB",
		New(KindBC2, VariantUNorm):         "BC2_UNORM",
		New(KindBC2, VariantSRGB):          "BC2_SRGB",
		New(KindBC3, VariantUNorm):         "BC3_UNORM",
		New(KindBC3, VariantSRGB):          "BC3_SRGB",
		New(KindBC4, VariantUNorm):         "BC4_UNORM",
		New(KindBC4, VariantSNorm):         "BC4_SNORM",
		New(KindBC5, VariantUNorm):         "BC5_UNORM",
		New(KindBC5, VariantSNorm):         "BC5_SNORM",
		New(KindBC6H, VariantSF16):         "BC6H_SF16",
		New(KindBC6H, VariantUF16):         "BC6H_UF16",
		New(KindBC7, VariantUNorm):         "BC7_UNORM",
		New(KindBC7, VariantSRGB):          "BC7_SRGB",
		New(KindB5G5R5A1, VariantUNorm):    "B5_G5_R5_A1_UNORM",
	}
	for k := KindASTC4x4; k <= KindASTC12x12; k++ {
		d := blockDims[k]
		m[New(k, VariantUNorm)] = fmt.Sprintf("ASTC_%dx%d_UNORM", d[0], d[1])
		m[New(k, VariantSRGB)] = fmt.Sprintf("ASTC_%dx%d_SRGB", d[0], d[1])
	}
	return m
}()
