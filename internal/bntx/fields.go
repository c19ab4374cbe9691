package bntx

import "fmt"

// Offset is an absolute position in the file buffer. Every pointer stored in
// a BNTX file is one of these.
type Offset int64

func (o Offset) Add(n int64) Offset { return o + Offset(n) }

// Span reports whether [o, o+n) lies inside a buffer of length size.
func (o Offset) Span(n int64, size int) bool {
	return o >= 0 && n >= 0 && n <= int64(size) && int64(o) <= int64(size)-n
}

func (o Offset) String() string { return fmt.Sprintf("0x%x", int64(o)) }

// Flags is the packed flag byte of a texture descriptor. Bits this tool does
// not know about are carried through unchanged.
type Flags uint8

const (
	flagLayoutPresent   Flags = 1 << 0
	flagSparseBinding   Flags = 1 << 1
	flagSparseResidency Flags = 1 << 2
)

func NewFlags(layoutPresent, sparseBinding, sparseResidency bool) Flags {
	var f Flags
	return f.with(flagLayoutPresent, layoutPresent).
		with(flagSparseBinding, sparseBinding).
		with(flagSparseResidency, sparseResidency)
}

func (f Flags) with(bit Flags, on bool) Flags {
	if on {
		return f | bit
	}
	return f &^ bit
}

func (f Flags) LayoutPresent() bool   { return f&flagLayoutPresent != 0 }
func (f Flags) SparseBinding() bool   { return f&flagSparseBinding != 0 }
func (f Flags) SparseResidency() bool { return f&flagSparseResidency != 0 }

// TextureLayout is the packed layout word: block-height-log2 in bits 0-2,
// sparse binding in bit 4 and sparse residency in bit 5.
type TextureLayout uint32

const (
	layoutBlockHeightMask TextureLayout = 0x7
	layoutSparseBinding   TextureLayout = 1 << 4
	layoutSparseResidency TextureLayout = 1 << 5
)

func NewTextureLayout(blockHeightLog2 uint32, sparseBinding, sparseResidency bool) TextureLayout {
	l := TextureLayout(blockHeightLog2) & layoutBlockHeightMask
	if sparseBinding {
		l |= layoutSparseBinding
	}
	if sparseResidency {
		l |= layoutSparseResidency
	}
	return l
}

func (l TextureLayout) BlockHeightLog2() uint32 { return uint32(l & layoutBlockHeightMask) }
func (l TextureLayout) SparseBinding() bool     { return l&layoutSparseBinding != 0 }
func (l TextureLayout) SparseResidency() bool   { return l&layoutSparseResidency != 0 }

// ChannelSelector holds four component selectors, index 0 being the most
// significant byte of the stored word.
type ChannelSelector [4]uint8

func UnpackChannelSelector(word uint32) ChannelSelector {
	return ChannelSelector{
		uint8(word >> 24),
		uint8(word >> 16),
		uint8(word >> 8),
		uint8(word),
	}
}

func (c ChannelSelector) Pack() uint32 {
	return uint32(c[0])<<24 | uint32(c[1])<<16 | uint32(c[2])<<8 | uint32(c[3])
}

// Resolve replaces each zero selector with the identity channel for its
// position, so a zero word reads as the default alpha, blue, green, red order.
func (c ChannelSelector) Resolve() ChannelSelector {
	out := c
	for i, v := range c {
		if v == 0 {
			out[i] = uint8(5 - i)
		}
	}
	return out
}

// Reverse flips the order, converting between the container's convention
// and the red-first convention used by DDS.
func (c ChannelSelector) Reverse() ChannelSelector {
	return ChannelSelector{c[3], c[2], c[1], c[0]}
}
