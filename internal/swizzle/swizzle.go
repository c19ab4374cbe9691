// Package swizzle converts between linear texel data and the Tegra X1
// surface layouts: pitch-linear and block-linear (GOB tiled).
package swizzle

import (
	"fmt"
	"math/bits"
)

// Surface describes the texel grid to convert.
type Surface struct {
	Width, Height uint32
	// BlockWidth and BlockHeight are the format's block footprint in pixels.
	BlockWidth, BlockHeight uint32
	BytesPerBlock           uint32
	// Linear selects pitch-linear addressing instead of block-linear.
	Linear bool
	// RoundPitch aligns linear pitches to 32 bytes (NX target).
	RoundPitch bool
	// BlockHeightLog2 is the number of GOBs per block, log2. Block-linear only.
	BlockHeightLog2 uint32
}

const (
	maxBlockHeightLog2 = 5
	// maxSize bounds either form of a surface. A 16384x16384 RGBA32F level
	// is the largest the hardware addresses.
	maxSize = 1 << 32
)

func divRoundUp(n, d uint64) uint64 { return (n + d - 1) / d }

func roundUp(n, align uint64) uint64 { return (n + align - 1) / align * align }

// size multiplies out a byte count, failing instead of wrapping.
func size(factors ...uint64) (int, error) {
	total := uint64(1)
	for _, f := range factors {
		hi, lo := bits.Mul64(total, f)
		if hi != 0 || lo > maxSize {
			return 0, fmt.Errorf("swizzle: surface larger than %d bytes", uint64(maxSize))
		}
		total = lo
	}
	return int(total), nil
}

func (s Surface) grid() (cols, rows uint64, err error) {
	if s.BlockWidth == 0 || s.BlockHeight == 0 || s.BytesPerBlock == 0 {
		return 0, 0, fmt.Errorf("swizzle: invalid block geometry %dx%d/%d", s.BlockWidth, s.BlockHeight, s.BytesPerBlock)
	}
	if !s.Linear && s.BlockHeightLog2 > maxBlockHeightLog2 {
		return 0, 0, fmt.Errorf("swizzle: block height log2 %d out of range", s.BlockHeightLog2)
	}
	return divRoundUp(uint64(s.Width), uint64(s.BlockWidth)), divRoundUp(uint64(s.Height), uint64(s.BlockHeight)), nil
}

// pitch is the byte width of one block row in the surface's GPU layout.
func (s Surface) pitch(cols uint64) uint64 {
	p := cols * uint64(s.BytesPerBlock)
	switch {
	case !s.Linear:
		return roundUp(p, 64)
	case s.RoundPitch:
		return roundUp(p, 32)
	}
	return p
}

// TiledSize is the byte size of the surface in its GPU layout.
func (s Surface) TiledSize() (int, error) {
	cols, rows, err := s.grid()
	if err != nil {
		return 0, err
	}
	if s.Linear {
		return size(s.pitch(cols), rows)
	}
	blockHeight := uint64(1) << s.BlockHeightLog2
	return size(s.pitch(cols), roundUp(rows, blockHeight*8))
}

// LinearSize is the byte size of tightly packed texel data.
func (s Surface) LinearSize() (int, error) {
	cols, rows, err := s.grid()
	if err != nil {
		return 0, err
	}
	return size(cols, rows, uint64(s.BytesPerBlock))
}

// Swizzle lays out linear data in the surface's GPU layout. Missing input
// blocks are left zero.
func Swizzle(s Surface, linear []byte) ([]byte, error) {
	return convert(s, linear, true)
}

// Deswizzle is the inverse of Swizzle. Blocks beyond the end of tiled are
// left zero.
func Deswizzle(s Surface, tiled []byte) ([]byte, error) {
	return convert(s, tiled, false)
}

func convert(s Surface, in []byte, toTiled bool) ([]byte, error) {
	cols, rows, err := s.grid()
	if err != nil {
		return nil, err
	}
	tiledSize, err := s.TiledSize()
	if err != nil {
		return nil, err
	}
	linearSize, err := s.LinearSize()
	if err != nil {
		return nil, err
	}

	var out []byte
	if toTiled {
		out = make([]byte, tiledSize)
	} else {
		out = make([]byte, linearSize)
	}

	bpp := int(s.BytesPerBlock)
	pitch := int(s.pitch(cols))
	blockHeight := 1 << s.BlockHeightLog2
	widthInGobs := pitch / 64

	for y := 0; y < int(rows); y++ {
		for x := 0; x < int(cols); x++ {
			var pos int
			if s.Linear {
				pos = y*pitch + x*bpp
			} else {
				pos = blockLinearAddress(x, y, widthInGobs, bpp, blockHeight)
			}
			pos2 := (y*int(cols) + x) * bpp
			if pos+bpp > tiledSize {
				continue
			}
			if toTiled {
				if pos2+bpp <= len(in) {
					copy(out[pos:pos+bpp], in[pos2:pos2+bpp])
				}
			} else if pos+bpp <= len(in) {
				copy(out[pos2:pos2+bpp], in[pos:pos+bpp])
			}
		}
	}
	return out, nil
}

// blockLinearAddress maps block (x, y) to its byte offset. A GOB is 64 bytes
// by 8 rows (512 bytes); blockHeight GOBs are stacked vertically per block.
func blockLinearAddress(x, y, widthInGobs, bpp, blockHeight int) int {
	xb := x * bpp
	gob := (y/(8*blockHeight))*512*blockHeight*widthInGobs +
		(xb/64)*512*blockHeight +
		(y%(8*blockHeight)/8)*512
	return gob +
		((xb%64)/32)*256 +
		((y%8)/2)*64 +
		((xb%32)/16)*32 +
		(y%2)*16 +
		xb%16
}
