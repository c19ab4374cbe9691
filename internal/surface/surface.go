// Package surface computes the memory layout of a Tegra X1 texture surface:
// per-mip pitch and padding, the block-height heuristic used by block-linear
// tiling, and the resulting allocation size and offsets.
package surface

import (
	"fmt"
	"math/bits"

	"github.com/erinpentecost/bntxtool/internal/format"
)

const (
	// gobHeight is the number of rows in one GOB.
	gobHeight = 8
	// gobWidth is the byte width of one GOB and the block-linear pitch alignment.
	gobWidth = 64
	// linearPitchAlign applies to linear surfaces on the NX target.
	linearPitchAlign = 32
	// maxBlockHeight caps the number of GOBs per block.
	maxBlockHeight = 16

	// TiledAlignment separates mips of a block-linear surface.
	TiledAlignment = 512
	// LinearAlignment separates mips of a linear surface.
	LinearAlignment = 1
)

// Params describes the surface to lay out.
type Params struct {
	Width, Height uint32
	Format        format.Format
	TileMode      format.TileMode
	// BlockHeightLog2 is ignored for linear surfaces.
	BlockHeightLog2 uint32
	MipCount        int
	// RoundPitch aligns linear pitches to 32 bytes, as the NX target does.
	RoundPitch bool
}

// Mip is the placement of one mip level inside the allocation.
type Mip struct {
	Level                int
	Width, Height        uint32
	BlockCols, BlockRows uint32
	// Pad is the alignment padding inserted before this level.
	Pad    uint64
	Offset uint64
	// Size is the padded, tiled size of the level.
	Size uint64
	// LinearSize is the tightly packed size of the level.
	LinearSize uint64
	// BlockHeightLog2 is the effective value to swizzle this level with.
	BlockHeightLog2 uint32
}

// Layout is the full mip chain placement.
type Layout struct {
	Mips            []Mip
	Size            uint64
	Alignment       uint64
	BlockHeightLog2 uint32
	BytesPerBlock   uint32
	BlockWidth      uint32
	BlockHeight     uint32
}

// Offsets returns the per-mip offset table.
func (l Layout) Offsets() []uint64 {
	out := make([]uint64, len(l.Mips))
	for i, m := range l.Mips {
		out[i] = m.Offset
	}
	return out
}

// Compute lays out p.MipCount levels. It is deterministic: identical params
// always yield identical layouts.
func Compute(p Params) (Layout, error) {
	bpp, ok := format.BytesPerBlock(p.Format)
	if !ok {
		return Layout{}, fmt.Errorf("layout %s: %w", p.Format, format.ErrUnsupportedFormat)
	}
	if !format.IsValidTileMode(p.TileMode) {
		return Layout{}, fmt.Errorf("layout %s: %w", p.TileMode, format.ErrUnsupportedTileMode)
	}
	if p.Width == 0 || p.Height == 0 {
		return Layout{}, fmt.Errorf("layout %dx%d: empty surface", p.Width, p.Height)
	}
	blkWidth, blkHeight := format.BlockDims(p.Format)
	mipCount := max(1, p.MipCount)

	tiled := p.TileMode == format.Optimal
	layout := Layout{
		Mips:          make([]Mip, 0, mipCount),
		Alignment:     LinearAlignment,
		BytesPerBlock: bpp,
		BlockWidth:    blkWidth,
		BlockHeight:   blkHeight,
	}

	var blockHeight, linesPerBlockHeight uint32 = 1, 1
	if tiled {
		layout.Alignment = TiledAlignment
		layout.BlockHeightLog2 = p.BlockHeightLog2
		blockHeight = 1 << p.BlockHeightLog2
		linesPerBlockHeight = blockHeight * gobHeight
	}

	var total uint64
	blockHeightShift := uint32(0)
	for level := range mipCount {
		width := max(1, p.Width>>level)
		height := max(1, p.Height>>level)
		cols := DivRoundUp(width, blkWidth)
		rows := DivRoundUp(height, blkHeight)

		pad := RoundUp(total, layout.Alignment) - total
		total += pad

		mip := Mip{
			Level:      level,
			Width:      width,
			Height:     height,
			BlockCols:  cols,
			BlockRows:  rows,
			Pad:        pad,
			Offset:     total,
			LinearSize: uint64(cols) * uint64(rows) * uint64(bpp),
		}

		if tiled {
			if Pow2RoundUp(rows) < linesPerBlockHeight {
				blockHeightShift++
			}
			pitch := RoundUp(uint64(cols)*uint64(bpp), gobWidth)
			gobs := max(1, blockHeight>>blockHeightShift) * gobHeight
			mip.Size = pitch * RoundUp(uint64(rows), uint64(gobs))
			if p.BlockHeightLog2 > blockHeightShift {
				mip.BlockHeightLog2 = p.BlockHeightLog2 - blockHeightShift
			}
		} else {
			pitch := uint64(cols) * uint64(bpp)
			if p.RoundPitch {
				pitch = RoundUp(pitch, linearPitchAlign)
			}
			mip.Size = pitch * uint64(rows)
		}

		total += mip.Size
		layout.Mips = append(layout.Mips, mip)
	}
	layout.Size = total
	return layout, nil
}

// ForImage lays out a freshly authored surface, deriving the block height from
// the block-row count of the full resolution level.
func ForImage(width, height uint32, f format.Format, mode format.TileMode, mipCount int, roundPitch bool) (Layout, error) {
	p := Params{
		Width:      width,
		Height:     height,
		Format:     f,
		TileMode:   mode,
		MipCount:   mipCount,
		RoundPitch: roundPitch,
	}
	if mode == format.Optimal {
		_, blkHeight := format.BlockDims(f)
		p.BlockHeightLog2 = Log2(BlockHeight(DivRoundUp(height, blkHeight)))
	}
	return Compute(p)
}

// BlockHeight picks the number of GOBs per block for a surface with the given
// number of block rows.
func BlockHeight(blockRows uint32) uint32 {
	return min(maxBlockHeight, max(1, Pow2RoundUp(blockRows/gobHeight)))
}

// Log2 of a power of two.
func Log2(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return uint32(bits.Len32(v) - 1)
}

func DivRoundUp(n, d uint32) uint32 {
	return uint32((uint64(n) + uint64(d) - 1) / uint64(d))
}

// RoundUp rounds n up to a multiple of align.
func RoundUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// Pow2RoundUp returns the smallest power of two >= v, and 0 for 0.
func Pow2RoundUp(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return 1 << bits.Len32(v-1)
}
