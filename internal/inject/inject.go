// Package inject replaces the pixel payload of a parsed texture with a DDS
// image, laying it out for the GPU within the space the texture already
// owns.
package inject

import (
	"fmt"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/dds"
	"github.com/erinpentecost/bntxtool/internal/format"
	"github.com/erinpentecost/bntxtool/internal/surface"
	"github.com/erinpentecost/bntxtool/internal/swizzle"
)

type Options struct {
	TileMode        format.TileMode
	SRGB            bool
	SparseBinding   bool
	SparseResidency bool
	// ImportMips carries the replacement's mip chain over, as far as the
	// original texture had room for.
	ImportMips bool
}

// Warning is a non-fatal condition found while injecting.
type Warning interface {
	String() string
}

// MipClampWarning reports that the replacement had more mip levels than the
// original texture can hold.
type MipClampWarning struct {
	// Requested and Allowed count levels after the first.
	Requested int
	Allowed   int
}

func (w MipClampWarning) String() string {
	return fmt.Sprintf("replacement has %d mipmaps but the original only has room for %d; extra levels were dropped", w.Requested, w.Allowed)
}

type Result struct {
	Texture  *bntx.Texture
	Warnings []Warning
}

// MipCount decides how many levels, in total, to import. requestedExtra is
// the number of levels the replacement carries after the first and
// originalTotal the number of levels the original texture had.
func MipCount(importMips bool, requestedExtra, originalTotal int) (int, *MipClampWarning) {
	if !importMips {
		return 1, nil
	}
	allowed := max(0, originalTotal-1)
	n := max(1, min(originalTotal, requestedExtra+1))
	if requestedExtra > allowed {
		return n, &MipClampWarning{Requested: requestedExtra, Allowed: allowed}
	}
	return n, nil
}

// Inject decodes image and rewrites tex to hold it. tex is only modified
// when Inject succeeds.
func Inject(tex *bntx.Texture, opts Options, image []byte) (*Result, error) {
	src, err := dds.Read(image, opts.SRGB)
	if err != nil {
		return nil, fmt.Errorf("decode replacement for %q: %w: %w", tex.Name, bntx.ErrUnsupportedFormat, err)
	}
	if _, ok := format.BytesPerBlock(src.Format); !ok {
		return nil, fmt.Errorf("inject %q: %s: %w", tex.Name, src.Format, bntx.ErrUnsupportedFormat)
	}
	if !format.IsValidTileMode(opts.TileMode) {
		return nil, fmt.Errorf("inject %q: %s: %w", tex.Name, opts.TileMode, bntx.ErrUnsupportedTileMode)
	}

	res := &Result{}
	mips, clamp := MipCount(opts.ImportMips, src.MipCount, tex.MipSlots())
	if clamp != nil {
		res.Warnings = append(res.Warnings, *clamp)
	}

	layout, err := surface.ForImage(src.Width, src.Height, src.Format, opts.TileMode, mips, tex.Platform.RoundPitch())
	if err != nil {
		return nil, fmt.Errorf("inject %q: %w", tex.Name, err)
	}
	if layout.Size > uint64(tex.Allocated()) {
		hint := ""
		if opts.TileMode == format.Optimal {
			hint = "; linear tiling may fit"
		}
		return nil, fmt.Errorf("inject %q: needs %d bytes, has %d%s: %w",
			tex.Name, layout.Size, tex.Allocated(), hint, bntx.ErrImageTooLarge)
	}

	payload, err := buildPayload(src, layout, opts.TileMode, tex.Platform.RoundPitch())
	if err != nil {
		return nil, fmt.Errorf("inject %q: %w", tex.Name, err)
	}

	next := tex.Clone()
	tiled := opts.TileMode == format.Optimal
	next.TileMode = opts.TileMode
	next.MipCount = mips
	next.MipOffsets = layout.Offsets()
	next.Width = src.Width
	next.Height = src.Height
	next.Format = src.Format
	next.AccessFlags = format.AccessFlagFresh
	next.ArrayLength = 1
	next.Dim = format.Dimension2D
	next.Type = format.Type2D
	next.ImageSize = uint32(layout.Size)
	next.Alignment = uint32(layout.Alignment)
	next.Flags = bntx.NewFlags(tiled, opts.SparseBinding, opts.SparseResidency)
	next.Layout = 0
	if tiled {
		next.Layout = bntx.NewTextureLayout(layout.BlockHeightLog2, opts.SparseBinding, opts.SparseResidency)
	}
	next.RawCompSel = bntx.ChannelSelector(src.CompSel).Reverse()
	next.CompSel = next.RawCompSel.Resolve()
	next.Data = payload

	*tex = *next
	res.Texture = tex
	return res, nil
}

func buildPayload(src *dds.Surface, layout surface.Layout, mode format.TileMode, roundPitch bool) ([]byte, error) {
	payload := make([]byte, 0, layout.Size)
	for _, mip := range layout.Mips {
		linear, err := src.Mip(mip.Level)
		if err != nil {
			return nil, err
		}
		tiled, err := swizzle.Swizzle(swizzle.Surface{
			Width:           mip.Width,
			Height:          mip.Height,
			BlockWidth:      layout.BlockWidth,
			BlockHeight:     layout.BlockHeight,
			BytesPerBlock:   layout.BytesPerBlock,
			Linear:          mode == format.Linear,
			RoundPitch:      roundPitch,
			BlockHeightLog2: mip.BlockHeightLog2,
		}, linear)
		if err != nil {
			return nil, fmt.Errorf("swizzle mip %d: %w", mip.Level, err)
		}
		if uint64(len(tiled)) != mip.Size {
			return nil, fmt.Errorf("swizzle mip %d: %d bytes, layout expects %d", mip.Level, len(tiled), mip.Size)
		}
		payload = append(payload, make([]byte, mip.Pad)...)
		payload = append(payload, tiled...)
	}
	return payload, nil
}
