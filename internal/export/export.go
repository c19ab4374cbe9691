// Package export converts stored textures back into standalone DDS or ASTC
// files.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/dds"
	"github.com/erinpentecost/bntxtool/internal/format"
	"github.com/erinpentecost/bntxtool/internal/surface"
	"github.com/erinpentecost/bntxtool/internal/swizzle"
)

var astcMagic = []byte{0x13, 0xab, 0xa1, 0x5c}

// Check reports why tex cannot be exported, or nil.
func Check(tex *bntx.Texture) error {
	_, err := layoutOf(tex)
	return err
}

// layoutOf lays out tex's stored mip chain and checks that each level's
// packed texels fit in the data after its offset, since tiled data is never
// smaller than packed data.
func layoutOf(tex *bntx.Texture) (surface.Layout, error) {
	switch {
	case !format.Supported(tex.Format):
		return surface.Layout{}, fmt.Errorf("%q: %s: %w", tex.Name, tex.Format, bntx.ErrUnsupportedFormat)
	case !format.IsValidTileMode(tex.TileMode):
		return surface.Layout{}, fmt.Errorf("%q: %s: %w", tex.Name, tex.TileMode, bntx.ErrUnsupportedTileMode)
	case tex.Dim != format.Dimension2D:
		return surface.Layout{}, fmt.Errorf("%q: dimension %d: %w", tex.Name, tex.Dim, bntx.ErrUnsupportedDimension)
	case tex.ArrayLength >= 2:
		return surface.Layout{}, fmt.Errorf("%q: array length %d: %w", tex.Name, tex.ArrayLength, bntx.ErrUnsupportedArrayLength)
	case len(tex.MipOffsets) == 0:
		return surface.Layout{}, fmt.Errorf("%q: no mip offsets: %w", tex.Name, bntx.ErrMalformed)
	}
	layout, err := surface.Compute(surface.Params{
		Width:           tex.Width,
		Height:          tex.Height,
		Format:          tex.Format,
		TileMode:        tex.TileMode,
		BlockHeightLog2: tex.BlockHeightLog2(),
		MipCount:        len(tex.MipOffsets),
		RoundPitch:      tex.Platform.RoundPitch(),
	})
	if err != nil {
		return surface.Layout{}, fmt.Errorf("%q: %w", tex.Name, err)
	}
	size := uint64(len(tex.Data))
	for i, mip := range layout.Mips {
		off := tex.MipOffsets[i]
		if off > size || mip.LinearSize > size-off {
			return surface.Layout{}, fmt.Errorf("%q mip %d: %dx%d needs %d bytes at %d of %d: %w",
				tex.Name, i, mip.Width, mip.Height, mip.LinearSize, off, size, bntx.ErrMalformed)
		}
	}
	return layout, nil
}

// Deswizzle returns every stored mip level as tightly packed linear data.
func Deswizzle(tex *bntx.Texture) ([][]byte, error) {
	layout, err := layoutOf(tex)
	if err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(layout.Mips))
	for i, mip := range layout.Mips {
		linear, err := swizzle.Deswizzle(swizzle.Surface{
			Width:           mip.Width,
			Height:          mip.Height,
			BlockWidth:      layout.BlockWidth,
			BlockHeight:     layout.BlockHeight,
			BytesPerBlock:   layout.BytesPerBlock,
			Linear:          tex.TileMode == format.Linear,
			RoundPitch:      tex.Platform.RoundPitch(),
			BlockHeightLog2: mip.BlockHeightLog2,
		}, tex.Data[tex.MipOffsets[i]:])
		if err != nil {
			return nil, fmt.Errorf("%q mip %d: %w", tex.Name, i, err)
		}
		out = append(out, linear[:mip.LinearSize])
	}
	return out, nil
}

// Write exports tex to w: ASTC formats as a .astc file holding the first
// level, everything else as a DDS with all levels.
func Write(w io.Writer, tex *bntx.Texture) error {
	mips, err := Deswizzle(tex)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if format.IsASTC(tex.Format) {
		bw, bh := format.BlockDims(tex.Format)
		buf.Write(astcMagic)
		buf.Write([]byte{byte(bw), byte(bh), 1})
		buf.Write(uint24(tex.Width))
		buf.Write(uint24(tex.Height))
		buf.Write([]byte{1, 0, 0})
		buf.Write(mips[0])
	} else {
		err := dds.WriteHeader(&buf, dds.HeaderParams{
			Width:    tex.Width,
			Height:   tex.Height,
			Format:   tex.Format,
			MipCount: tex.MipCount,
			CompSel:  tex.CompSel.Reverse(),
			Mip0Size: uint32(len(mips[0])),
		})
		if err != nil {
			return fmt.Errorf("%q: %w", tex.Name, err)
		}
		for _, m := range mips {
			buf.Write(m)
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write %q: %w: %w", tex.Name, bntx.ErrIO, err)
	}
	return nil
}

func uint24(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16)}
}

var unsafeName = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

// FileName is the output file name for tex.
func FileName(tex *bntx.Texture) string {
	name := unsafeName.Replace(tex.Name)
	if format.IsASTC(tex.Format) {
		return name + ".astc"
	}
	return name + ".dds"
}
