// Package bntxtest builds synthetic BNTX containers for tests.
package bntxtest

import (
	"encoding/binary"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/format"
	"github.com/erinpentecost/bntxtool/internal/surface"
)

// Target tags.
var (
	NX      = [4]byte{'N', 'X', ' ', ' '}
	Generic = [4]byte{'G', 'e', 'n', ' '}
)

// Texture describes one block of a synthetic container.
type Texture struct {
	Name            string
	Magic           [4]byte
	Width, Height   uint32
	Format          format.Format
	TileMode        format.TileMode
	BlockHeightLog2 uint32
	CompSel         uint32
	// Mips are offsets relative to the payload start. Empty means one level.
	Mips []uint64
	Data []byte
}

// BRTI returns a tiled texture block with block-height-log2 4 and the
// identity channel order.
func BRTI(name string, w, h uint32, f format.Format, mips []uint64, data []byte) Texture {
	return Texture{
		Name:            name,
		Magic:           bntx.TextureMagic,
		Width:           w,
		Height:          h,
		Format:          f,
		BlockHeightLog2: 4,
		CompSel:         0x05040302,
		Mips:            mips,
		Data:            data,
	}
}

// Laid returns a texture whose mip offsets and payload size come from the
// layout calculator, the way a real encoder would have produced them.
func Laid(name string, w, h uint32, f format.Format, mode format.TileMode, mips int, roundPitch bool) Texture {
	l, err := surface.ForImage(w, h, f, mode, mips, roundPitch)
	if err != nil {
		panic(err)
	}
	t := BRTI(name, w, h, f, l.Offsets(), Seq(int(l.Size)))
	t.TileMode = mode
	t.BlockHeightLog2 = l.BlockHeightLog2
	return t
}

// Other returns a non-texture block.
func Other(magic string) Texture {
	var t Texture
	copy(t.Magic[:], magic)
	return t
}

// Seq returns n bytes of a non-repeating, nonzero pattern.
func Seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i%253 + 1)
	}
	return b
}

type builder struct {
	buf   []byte
	order binary.ByteOrder
}

func (b *builder) alloc(n int) bntx.Offset {
	for len(b.buf)%16 != 0 {
		b.buf = append(b.buf, 0)
	}
	at := len(b.buf)
	b.buf = append(b.buf, make([]byte, n)...)
	return bntx.Offset(at)
}

// str stores a length-prefixed string and returns the offset of the prefix.
func (b *builder) str(s string) bntx.Offset {
	at := b.alloc(2 + len(s))
	b.order.PutUint16(b.buf[at:], uint16(len(s)))
	copy(b.buf[at+2:], s)
	return at
}

// Build assembles a container named "synthetic". Each payload is followed by
// 16 bytes of 0xee so tests can detect stray writes, and the reserved
// descriptor bytes at 10, 11 and 50 hold ab, cd and 5a.
func Build(order binary.ByteOrder, target [4]byte, textures ...Texture) []byte {
	b := &builder{order: order}
	b.alloc(bntx.HeaderSize)
	b.alloc(bntx.ContainerSize)
	fileName := b.str("synthetic") + 2
	infoPtrs := b.alloc(8 * len(textures))

	for i, tx := range textures {
		blk := b.alloc(bntx.BlockHeaderSize + bntx.DescriptorSize)
		order.PutUint64(b.buf[infoPtrs.Add(int64(i)*8):], uint64(blk))
		hdr := bntx.BlockHeader{Magic: tx.Magic, BlockSize: bntx.BlockHeaderSize + bntx.DescriptorSize}
		hdr.EncodeTo(b.buf[blk:], order)
		if tx.Magic != bntx.TextureMagic {
			continue
		}

		mips := tx.Mips
		if len(mips) == 0 {
			mips = []uint64{0}
		}
		name := b.str(tx.Name)
		ptrs := b.alloc(8 * len(mips))
		data := b.alloc(len(tx.Data))
		copy(b.buf[data:], tx.Data)
		guard := b.alloc(16)
		for j := range 16 {
			b.buf[guard.Add(int64(j))] = 0xee
		}
		for j, off := range mips {
			order.PutUint64(b.buf[ptrs.Add(int64(j)*8):], uint64(data)+off)
		}

		tiled := tx.TileMode == format.Optimal
		var layout bntx.TextureLayout
		alignment := uint32(1)
		if tiled {
			layout = bntx.NewTextureLayout(tx.BlockHeightLog2, false, false)
			alignment = 512
		}
		desc := b.buf[blk+bntx.BlockHeaderSize : blk+bntx.BlockHeaderSize+bntx.DescriptorSize]
		desc[10], desc[11] = 0xab, 0xcd
		desc[50] = 0x5a
		d := bntx.Descriptor{
			Flags:         bntx.NewFlags(tiled, false, false),
			Dim:           format.Dimension2D,
			TileMode:      uint16(tx.TileMode),
			MipCount:      uint16(len(mips)),
			SampleCount:   1,
			Format:        uint32(tx.Format),
			AccessFlags:   format.AccessFlagFresh,
			Width:         tx.Width,
			Height:        tx.Height,
			Depth:         1,
			ArrayLength:   1,
			TextureLayout: layout,
			ImageSize:     uint32(len(tx.Data)),
			Alignment:     alignment,
			CompSel:       tx.CompSel,
			Type:          format.Type2D,
			NameOffset:    name,
			PtrsOffset:    ptrs,
		}
		d.EncodeTo(desc, order)
	}

	h := bntx.Header{
		Magic:            bntx.Magic,
		Version:          0x00040000,
		BOM:              0xfeff,
		TargetAddrSize:   0x40,
		FileNameOffset:   uint32(fileName),
		FirstBlockOffset: bntx.HeaderSize + bntx.ContainerSize,
		FileSize:         uint32(len(b.buf)),
	}
	h.EncodeTo(b.buf, order)
	c := bntx.Container{
		Target:         target,
		Count:          uint32(len(textures)),
		InfoPtrsOffset: infoPtrs,
	}
	c.EncodeTo(b.buf[bntx.HeaderSize:], order)
	return b.buf
}
