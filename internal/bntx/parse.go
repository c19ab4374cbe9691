// Package bntx reads and patches Nintendo Switch BNTX texture containers.
//
// A File owns the raw buffer it was parsed from. Parsing never modifies the
// buffer; Patch rewrites one texture's descriptor, mip pointer table and
// payload in place without moving anything else.
package bntx

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/erinpentecost/bntxtool/internal/format"
)

// Platform is the container's target tag.
type Platform uint8

const (
	PlatformGeneric Platform = iota
	PlatformNX
)

func (p Platform) String() string {
	if p == PlatformNX {
		return "NX"
	}
	return "Gen"
}

// RoundPitch reports whether linear pitches are aligned to 32 bytes.
func (p Platform) RoundPitch() bool { return p == PlatformNX }

// File is a parsed container.
type File struct {
	Name      string
	Platform  Platform
	Order     binary.ByteOrder
	Header    Header
	Container Container
	Textures  []*Texture
	// Skipped lists pointer table slots whose block was not a texture.
	Skipped []int

	buf []byte
}

// Bytes returns the underlying buffer, including any patches applied.
func (f *File) Bytes() []byte { return f.buf }

// Texture looks up a texture by name.
func (f *File) Texture(name string) (*Texture, bool) {
	for _, t := range f.Textures {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Texture is one decoded texture record.
type Texture struct {
	// Index is the texture's slot in the container pointer table.
	Index            int
	Name             string
	Platform         Platform
	DescriptorOffset Offset
	Info             Descriptor
	raw              [DescriptorSize]byte

	Flags       Flags
	Dim         uint8
	TileMode    format.TileMode
	MipCount    int
	Width       uint32
	Height      uint32
	Format      format.Format
	AccessFlags uint32
	ArrayLength uint32
	Layout      TextureLayout
	ImageSize   uint32
	Alignment   uint32
	// RawCompSel is the selector word as stored; CompSel has zeros resolved.
	RawCompSel ChannelSelector
	CompSel    ChannelSelector
	Type       uint8

	// MipOffsets are relative to DataOffset. MipOffsets[0] is always 0.
	MipOffsets []uint64
	DataOffset Offset
	Data       []byte

	// allocated and slots describe the space the record owned when parsed.
	allocated uint32
	slots     int
}

// Allocated is the payload size reserved for this texture in the file.
func (t *Texture) Allocated() uint32 { return t.allocated }

// MipSlots is the number of entries in the file's mip pointer table.
func (t *Texture) MipSlots() int { return t.slots }

func (t *Texture) BlockHeightLog2() uint32 { return t.Layout.BlockHeightLog2() }

func (t *Texture) SparseBinding() bool   { return t.Layout.SparseBinding() }
func (t *Texture) SparseResidency() bool { return t.Layout.SparseResidency() }

// Descriptor rebuilds the on-disk descriptor from the texture's fields,
// keeping everything the tool does not model from the parsed record.
func (t *Texture) Descriptor() Descriptor {
	d := t.Info
	d.Flags = t.Flags
	d.Dim = t.Dim
	d.TileMode = uint16(t.TileMode)
	d.MipCount = uint16(t.MipCount)
	d.Width = t.Width
	d.Height = t.Height
	d.Format = uint32(t.Format)
	d.AccessFlags = t.AccessFlags
	d.ArrayLength = t.ArrayLength
	d.TextureLayout = t.Layout
	d.ImageSize = t.ImageSize
	d.Alignment = t.Alignment
	d.CompSel = t.RawCompSel.Pack()
	d.Type = t.Type
	return d
}

// Clone returns a deep copy.
func (t *Texture) Clone() *Texture {
	c := *t
	c.MipOffsets = append([]uint64(nil), t.MipOffsets...)
	c.Data = append([]byte(nil), t.Data...)
	return &c
}

// MipData returns the stored bytes of mip level i, bounded by the next
// level's offset or the end of the payload.
func (t *Texture) MipData(i int) ([]byte, error) {
	if i < 0 || i >= len(t.MipOffsets) {
		return nil, fmt.Errorf("texture %q has no mip %d", t.Name, i)
	}
	start := t.MipOffsets[i]
	end := uint64(len(t.Data))
	if i+1 < len(t.MipOffsets) {
		end = t.MipOffsets[i+1]
	}
	if start > end || end > uint64(len(t.Data)) {
		return nil, fmt.Errorf("texture %q mip %d: %w", t.Name, i, ErrMalformed)
	}
	return t.Data[start:end], nil
}

type reader struct {
	buf   []byte
	order binary.ByteOrder
}

func (r reader) span(off Offset, n int64) ([]byte, error) {
	if !off.Span(n, len(r.buf)) {
		return nil, fmt.Errorf("%d bytes at %s: %w", n, off, ErrTruncated)
	}
	return r.buf[off : int64(off)+n], nil
}

func (r reader) u16(off Offset) (uint16, error) {
	b, err := r.span(off, 2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r reader) u64(off Offset) (Offset, error) {
	b, err := r.span(off, 8)
	if err != nil {
		return 0, err
	}
	return Offset(r.order.Uint64(b)), nil
}

func (r reader) str(lenAt, at Offset) (string, error) {
	n, err := r.u16(lenAt)
	if err != nil {
		return "", err
	}
	b, err := r.span(at, int64(n))
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

// ByteOrder inspects the byte order mark of a container.
func ByteOrder(buf []byte) (binary.ByteOrder, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("header: %w", ErrTruncated)
	}
	switch {
	case buf[bomOffset] == 0xff && buf[bomOffset+1] == 0xfe:
		return binary.LittleEndian, nil
	case buf[bomOffset] == 0xfe && buf[bomOffset+1] == 0xff:
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("% x: %w", buf[bomOffset:bomOffset+2], ErrInvalidByteOrder)
}

// Parse decodes the container in buf. The returned File keeps buf.
func Parse(buf []byte) (*File, error) {
	order, err := ByteOrder(buf)
	if err != nil {
		return nil, err
	}
	r := reader{buf: buf, order: order}
	f := &File{Order: order, buf: buf}

	f.Header.DecodeFrom(buf[:HeaderSize], order)
	if f.Header.Magic != Magic {
		return nil, fmt.Errorf("%q: %w", f.Header.Magic[:], ErrInvalidMagic)
	}
	if f.Header.FileNameOffset < 2 {
		return nil, fmt.Errorf("file name offset %d: %w", f.Header.FileNameOffset, ErrTruncated)
	}
	nameAt := Offset(f.Header.FileNameOffset)
	if f.Name, err = r.str(nameAt-2, nameAt); err != nil {
		return nil, fmt.Errorf("file name: %w", err)
	}

	cb, err := r.span(HeaderSize, ContainerSize)
	if err != nil {
		return nil, fmt.Errorf("container: %w", err)
	}
	f.Container.DecodeFrom(cb, order)
	switch f.Container.Target {
	case tagNX:
		f.Platform = PlatformNX
	case tagGeneric:
		f.Platform = PlatformGeneric
	default:
		return nil, fmt.Errorf("%q: %w", f.Container.Target[:], ErrUnsupportedTarget)
	}

	for i := range int(f.Container.Count) {
		ptr, err := r.u64(f.Container.InfoPtrsOffset.Add(int64(i) * 8))
		if err != nil {
			return nil, fmt.Errorf("texture pointer %d: %w", i, err)
		}
		bh, err := r.span(ptr, BlockHeaderSize)
		if err != nil {
			return nil, fmt.Errorf("texture %d block header: %w", i, err)
		}
		var hdr BlockHeader
		hdr.DecodeFrom(bh, order)
		if hdr.Magic != TextureMagic {
			f.Skipped = append(f.Skipped, i)
			continue
		}
		tex, err := parseTexture(r, ptr.Add(BlockHeaderSize))
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		tex.Index = i
		tex.Platform = f.Platform
		f.Textures = append(f.Textures, tex)
	}
	return f, nil
}

func parseTexture(r reader, at Offset) (*Texture, error) {
	db, err := r.span(at, DescriptorSize)
	if err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}
	t := &Texture{DescriptorOffset: at}
	copy(t.raw[:], db)
	t.Info.DecodeFrom(db, r.order)
	d := &t.Info

	if t.Name, err = r.str(d.NameOffset, d.NameOffset.Add(2)); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}

	t.Flags = d.Flags
	t.Dim = d.Dim
	t.TileMode = format.TileMode(d.TileMode)
	t.MipCount = int(d.MipCount)
	t.Width = d.Width
	t.Height = d.Height
	t.Format = format.Format(d.Format)
	t.AccessFlags = d.AccessFlags
	t.ArrayLength = d.ArrayLength
	t.Layout = d.TextureLayout
	t.ImageSize = d.ImageSize
	t.Alignment = d.Alignment
	t.RawCompSel = UnpackChannelSelector(d.CompSel)
	t.CompSel = t.RawCompSel.Resolve()
	t.Type = d.Type

	if t.DataOffset, err = r.u64(d.PtrsOffset); err != nil {
		return nil, fmt.Errorf("%q mip pointers: %w", t.Name, err)
	}
	t.MipOffsets = make([]uint64, max(1, t.MipCount))
	prev := t.DataOffset
	for i := 1; i < t.MipCount; i++ {
		p, err := r.u64(d.PtrsOffset.Add(int64(i) * 8))
		if err != nil {
			return nil, fmt.Errorf("%q mip pointer %d: %w", t.Name, i, err)
		}
		if p < prev {
			return nil, fmt.Errorf("%q mip %d at %s precedes %s: %w", t.Name, i, p, prev, ErrMalformed)
		}
		t.MipOffsets[i] = uint64(p - t.DataOffset)
		prev = p
	}

	data, err := r.span(t.DataOffset, int64(t.ImageSize))
	if err != nil {
		return nil, fmt.Errorf("%q image data: %w", t.Name, err)
	}
	t.Data = append([]byte(nil), data...)
	t.allocated = t.ImageSize
	t.slots = len(t.MipOffsets)
	return t, nil
}
