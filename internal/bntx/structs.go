package bntx

import (
	"encoding/binary"
)

// Fixed record sizes.
const (
	HeaderSize      = 32
	ContainerSize   = 56
	BlockHeaderSize = 16
	DescriptorSize  = 144

	// bomOffset is where the byte order mark sits inside the header.
	bomOffset = 0xc
)

var (
	Magic        = [8]byte{'B', 'N', 'T', 'X', 0, 0, 0, 0}
	TextureMagic = [4]byte{'B', 'R', 'T', 'I'}

	tagNX      = [4]byte{'N', 'X', ' ', ' '}
	tagGeneric = [4]byte{'G', 'e', 'n', ' '}
)

// Header is the file header at offset 0.
type Header struct {
	Magic            [8]byte
	Version          uint32
	BOM              uint16
	AlignmentShift   uint8
	TargetAddrSize   uint8
	FileNameOffset   uint32
	Flag             uint16
	FirstBlockOffset uint16
	RelocationOffset uint32
	FileSize         uint32
}

// DecodeFrom reads the header from b, which must hold HeaderSize bytes.
func (h *Header) DecodeFrom(b []byte, order binary.ByteOrder) {
	copy(h.Magic[:], b[0:8])
	h.Version = order.Uint32(b[8:12])
	h.BOM = order.Uint16(b[12:14])
	h.AlignmentShift = b[14]
	h.TargetAddrSize = b[15]
	h.FileNameOffset = order.Uint32(b[16:20])
	h.Flag = order.Uint16(b[20:22])
	h.FirstBlockOffset = order.Uint16(b[22:24])
	h.RelocationOffset = order.Uint32(b[24:28])
	h.FileSize = order.Uint32(b[28:32])
}

func (h *Header) EncodeTo(b []byte, order binary.ByteOrder) {
	copy(b[0:8], h.Magic[:])
	order.PutUint32(b[8:12], h.Version)
	order.PutUint16(b[12:14], h.BOM)
	b[14] = h.AlignmentShift
	b[15] = h.TargetAddrSize
	order.PutUint32(b[16:20], h.FileNameOffset)
	order.PutUint16(b[20:22], h.Flag)
	order.PutUint16(b[22:24], h.FirstBlockOffset)
	order.PutUint32(b[24:28], h.RelocationOffset)
	order.PutUint32(b[28:32], h.FileSize)
}

// Container is the texture container record that follows the header.
type Container struct {
	Target            [4]byte
	Count             uint32
	InfoPtrsOffset    Offset
	DataBlockOffset   Offset
	DictOffset        Offset
	MemPoolOffset     Offset
	MemPoolPtr        Offset
	BaseMemPoolOffset uint32
}

func (c *Container) DecodeFrom(b []byte, order binary.ByteOrder) {
	copy(c.Target[:], b[0:4])
	c.Count = order.Uint32(b[4:8])
	c.InfoPtrsOffset = Offset(order.Uint64(b[8:16]))
	c.DataBlockOffset = Offset(order.Uint64(b[16:24]))
	c.DictOffset = Offset(order.Uint64(b[24:32]))
	c.MemPoolOffset = Offset(order.Uint64(b[32:40]))
	c.MemPoolPtr = Offset(order.Uint64(b[40:48]))
	c.BaseMemPoolOffset = order.Uint32(b[48:52])
}

func (c *Container) EncodeTo(b []byte, order binary.ByteOrder) {
	copy(b[0:4], c.Target[:])
	order.PutUint32(b[4:8], c.Count)
	order.PutUint64(b[8:16], uint64(c.InfoPtrsOffset))
	order.PutUint64(b[16:24], uint64(c.DataBlockOffset))
	order.PutUint64(b[24:32], uint64(c.DictOffset))
	order.PutUint64(b[32:40], uint64(c.MemPoolOffset))
	order.PutUint64(b[40:48], uint64(c.MemPoolPtr))
	order.PutUint32(b[48:52], c.BaseMemPoolOffset)
	clear(b[52:56])
}

// BlockHeader prefixes every block in the file.
type BlockHeader struct {
	Magic           [4]byte
	NextBlockOffset uint32
	BlockSize       uint32
}

func (h *BlockHeader) DecodeFrom(b []byte, order binary.ByteOrder) {
	copy(h.Magic[:], b[0:4])
	h.NextBlockOffset = order.Uint32(b[4:8])
	h.BlockSize = order.Uint32(b[8:12])
}

func (h *BlockHeader) EncodeTo(b []byte, order binary.ByteOrder) {
	copy(b[0:4], h.Magic[:])
	order.PutUint32(b[4:8], h.NextBlockOffset)
	order.PutUint32(b[8:12], h.BlockSize)
	clear(b[12:16])
}

// Descriptor is the 144 byte texture info record following a BRTI block
// header, field for field.
type Descriptor struct {
	Flags          Flags
	Dim            uint8
	TileMode       uint16
	Swizzle        uint16
	MipCount       uint16
	SampleCount    uint16
	Format         uint32
	AccessFlags    uint32
	Width          uint32
	Height         uint32
	Depth          uint32
	ArrayLength    uint32
	TextureLayout  TextureLayout
	TextureLayout2 uint32
	ImageSize      uint32
	Alignment      uint32
	CompSel        uint32
	Type           uint8

	NameOffset         Offset
	ParentOffset       Offset
	PtrsOffset         Offset
	UserDataOffset     Offset
	TexturePtr         Offset
	TextureViewPtr     Offset
	DescSlotDataOffset Offset
	UserDictOffset     Offset
}

func (d *Descriptor) DecodeFrom(b []byte, order binary.ByteOrder) {
	d.Flags = Flags(b[0])
	d.Dim = b[1]
	d.TileMode = order.Uint16(b[2:4])
	d.Swizzle = order.Uint16(b[4:6])
	d.MipCount = order.Uint16(b[6:8])
	d.SampleCount = order.Uint16(b[8:10])
	d.Format = order.Uint32(b[12:16])
	d.AccessFlags = order.Uint32(b[16:20])
	d.Width = order.Uint32(b[20:24])
	d.Height = order.Uint32(b[24:28])
	d.Depth = order.Uint32(b[28:32])
	d.ArrayLength = order.Uint32(b[32:36])
	d.TextureLayout = TextureLayout(order.Uint32(b[36:40]))
	d.TextureLayout2 = order.Uint32(b[40:44])
	d.ImageSize = order.Uint32(b[64:68])
	d.Alignment = order.Uint32(b[68:72])
	d.CompSel = order.Uint32(b[72:76])
	d.Type = b[76]

	ptrs := []*Offset{
		&d.NameOffset, &d.ParentOffset, &d.PtrsOffset, &d.UserDataOffset,
		&d.TexturePtr, &d.TextureViewPtr, &d.DescSlotDataOffset, &d.UserDictOffset,
	}
	for i, p := range ptrs {
		*p = Offset(order.Uint64(b[80+i*8:]))
	}
}

// EncodeTo writes the descriptor into b, which must hold DescriptorSize bytes.
// Reserved bytes in b are left as they are.
func (d *Descriptor) EncodeTo(b []byte, order binary.ByteOrder) {
	b[0] = byte(d.Flags)
	b[1] = d.Dim
	order.PutUint16(b[2:4], d.TileMode)
	order.PutUint16(b[4:6], d.Swizzle)
	order.PutUint16(b[6:8], d.MipCount)
	order.PutUint16(b[8:10], d.SampleCount)
	order.PutUint32(b[12:16], d.Format)
	order.PutUint32(b[16:20], d.AccessFlags)
	order.PutUint32(b[20:24], d.Width)
	order.PutUint32(b[24:28], d.Height)
	order.PutUint32(b[28:32], d.Depth)
	order.PutUint32(b[32:36], d.ArrayLength)
	order.PutUint32(b[36:40], uint32(d.TextureLayout))
	order.PutUint32(b[40:44], d.TextureLayout2)
	order.PutUint32(b[64:68], d.ImageSize)
	order.PutUint32(b[68:72], d.Alignment)
	order.PutUint32(b[72:76], d.CompSel)
	b[76] = d.Type

	ptrs := []Offset{
		d.NameOffset, d.ParentOffset, d.PtrsOffset, d.UserDataOffset,
		d.TexturePtr, d.TextureViewPtr, d.DescSlotDataOffset, d.UserDictOffset,
	}
	for i, p := range ptrs {
		order.PutUint64(b[80+i*8:], uint64(p))
	}
}
