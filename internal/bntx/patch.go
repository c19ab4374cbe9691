package bntx

import (
	"fmt"
)

type region struct {
	at   Offset
	data []byte
}

// Patch writes tex back over the record it was parsed from: the descriptor,
// the mip pointer table and the payload. The payload is zero padded to the
// original allocation and unused pointer slots are cleared. Nothing outside
// those three regions changes, and on error the buffer is untouched.
func (f *File) Patch(tex *Texture) error {
	if tex.Index < 0 || tex.Index >= int(f.Container.Count) {
		return fmt.Errorf("texture slot %d: %w", tex.Index, ErrOutOfBounds)
	}
	var orig *Texture
	pos := -1
	for i, t := range f.Textures {
		if t.Index == tex.Index {
			orig, pos = t, i
			break
		}
	}
	if orig == nil || orig.DescriptorOffset != tex.DescriptorOffset || orig.DataOffset != tex.DataOffset {
		return fmt.Errorf("texture %q does not belong to this file: %w", tex.Name, ErrOutOfBounds)
	}

	regions, err := patchRegions(f, orig, tex)
	if err != nil {
		return err
	}
	for _, r := range regions {
		if !r.at.Span(int64(len(r.data)), len(f.buf)) {
			return fmt.Errorf("%d bytes at %s: %w", len(r.data), r.at, ErrOutOfBounds)
		}
	}
	for _, r := range regions {
		copy(f.buf[r.at:], r.data)
	}

	next := tex.Clone()
	copy(next.raw[:], regions[0].data)
	next.Info.DecodeFrom(next.raw[:], f.Order)
	f.Textures[pos] = next
	return nil
}

func patchRegions(f *File, orig, tex *Texture) ([]region, error) {
	switch {
	case tex.ImageSize > tex.allocated:
		return nil, fmt.Errorf("texture %q: %d > %d bytes: %w", tex.Name, tex.ImageSize, tex.allocated, ErrImageTooLarge)
	case uint64(len(tex.Data)) > uint64(tex.allocated):
		return nil, fmt.Errorf("texture %q payload: %d > %d bytes: %w", tex.Name, len(tex.Data), tex.allocated, ErrImageTooLarge)
	case len(tex.MipOffsets) > tex.slots:
		return nil, fmt.Errorf("texture %q: %d mips in %d pointer slots: %w", tex.Name, len(tex.MipOffsets), tex.slots, ErrOutOfBounds)
	case tex.MipCount > tex.slots:
		return nil, fmt.Errorf("texture %q: mip count %d exceeds %d slots: %w", tex.Name, tex.MipCount, tex.slots, ErrOutOfBounds)
	}
	for i, off := range tex.MipOffsets {
		if off > uint64(tex.allocated) {
			return nil, fmt.Errorf("texture %q mip %d offset %d: %w", tex.Name, i, off, ErrOutOfBounds)
		}
	}

	desc := tex.raw
	d := tex.Descriptor()
	d.PtrsOffset = orig.Info.PtrsOffset
	d.EncodeTo(desc[:], f.Order)

	ptrs := make([]byte, tex.slots*8)
	for i, off := range tex.MipOffsets {
		f.Order.PutUint64(ptrs[i*8:], uint64(tex.DataOffset)+off)
	}

	payload := make([]byte, tex.allocated)
	copy(payload, tex.Data)

	return []region{
		{at: tex.DescriptorOffset, data: desc[:]},
		{at: orig.Info.PtrsOffset, data: ptrs},
		{at: tex.DataOffset, data: payload},
	}, nil
}
