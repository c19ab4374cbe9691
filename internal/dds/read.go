package dds

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/erinpentecost/bntxtool/internal/format"
)

// Surface is a decoded DDS file.
type Surface struct {
	Width, Height uint32
	Format        format.Format
	// CompSel lists the stored channel feeding each of the R, G, B and A
	// outputs (0 Zero, 1 One, 2 Red .. 5 Alpha).
	CompSel [4]uint8
	// MipCount counts the levels after the first, so a plain image has 0.
	MipCount int
	// Data holds every level back to back, tightly packed.
	Data []byte

	offsets []int
}

// Levels is the total number of levels, MipCount+1.
func (s *Surface) Levels() int { return s.MipCount + 1 }

// Mip returns the bytes of level i.
func (s *Surface) Mip(i int) ([]byte, error) {
	if i < 0 || i > s.MipCount {
		return nil, fmt.Errorf("dds mip %d of %d", i, s.Levels())
	}
	return s.Data[s.offsets[i]:s.offsets[i+1]], nil
}

var identity = [4]uint8{format.ChannelRed, format.ChannelGreen, format.ChannelBlue, format.ChannelAlpha}

// Read decodes a DDS file. When srgb is set, formats with an sRGB variant
// are reported as such.
func Read(raw []byte, srgb bool) (*Surface, error) {
	if len(raw) < dataLegacy || string(raw[:4]) != magic {
		return nil, fmt.Errorf("dds: %w", ErrInvalidHeader)
	}
	le := binary.LittleEndian
	s := &Surface{
		Width:  le.Uint32(raw[offWidth:]),
		Height: le.Uint32(raw[offHeight:]),
	}
	if s.Width == 0 || s.Height == 0 {
		return nil, fmt.Errorf("dds: %dx%d: %w", s.Width, s.Height, ErrInvalidHeader)
	}
	if le.Uint32(raw[offCaps:])&capsMipMap != 0 {
		s.MipCount = max(0, int(le.Uint32(raw[offMipCount:]))-1)
	}
	if limit := bits.Len32(max(s.Width, s.Height)); s.MipCount >= limit {
		return nil, fmt.Errorf("dds: %d levels for %dx%d: %w", s.Levels(), s.Width, s.Height, ErrInvalidHeader)
	}

	pfFlags := le.Uint32(raw[offPfFlags:])
	var code fourCC
	copy(code[:], raw[offFourCC:])
	data := raw[dataLegacy:]

	switch {
	case pfFlags&ddpfFourCC != 0 && code == dx10FourCC:
		if len(raw) < dataExtended {
			return nil, fmt.Errorf("dds: dx10 extension: %w", ErrInvalidHeader)
		}
		dxgi := le.Uint32(raw[offDXGI:])
		f, ok := dxgiFormats[dxgi]
		if !ok {
			return nil, fmt.Errorf("dds: dxgi format %d: %w", dxgi, format.ErrUnsupportedFormat)
		}
		s.Format = f
		s.CompSel = identity
		data = raw[dataExtended:]
	case pfFlags&ddpfFourCC != 0:
		f, ok := fromFourCC(code)
		if !ok {
			return nil, fmt.Errorf("dds: fourcc %q: %w", code[:], format.ErrUnsupportedFormat)
		}
		s.Format = f
		s.CompSel = identity
	default:
		var masks [4]uint32
		for i := range masks {
			masks[i] = le.Uint32(raw[offMasks+4*i:])
		}
		if pfFlags&ddpfLuminance != 0 {
			masks[1], masks[2] = masks[0], masks[0]
		}
		kind, sel, ok := matchMasks(le.Uint32(raw[offBitCount:]), masks)
		if !ok {
			return nil, fmt.Errorf("dds: masks %08x: %w", masks, format.ErrUnsupportedFormat)
		}
		s.Format = format.New(kind, format.VariantUNorm)
		s.CompSel = sel
	}

	if srgb && !s.Format.IsSRGB() {
		if f := format.New(s.Format.Kind(), format.VariantSRGB); format.Supported(f) {
			s.Format = f
		}
	}

	if err := s.index(data); err != nil {
		return nil, err
	}
	return s, nil
}

func fromFourCC(code fourCC) (format.Format, bool) {
	for _, c := range legacyCodes {
		if c.code == code {
			v := format.VariantUNorm
			if c.signed {
				v = format.VariantSNorm
			}
			return format.New(c.kind, v), true
		}
	}
	return 0, false
}

// matchMasks finds the uncompressed kind whose channels cover every nonzero
// mask, preferring one where each output reads its own channel. An output
// with no mask reads One.
func matchMasks(bitCount uint32, masks [4]uint32) (uint8, [4]uint8, bool) {
	var (
		first    uint8
		firstSel [4]uint8
		found    bool
	)
	if masks == [4]uint32{} {
		return 0, firstSel, false
	}
	for _, u := range uncompressed {
		if u.bpp*8 != bitCount {
			continue
		}
		sel, ok := selectors(u.channelMasks, masks)
		if !ok {
			continue
		}
		if sel == identity || (u.luminance && !found) {
			return u.kind, sel, true
		}
		if !found {
			first, firstSel, found = u.kind, sel, true
		}
	}
	return first, firstSel, found
}

func selectors(cm channelMasks, masks [4]uint32) ([4]uint8, bool) {
	var sel [4]uint8
	for i, m := range masks {
		if m == 0 {
			sel[i] = format.ChannelOne
			continue
		}
		ch := -1
		for c := format.ChannelRed; c <= format.ChannelAlpha; c++ {
			if cm.masks[c] == m {
				ch = int(c)
				break
			}
		}
		if ch < 0 {
			return sel, false
		}
		sel[i] = uint8(ch)
	}
	return sel, true
}

// LevelSize is the packed byte size of level i of a w x h surface.
func LevelSize(f format.Format, w, h uint32, i int) (int, error) {
	bpp, ok := format.BytesPerBlock(f)
	if !ok {
		return 0, fmt.Errorf("level size of %s: %w", f, format.ErrUnsupportedFormat)
	}
	bw, bh := format.BlockDims(f)
	mw := max(1, w>>i)
	mh := max(1, h>>i)
	return int((mw+bw-1)/bw) * int((mh+bh-1)/bh) * int(bpp), nil
}

func (s *Surface) index(data []byte) error {
	s.offsets = make([]int, s.Levels()+1)
	for i := range s.Levels() {
		n, err := LevelSize(s.Format, s.Width, s.Height, i)
		if err != nil {
			return err
		}
		s.offsets[i+1] = s.offsets[i] + n
	}
	total := s.offsets[s.Levels()]
	if len(data) < total {
		return fmt.Errorf("dds: %d of %d bytes: %w", len(data), total, ErrShortData)
	}
	s.Data = data[:total]
	return nil
}
