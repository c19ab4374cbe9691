package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesPerBlock(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   uint32
		ok     bool
	}{
		{"bc1", New(KindBC1, VariantUNorm), 8, true},
		{"bc7 srgb", New(KindBC7, VariantSRGB), 16, true},
		{"rgba8", New(KindR8G8B8A8, VariantUNorm), 4, true},
		{"r8", New(KindR8, VariantUNorm), 1, true},
		{"astc 12x12", New(KindASTC12x12, VariantUNorm), 16, true},
		{"unknown kind", Format(0x7701), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BytesPerBlock(tt.format)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
			bits, _ := BitsPerBlock(tt.format)
			require.Equal(t, tt.want*8, bits)
		})
	}
}

func TestBlockDims(t *testing.T) {
	w, h := BlockDims(New(KindBC3, VariantUNorm))
	require.Equal(t, [2]uint32{4, 4}, [2]uint32{w, h})

	w, h = BlockDims(New(KindASTC10x6, VariantSRGB))
	require.Equal(t, [2]uint32{10, 6}, [2]uint32{w, h})

	w, h = BlockDims(New(KindR8G8B8A8, VariantUNorm))
	require.Equal(t, [2]uint32{1, 1}, [2]uint32{w, h})
}

func TestClassification(t *testing.T) {
	require.True(t, IsBlockCompressed(New(KindBC5, VariantSNorm)))
	require.False(t, IsBlockCompressed(New(KindASTC4x4, VariantUNorm)))
	require.True(t, IsASTC(New(KindASTC8x8, VariantUNorm)))
	require.False(t, IsASTC(New(KindBC7, VariantUNorm)))
	require.True(t, IsCompressed(New(KindASTC5x4, VariantUNorm)))
	require.False(t, IsCompressed(New(KindB5G5R5A1, VariantUNorm)))
}

func TestNames(t *testing.T) {
	name, ok := Name(New(KindASTC6x5, VariantSRGB))
	require.True(t, ok)
	require.Equal(t, "ASTC_6x5_SRGB", name)

	require.True(t, Supported(New(KindBC6H, VariantUF16)))
	// BC6H only exists as a float format.
	require.False(t, Supported(New(KindBC6H, VariantUNorm)))
	require.Equal(t, "0x1f01", New(KindBC6H, VariantUNorm).String())
}

func TestTileModes(t *testing.T) {
	require.True(t, IsValidTileMode(Optimal))
	require.True(t, IsValidTileMode(Linear))
	require.False(t, IsValidTileMode(TileMode(2)))

	m, err := ParseTileMode("Linear")
	require.NoError(t, err)
	require.Equal(t, Linear, m)

	_, err = ParseTileMode("swizzled")
	require.True(t, errors.Is(err, ErrUnsupportedTileMode))
}

func TestDisplayTablesFailClosed(t *testing.T) {
	require.Equal(t, "Texture", AccessFlagName(AccessFlagFresh))
	require.Equal(t, "0x21", AccessFlagName(0x21))
	require.Equal(t, "Image 2D", TypeName(Type2D))
	require.Equal(t, "Unknown", TypeName(42))
	require.Equal(t, "Alpha", ChannelName(ChannelAlpha))
}
