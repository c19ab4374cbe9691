package swizzle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/251)
	}
	return b
}

func TestBlockLinearAddress(t *testing.T) {
	tests := []struct {
		name       string
		x, y       int
		want       int
		blockHeigh int
	}{
		{"origin", 0, 0, 0, 1},
		{"second row", 0, 1, 16, 1},
		{"third row", 0, 2, 64, 1},
		{"second sector", 4, 0, 32, 1},
		{"second half gob", 8, 0, 256, 1},
		{"next gob across", 16, 0, 512, 1},
		{"next gob down, bh 2", 0, 8, 512, 2},
		{"next block row", 0, 16, 512 * 2 * 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 32 RGBA8 pixels wide = 2 GOBs.
			require.Equal(t, tt.want, blockLinearAddress(tt.x, tt.y, 2, 4, tt.blockHeigh))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	surfaces := []Surface{
		{Width: 64, Height: 64, BlockWidth: 4, BlockHeight: 4, BytesPerBlock: 16, BlockHeightLog2: 1},
		{Width: 37, Height: 19, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 4, BlockHeightLog2: 2},
		{Width: 100, Height: 3, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 1, BlockHeightLog2: 0},
		{Width: 30, Height: 30, BlockWidth: 5, BlockHeight: 5, BytesPerBlock: 16, BlockHeightLog2: 0},
		{Width: 10, Height: 3, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 4, Linear: true, RoundPitch: true},
		{Width: 10, Height: 3, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 4, Linear: true},
	}
	for _, s := range surfaces {
		size, err := s.LinearSize()
		require.NoError(t, err)
		linear := pattern(size)

		tiled, err := Swizzle(s, linear)
		require.NoError(t, err)
		tiledSize, err := s.TiledSize()
		require.NoError(t, err)
		require.Len(t, tiled, tiledSize)

		back, err := Deswizzle(s, tiled)
		require.NoError(t, err)
		require.Equal(t, linear, back, "%+v", s)
	}
}

func TestOversizedSurface(t *testing.T) {
	tests := []struct {
		name string
		s    Surface
	}{
		{"wide bc7", Surface{Width: 1 << 30, Height: 1 << 20, BlockWidth: 4, BlockHeight: 4, BytesPerBlock: 16}},
		{"square rgba8", Surface{Width: 1 << 30, Height: 1 << 30, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 4, BlockHeightLog2: 4}},
		{"max linear", Surface{Width: math.MaxUint32, Height: math.MaxUint32, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 16, Linear: true, RoundPitch: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.s.LinearSize()
			require.Error(t, err)
			_, err = tt.s.TiledSize()
			require.Error(t, err)
			require.NotPanics(t, func() {
				_, err := Deswizzle(tt.s, make([]byte, 16))
				require.Error(t, err)
				_, err = Swizzle(tt.s, make([]byte, 16))
				require.Error(t, err)
			})
		})
	}
}

func TestSizeDoesNotWrap(t *testing.T) {
	// 2^28 BC7 blocks wrap to zero in 32 bits.
	s := Surface{Width: 1 << 30, Height: 4, BlockWidth: 4, BlockHeight: 4, BytesPerBlock: 16, Linear: true}
	size, err := s.LinearSize()
	require.NoError(t, err)
	require.Equal(t, 1<<32, size)
	tiled, err := s.TiledSize()
	require.NoError(t, err)
	require.Equal(t, 1<<32, tiled)
}

func TestLinearPitchPadding(t *testing.T) {
	s := Surface{Width: 2, Height: 2, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 4, Linear: true, RoundPitch: true}
	tiled, err := Swizzle(s, []byte{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4})
	require.NoError(t, err)
	require.Len(t, tiled, 64)
	require.Equal(t, []byte{1, 1, 1, 1, 2, 2, 2, 2}, tiled[:8])
	require.Equal(t, make([]byte, 24), tiled[8:32])
	require.Equal(t, []byte{3, 3, 3, 3, 4, 4, 4, 4}, tiled[32:40])
}

func TestShortInputIsZeroFilled(t *testing.T) {
	s := Surface{Width: 8, Height: 8, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 4}
	out, err := Deswizzle(s, []byte{9, 9, 9, 9})
	require.NoError(t, err)
	require.Len(t, out, 8*8*4)
	require.Equal(t, []byte{9, 9, 9, 9}, out[:4])
	require.Equal(t, make([]byte, len(out)-4), out[4:])
}

func TestInvalidGeometry(t *testing.T) {
	_, err := Swizzle(Surface{Width: 4, Height: 4}, nil)
	require.Error(t, err)
	_, err = Swizzle(Surface{Width: 4, Height: 4, BlockWidth: 1, BlockHeight: 1, BytesPerBlock: 4, BlockHeightLog2: 6}, nil)
	require.Error(t, err)
}
