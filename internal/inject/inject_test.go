package inject

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/bntx/bntxtest"
	"github.com/erinpentecost/bntxtool/internal/dds"
	"github.com/erinpentecost/bntxtool/internal/format"
	"github.com/erinpentecost/bntxtool/internal/swizzle"
)

var (
	bc7   = format.New(format.KindBC7, format.VariantUNorm)
	rgba8 = format.New(format.KindR8G8B8A8, format.VariantUNorm)
)

// ddsFile builds a DDS with the given number of levels filled with a
// pattern.
func ddsFile(t *testing.T, f format.Format, w, h uint32, levels int) []byte {
	t.Helper()
	var payload []byte
	var mip0 int
	for i := range levels {
		n, err := dds.LevelSize(f, w, h, i)
		require.NoError(t, err)
		if i == 0 {
			mip0 = n
		}
		payload = append(payload, bytes.Repeat([]byte{byte(0x10 + i)}, n)...)
	}
	var buf bytes.Buffer
	require.NoError(t, dds.WriteHeader(&buf, dds.HeaderParams{
		Width:    w,
		Height:   h,
		Format:   f,
		MipCount: levels,
		CompSel:  [4]uint8{2, 3, 4, 5},
		Mip0Size: uint32(mip0),
	}))
	buf.Write(payload)
	return buf.Bytes()
}

func texture(t *testing.T, tx bntxtest.Texture) *bntx.Texture {
	t.Helper()
	f, err := bntx.Parse(bntxtest.Build(binary.LittleEndian, bntxtest.NX, tx))
	require.NoError(t, err)
	require.Len(t, f.Textures, 1)
	return f.Textures[0]
}

func TestMipCount(t *testing.T) {
	tests := []struct {
		name      string
		enabled   bool
		extra     int
		original  int
		want      int
		wantClamp *MipClampWarning
	}{
		{"disabled", false, 5, 3, 1, nil},
		{"no extra", true, 0, 3, 1, nil},
		{"fits", true, 2, 3, 3, nil},
		{"fewer than original", true, 1, 3, 2, nil},
		{"clamped", true, 5, 3, 3, &MipClampWarning{Requested: 5, Allowed: 2}},
		{"single level original", true, 3, 1, 1, &MipClampWarning{Requested: 3, Allowed: 0}},
		{"single level both", true, 0, 1, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamp := MipCount(tt.enabled, tt.extra, tt.original)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantClamp, clamp)
		})
	}
}

func TestMipCountBounds(t *testing.T) {
	for original := 1; original <= 8; original++ {
		for extra := 0; extra <= 10; extra++ {
			got, clamp := MipCount(true, extra, original)
			require.GreaterOrEqual(t, got, 1)
			require.LessOrEqual(t, got, original)
			require.LessOrEqual(t, got, extra+1)
			require.Equal(t, extra > original-1, clamp != nil)
		}
	}
}

func TestInjectTiled(t *testing.T) {
	tex := texture(t, bntxtest.Laid("t", 64, 64, bc7, format.Optimal, 3, true))
	require.Equal(t, uint32(5632), tex.Allocated())
	src := ddsFile(t, bc7, 64, 64, 3)

	res, err := Inject(tex, Options{TileMode: format.Optimal, ImportMips: true}, src)
	require.NoError(t, err)
	require.Empty(t, res.Warnings)
	require.Same(t, tex, res.Texture)

	require.Equal(t, 3, tex.MipCount)
	require.Equal(t, []uint64{0, 4096, 5120}, tex.MipOffsets)
	require.Equal(t, uint32(5632), tex.ImageSize)
	require.Len(t, tex.Data, 5632)
	require.Equal(t, uint32(512), tex.Alignment)
	require.Equal(t, uint32(1), tex.BlockHeightLog2())
	require.True(t, tex.Flags.LayoutPresent())
	require.Equal(t, format.AccessFlagFresh, tex.AccessFlags)
	require.Equal(t, uint32(1), tex.ArrayLength)
	require.Equal(t, format.Type2D, tex.Type)
	require.Equal(t, bntx.ChannelSelector{5, 4, 3, 2}, tex.RawCompSel)
	require.Equal(t, bntx.ChannelSelector{5, 4, 3, 2}, tex.CompSel)

	linear, err := swizzle.Deswizzle(swizzle.Surface{
		Width: 64, Height: 64, BlockWidth: 4, BlockHeight: 4, BytesPerBlock: 16, BlockHeightLog2: 1,
	}, tex.Data[:4096])
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{0x10}, 4096), linear)
}

func TestInjectCapacity(t *testing.T) {
	src := ddsFile(t, bc7, 64, 64, 3)
	opts := Options{TileMode: format.Optimal, ImportMips: true}

	tight := texture(t, bntxtest.BRTI("t", 64, 64, bc7, []uint64{0, 4096, 5120}, bntxtest.Seq(5631)))
	before := tight.Clone()
	_, err := Inject(tight, opts, src)
	require.ErrorIs(t, err, bntx.ErrImageTooLarge)
	require.Equal(t, before, tight)

	exact := texture(t, bntxtest.BRTI("t", 64, 64, bc7, []uint64{0, 4096, 5120}, bntxtest.Seq(5632)))
	_, err = Inject(exact, opts, src)
	require.NoError(t, err)
}

func TestInjectClampsMips(t *testing.T) {
	tex := texture(t, bntxtest.Laid("t", 64, 64, bc7, format.Optimal, 2, true))
	res, err := Inject(tex, Options{TileMode: format.Optimal, ImportMips: true}, ddsFile(t, bc7, 64, 64, 3))
	require.NoError(t, err)
	require.Equal(t, []Warning{MipClampWarning{Requested: 2, Allowed: 1}}, res.Warnings)
	require.Equal(t, 2, tex.MipCount)
	require.Len(t, tex.MipOffsets, 2)
	require.Contains(t, res.Warnings[0].String(), "2 mipmaps")
}

func TestInjectWithoutMips(t *testing.T) {
	tex := texture(t, bntxtest.Laid("t", 64, 64, bc7, format.Optimal, 3, true))
	res, err := Inject(tex, Options{TileMode: format.Optimal}, ddsFile(t, bc7, 64, 64, 3))
	require.NoError(t, err)
	require.Empty(t, res.Warnings)
	require.Equal(t, 1, tex.MipCount)
	require.Equal(t, []uint64{0}, tex.MipOffsets)
	require.Equal(t, uint32(4096), tex.ImageSize)
}

func TestInjectLinear(t *testing.T) {
	tex := texture(t, bntxtest.Laid("t", 10, 3, rgba8, format.Optimal, 2, true))
	img := image.NewRGBA(image.Rect(0, 0, 10, 3))
	for i := range img.Pix {
		img.Pix[i] = byte(i + 1)
	}
	src, err := dds.FromImage(img, dds.Lossless, 2)
	require.NoError(t, err)

	_, err = Inject(tex, Options{TileMode: format.Linear, ImportMips: true, SparseBinding: true}, src)
	require.NoError(t, err)
	require.Equal(t, format.Linear, tex.TileMode)
	require.Equal(t, []uint64{0, 192}, tex.MipOffsets)
	require.Equal(t, uint32(224), tex.ImageSize)
	require.Equal(t, uint32(1), tex.Alignment)
	require.False(t, tex.Flags.LayoutPresent())
	require.True(t, tex.Flags.SparseBinding())
	require.Equal(t, bntx.TextureLayout(0), tex.Layout)

	// Rows are padded to a 32 byte pitch.
	require.Equal(t, img.Pix[:40], tex.Data[:40])
	require.Equal(t, make([]byte, 24), tex.Data[40:64])
	require.Equal(t, img.Pix[40:80], tex.Data[64:104])
}

func TestInjectSparseLayout(t *testing.T) {
	tex := texture(t, bntxtest.Laid("t", 64, 64, bc7, format.Optimal, 1, true))
	_, err := Inject(tex, Options{TileMode: format.Optimal, SparseResidency: true}, ddsFile(t, bc7, 64, 64, 1))
	require.NoError(t, err)
	require.True(t, tex.Layout.SparseResidency())
	require.False(t, tex.Layout.SparseBinding())
	require.True(t, tex.Flags.SparseResidency())
	require.Equal(t, uint32(1), tex.BlockHeightLog2())
}

func TestInjectRejects(t *testing.T) {
	tex := texture(t, bntxtest.Laid("t", 64, 64, bc7, format.Optimal, 1, true))
	before := tex.Clone()

	_, err := Inject(tex, Options{}, []byte("not a dds file at all"))
	require.ErrorIs(t, err, bntx.ErrUnsupportedFormat)

	_, err = Inject(tex, Options{TileMode: 7}, ddsFile(t, bc7, 64, 64, 1))
	require.ErrorIs(t, err, bntx.ErrUnsupportedTileMode)

	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	img.Set(0, 0, color.White)
	big, err := dds.FromImage(img, dds.DXT5, 1)
	require.NoError(t, err)
	_, err = Inject(tex, Options{TileMode: format.Optimal}, big)
	require.ErrorIs(t, err, bntx.ErrImageTooLarge)

	require.Equal(t, before, tex)
}
