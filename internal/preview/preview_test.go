package preview

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/bntx/bntxtest"
	"github.com/erinpentecost/bntxtool/internal/dds"
	"github.com/erinpentecost/bntxtool/internal/format"
	"github.com/erinpentecost/bntxtool/internal/inject"
)

func pattern(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 40), uint8(y * 40), 200, 255})
		}
	}
	return img
}

func stored(t *testing.T, f format.Format, img image.Image, codec dds.Codec) *bntx.Texture {
	t.Helper()
	b := img.Bounds()
	file, err := bntx.Parse(bntxtest.Build(binary.LittleEndian, bntxtest.NX,
		bntxtest.Laid("p", uint32(b.Dx()), uint32(b.Dy()), f, format.Optimal, 1, true)))
	require.NoError(t, err)
	tex := file.Textures[0]

	src, err := dds.FromImage(img, codec, 1)
	require.NoError(t, err)
	_, err = inject.Inject(tex, inject.Options{TileMode: format.Optimal}, src)
	require.NoError(t, err)
	return tex
}

func TestRenderUncompressed(t *testing.T) {
	img := pattern(4, 4)
	tex := stored(t, format.New(format.KindR8G8B8A8, format.VariantUNorm), img, dds.Lossless)

	got, err := Render(tex)
	require.NoError(t, err)
	require.Equal(t, img.Pix, got.Pix)

	// Red reads blue, blue is forced to one.
	tex.CompSel = bntx.ChannelSelector{format.ChannelAlpha, format.ChannelOne, format.ChannelGreen, format.ChannelBlue}
	got, err = Render(tex)
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{200, 40, 255, 255}, got.NRGBAAt(1, 1))
}

func TestRenderBlockCompressed(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []byte{255, 0, 0, 255})
	}
	tex := stored(t, format.New(format.KindBC1, format.VariantUNorm), img, dds.DXT1)

	got, err := Render(tex)
	require.NoError(t, err)
	require.Equal(t, img.Pix, got.Pix)
}

func TestRenderUnsupported(t *testing.T) {
	file, err := bntx.Parse(bntxtest.Build(binary.LittleEndian, bntxtest.NX,
		bntxtest.BRTI("p", 4, 4, format.New(format.KindBC7, format.VariantUNorm), nil, bntxtest.Seq(16))))
	require.NoError(t, err)
	_, err = Render(file.Textures[0])
	require.ErrorIs(t, err, bntx.ErrUnsupportedFormat)
}

func TestChannel(t *testing.T) {
	require.Equal(t, uint8(255), channel(0xf800, 0xf800))
	require.Equal(t, uint8(0), channel(0x07ff, 0xf800))
	require.Equal(t, uint8(0x80), channel(0x8000_0000, 0xff00_0000))
	require.Equal(t, uint8(0), channel(0xffff, 0))
}

func TestScale(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		limit int
		wantW int
		wantH int
	}{
		{"wide", 100, 50, 10, 10, 5},
		{"tall", 50, 100, 10, 5, 10},
		{"already small", 8, 8, 10, 8, 8},
		{"disabled", 100, 50, 0, 100, 50},
		{"thin", 1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scale(pattern(tt.w, tt.h), tt.limit)
			require.Equal(t, tt.wantW, got.Bounds().Dx())
			require.Equal(t, tt.wantH, got.Bounds().Dy())
		})
	}
}

func TestEncode(t *testing.T) {
	img := pattern(4, 4)
	for _, kind := range []Kind{PNG, BMP, TGA} {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, kind))
			require.NotZero(t, buf.Len())
			if kind == PNG {
				back, err := png.Decode(&buf)
				require.NoError(t, err)
				require.Equal(t, img.Bounds(), back.Bounds())
			}
		})
	}
	require.Error(t, Encode(&bytes.Buffer{}, img, "jpeg"))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("TGA")
	require.NoError(t, err)
	require.Equal(t, TGA, k)
	_, err = ParseKind("gif")
	require.Error(t, err)
}
