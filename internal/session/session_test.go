package session

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/bntx/bntxtest"
	"github.com/erinpentecost/bntxtool/internal/dds"
	"github.com/erinpentecost/bntxtool/internal/format"
	"github.com/erinpentecost/bntxtool/internal/inject"
	"github.com/erinpentecost/bntxtool/internal/logger"
	"github.com/erinpentecost/bntxtool/internal/storage"
)

var bc7 = format.New(format.KindBC7, format.VariantUNorm)

func container() []byte {
	return bntxtest.Build(binary.LittleEndian, bntxtest.NX,
		bntxtest.Laid("big", 64, 64, bc7, format.Optimal, 3, true),
		bntxtest.Laid("small", 8, 8, bc7, format.Optimal, 1, true),
	)
}

func replacement(t *testing.T, w, h uint32, levels int) []byte {
	t.Helper()
	var payload []byte
	var mip0 int
	for i := range levels {
		n, err := dds.LevelSize(bc7, w, h, i)
		require.NoError(t, err)
		if i == 0 {
			mip0 = n
		}
		payload = append(payload, bytes.Repeat([]byte{0x40 + byte(i)}, n)...)
	}
	var buf bytes.Buffer
	require.NoError(t, dds.WriteHeader(&buf, dds.HeaderParams{
		Width: w, Height: h, Format: bc7, MipCount: levels, CompSel: [4]uint8{2, 3, 4, 5}, Mip0Size: uint32(mip0),
	}))
	buf.Write(payload)
	return buf.Bytes()
}

func open(t *testing.T, codec storage.Codec) (*Session, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tex.bntx")
	require.NoError(t, storage.Save(path, container(), codec, false))
	ctx := logger.WithContext(context.Background(), logger.Discard())
	s, err := Open(ctx, path)
	require.NoError(t, err)
	return s, path
}

func TestOpen(t *testing.T) {
	s, path := open(t, storage.Raw)
	require.Equal(t, path, s.Path())
	require.Len(t, s.Textures(), 2)
	require.False(t, s.Dirty())

	tex, ok := s.Find("small")
	require.True(t, ok)
	require.Equal(t, uint32(8), tex.Width)
	i, ok := s.Index("small")
	require.True(t, ok)
	require.Equal(t, 1, i)

	allocated, slots, err := s.Original(0)
	require.NoError(t, err)
	require.Equal(t, uint32(5632), allocated)
	require.Equal(t, 3, slots)
	_, _, err = s.Original(5)
	require.ErrorIs(t, err, bntx.ErrOutOfBounds)
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bntx")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a container"), 0o644))
	_, err := Open(context.Background(), path)
	require.Error(t, err)
}

func TestInjectCommit(t *testing.T) {
	for _, codec := range []storage.Codec{storage.Raw, storage.Zstd, storage.LZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			s, path := open(t, codec)
			res, err := s.Inject(0, inject.Options{TileMode: format.Optimal, ImportMips: true}, replacement(t, 32, 32, 2))
			require.NoError(t, err)
			require.True(t, s.Dirty())
			require.Equal(t, uint32(32), res.Texture.Width)
			require.Same(t, s.Textures()[0], res.Texture)

			// The allocation does not shrink with the payload.
			allocated, slots, err := s.Original(0)
			require.NoError(t, err)
			require.Equal(t, uint32(5632), allocated)
			require.Equal(t, 3, slots)

			require.NoError(t, s.Commit(true))
			require.False(t, s.Dirty())
			_, err = os.Stat(storage.BackupPath(path))
			require.NoError(t, err)

			again, err := Open(context.Background(), path)
			require.NoError(t, err)
			require.Equal(t, codec, again.Codec())
			tex := again.Textures()[0]
			require.Equal(t, uint32(32), tex.Width)
			require.Equal(t, 2, tex.MipCount)
			require.Equal(t, res.Texture.Data, tex.Data)
			require.Equal(t, s.Textures()[1].Data, again.Textures()[1].Data)
		})
	}
}

func TestFailedInjectLeavesSession(t *testing.T) {
	s, _ := open(t, storage.Raw)
	before := bytes.Clone(s.File().Bytes())

	_, err := s.Inject(1, inject.Options{TileMode: format.Optimal}, replacement(t, 64, 64, 1))
	require.ErrorIs(t, err, bntx.ErrImageTooLarge)
	_, err = s.Inject(9, inject.Options{}, replacement(t, 8, 8, 1))
	require.ErrorIs(t, err, bntx.ErrOutOfBounds)

	require.False(t, s.Dirty())
	require.Equal(t, before, s.File().Bytes())
}

func TestSaveAsKeepsDirty(t *testing.T) {
	s, path := open(t, storage.Raw)
	_, err := s.Inject(1, inject.Options{TileMode: format.Linear}, replacement(t, 8, 8, 1))
	require.NoError(t, err)

	other := filepath.Join(filepath.Dir(path), "copy.bntx")
	require.NoError(t, s.SaveAs(other, false))
	require.True(t, s.Dirty())

	raw, err := os.ReadFile(other)
	require.NoError(t, err)
	require.Equal(t, s.File().Bytes(), raw)
}
