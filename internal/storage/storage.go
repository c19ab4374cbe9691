// Package storage loads and saves whole container files, transparently
// handling zstd and LZ4-frame compressed copies.
package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/erinpentecost/bntxtool/internal/bntx"
)

// Codec is the compression wrapped around a file on disk.
type Codec int

const (
	Raw Codec = iota
	Zstd
	LZ4
)

func (c Codec) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return "raw"
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Blob is a loaded file: its decompressed bytes and how it was stored.
type Blob struct {
	Path  string
	Codec Codec
	Data  []byte
}

// Sniff reports the compression of raw by its leading magic.
func Sniff(raw []byte) Codec {
	switch {
	case bytes.HasPrefix(raw, zstdMagic):
		return Zstd
	case bytes.HasPrefix(raw, lz4Magic):
		return LZ4
	}
	return Raw
}

// Load reads the whole file at path and decompresses it if needed.
func Load(path string) (*Blob, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w: %w", path, bntx.ErrIO, err)
	}
	codec := Sniff(raw)
	data, err := Decode(raw, codec)
	if err != nil {
		return nil, fmt.Errorf("decompress %q: %w", path, err)
	}
	return &Blob{Path: path, Codec: codec, Data: data}, nil
}

// Decode undoes codec on raw.
func Decode(raw []byte, codec Codec) ([]byte, error) {
	switch codec {
	case Zstd:
		out, err := zstd.Decompress(nil, raw)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w: %w", bntx.ErrIO, err)
		}
		return out, nil
	case LZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, fmt.Errorf("lz4: %w: %w", bntx.ErrIO, err)
		}
		return out, nil
	}
	return raw, nil
}

// Encode applies codec to data.
func Encode(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case Zstd:
		out, err := zstd.CompressLevel(nil, data, zstd.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w: %w", bntx.ErrIO, err)
		}
		return out, nil
	case LZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("lz4: %w: %w", bntx.ErrIO, err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("lz4: %w: %w", bntx.ErrIO, err)
		}
		return buf.Bytes(), nil
	}
	return data, nil
}

// BackupPath is where Save copies the previous file.
func BackupPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".bak"
}

// Save compresses data with codec and replaces the file at path in a single
// rename. With backup set, the previous file is first copied to BackupPath.
func Save(path string, data []byte, codec Codec, backup bool) error {
	out, err := Encode(data, codec)
	if err != nil {
		return fmt.Errorf("compress %q: %w", path, err)
	}

	if backup {
		if err := copyFile(path, BackupPath(path)); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w: %w", path, bntx.ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write %q: %w: %w", tmp.Name(), bntx.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %q: %w: %w", tmp.Name(), bntx.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w: %w", tmp.Name(), bntx.ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %q: %w: %w", path, bntx.ErrIO, err)
	}
	return nil
}

// copyFile copies src to dst. A missing src is not an error.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %q: %w: %w", src, bntx.ErrIO, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %q: %w: %w", dst, bntx.ErrIO, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("back up %q to %q: %w: %w", src, dst, bntx.ErrIO, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %q: %w: %w", dst, bntx.ErrIO, err)
	}
	return nil
}
