// Package session ties one container file on disk to its in-memory buffer.
// A session is the only writer of that buffer; it is not safe for
// concurrent use.
package session

import (
	"context"
	"fmt"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/inject"
	"github.com/erinpentecost/bntxtool/internal/logger"
	"github.com/erinpentecost/bntxtool/internal/storage"
)

type Session struct {
	path  string
	codec storage.Codec
	file  *bntx.File
	dirty bool
	log   logger.Logger
}

// Open loads and parses the container at path. The logger is taken from
// ctx.
func Open(ctx context.Context, path string) (*Session, error) {
	blob, err := storage.Load(path)
	if err != nil {
		return nil, err
	}
	f, err := bntx.Parse(blob.Data)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	log := logger.FromContext(ctx).With("file", path)
	log.Debug("opened container",
		"name", f.Name,
		"platform", f.Platform.String(),
		"codec", blob.Codec.String(),
		"textures", len(f.Textures))
	for _, i := range f.Skipped {
		log.Debug("skipped non-texture block", "index", i)
	}
	return &Session{path: path, codec: blob.Codec, file: f, log: log}, nil
}

func (s *Session) Path() string         { return s.path }
func (s *Session) Codec() storage.Codec { return s.codec }
func (s *Session) File() *bntx.File     { return s.file }

// Dirty reports whether the buffer holds changes not yet committed.
func (s *Session) Dirty() bool { return s.dirty }

// Textures lists the texture records in pointer-table order.
func (s *Session) Textures() []*bntx.Texture { return s.file.Textures }

func (s *Session) Find(name string) (*bntx.Texture, bool) {
	return s.file.Texture(name)
}

// Index returns the position of the named texture in Textures.
func (s *Session) Index(name string) (int, bool) {
	for i, tex := range s.file.Textures {
		if tex.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Original reports the payload allocation and mip slot count the texture at
// index had when the file was opened. Injections are bounded by them.
func (s *Session) Original(index int) (allocated uint32, slots int, err error) {
	tex, err := s.texture(index)
	if err != nil {
		return 0, 0, err
	}
	return tex.Allocated(), tex.MipSlots(), nil
}

func (s *Session) texture(index int) (*bntx.Texture, error) {
	if index < 0 || index >= len(s.file.Textures) {
		return nil, fmt.Errorf("texture %d of %d: %w", index, len(s.file.Textures), bntx.ErrOutOfBounds)
	}
	return s.file.Textures[index], nil
}

// Inject replaces the payload of the texture at index and patches the
// buffer. Nothing changes unless both steps succeed.
func (s *Session) Inject(index int, opts inject.Options, image []byte) (*inject.Result, error) {
	tex, err := s.texture(index)
	if err != nil {
		return nil, err
	}
	next := tex.Clone()
	res, err := inject.Inject(next, opts, image)
	if err != nil {
		return nil, err
	}
	if err := s.file.Patch(next); err != nil {
		return nil, fmt.Errorf("patch %q: %w", tex.Name, err)
	}
	res.Texture = s.file.Textures[index]
	s.dirty = true

	log := s.log.With("texture", tex.Name)
	for _, w := range res.Warnings {
		log.Warn(w.String())
	}
	log.Info("injected",
		"format", next.Format.String(),
		"size", fmt.Sprintf("%dx%d", next.Width, next.Height),
		"mips", next.MipCount,
		"bytes", next.ImageSize,
		"allocated", next.Allocated())
	return res, nil
}

// Commit writes the buffer back to the file it came from.
func (s *Session) Commit(backup bool) error {
	return s.SaveAs(s.path, backup)
}

// SaveAs writes the buffer to path with the codec the source used. Saving
// over the source clears Dirty.
func (s *Session) SaveAs(path string, backup bool) error {
	if err := storage.Save(path, s.file.Bytes(), s.codec, backup); err != nil {
		return err
	}
	s.log.Info("saved", "to", path, "backup", backup)
	if path == s.path {
		s.dirty = false
	}
	return nil
}
