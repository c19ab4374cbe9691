package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"golang.org/x/sync/errgroup"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/config"
	"github.com/erinpentecost/bntxtool/internal/export"
	"github.com/erinpentecost/bntxtool/internal/logger"
	"github.com/erinpentecost/bntxtool/internal/session"
)

type extractCmd struct {
	g       *globals
	name    string
	out     string
	workers int
}

func (c *extractCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "extract",
		Usage: "[flags] <file>",
		Desc:  "Export textures as DDS, or ASTC for ASTC formats.",
	}
}

func (c *extractCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVar(&c.name, "name", "", "export only this texture")
	fl.StringVarP(&c.out, "out", "o", ".", "output directory")
	fl.IntVar(&c.workers, "workers", runtime.NumCPU(), "textures exported in parallel")
}

func (c *extractCmd) Run(fl *pflag.FlagSet) {
	ctx, log := c.g.context()
	config.Apply(fl, "out", &c.out, c.g.cfg.Export.Dir)
	config.Apply(fl, "workers", &c.workers, c.g.cfg.Export.Workers)

	s, err := session.Open(ctx, fileArg(fl))
	if err != nil {
		fatal(log, err)
	}
	if err := os.MkdirAll(c.out, 0o755); err != nil {
		fatal(log, fmt.Errorf("create %q: %w: %w", c.out, bntx.ErrIO, err))
	}

	if c.name != "" {
		tex, ok := s.Find(c.name)
		if !ok {
			fatal(log, fmt.Errorf("no texture named %q in %q", c.name, s.Path()))
		}
		if err := writeTexture(c.out, tex); err != nil {
			fatal(log, err)
		}
		log.Info("exported", "texture", tex.Name, "to", filepath.Join(c.out, export.FileName(tex)))
		return
	}

	n, err := extractAll(ctx, s.Textures(), c.out, c.workers)
	if err != nil {
		fatal(log, err)
	}
	log.Info("exported textures", "count", n, "of", len(s.Textures()), "to", c.out)
}

// extractAll exports every texture that can be exported. Textures that
// cannot are logged with their reason and skipped. The container buffer is
// only read, so the workers share it.
func extractAll(ctx context.Context, textures []*bntx.Texture, dir string, workers int) (int, error) {
	log := logger.FromContext(ctx)
	var todo []*bntx.Texture
	for _, tex := range textures {
		if err := export.Check(tex); err != nil {
			log.Warn("skipping texture", "texture", tex.Name, "reason", err.Error())
			continue
		}
		todo = append(todo, tex)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, tex := range todo {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := writeTexture(dir, tex); err != nil {
				return err
			}
			log.Debug("exported", "texture", tex.Name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(todo), nil
}

func writeTexture(dir string, tex *bntx.Texture) (err error) {
	path := filepath.Join(dir, export.FileName(tex))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w: %w", path, bntx.ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %q: %w: %w", path, bntx.ErrIO, cerr)
		}
		if err != nil {
			err = errors.Join(err, os.Remove(path))
		}
	}()
	return export.Write(f, tex)
}
