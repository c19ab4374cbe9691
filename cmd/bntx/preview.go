package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.coder.com/cli"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/config"
	"github.com/erinpentecost/bntxtool/internal/export"
	"github.com/erinpentecost/bntxtool/internal/preview"
	"github.com/erinpentecost/bntxtool/internal/session"
)

type previewCmd struct {
	g       *globals
	name    string
	out     string
	kind    string
	maxSize int
}

func (c *previewCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "preview",
		Usage: "[flags] <file>",
		Desc:  "Render the first mip level of a texture to PNG, BMP or TGA.",
	}
}

func (c *previewCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVarP(&c.name, "name", "n", "", "texture to render (required)")
	fl.StringVarP(&c.out, "out", "o", "", "output file (default <name>.<format>)")
	fl.StringVar(&c.kind, "format", "png", "png, bmp or tga")
	fl.IntVar(&c.maxSize, "max", 0, "shrink so neither side exceeds this; 0 keeps the size")
}

func (c *previewCmd) Run(fl *pflag.FlagSet) {
	ctx, log := c.g.context()
	config.Apply(fl, "format", &c.kind, c.g.cfg.Preview.Format)
	config.Apply(fl, "max", &c.maxSize, c.g.cfg.Preview.MaxSize)

	if c.name == "" {
		fmt.Fprintln(os.Stderr, "--name is required")
		fl.Usage()
		os.Exit(2)
	}
	kind, err := preview.ParseKind(c.kind)
	if err != nil {
		fatal(log, err)
	}

	s, err := session.Open(ctx, fileArg(fl))
	if err != nil {
		fatal(log, err)
	}
	tex, ok := s.Find(c.name)
	if !ok {
		fatal(log, fmt.Errorf("no texture named %q in %q", c.name, s.Path()))
	}

	img, err := preview.Render(tex)
	if err != nil {
		fatal(log, err)
	}
	img = preview.Scale(img, c.maxSize)

	out := c.out
	if out == "" {
		base := export.FileName(tex)
		out = strings.TrimSuffix(base, filepath.Ext(base)) + "." + string(kind)
	}
	f, err := os.Create(out)
	if err != nil {
		fatal(log, fmt.Errorf("create %q: %w: %w", out, bntx.ErrIO, err))
	}
	if err := preview.Encode(f, img, kind); err != nil {
		f.Close()
		fatal(log, err)
	}
	if err := f.Close(); err != nil {
		fatal(log, fmt.Errorf("close %q: %w: %w", out, bntx.ErrIO, err))
	}
	log.Info("rendered", "texture", tex.Name, "to", out)
}
