package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/dblezek/tga"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"golang.org/x/image/bmp"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/config"
	"github.com/erinpentecost/bntxtool/internal/dds"
	"github.com/erinpentecost/bntxtool/internal/format"
	"github.com/erinpentecost/bntxtool/internal/inject"
	"github.com/erinpentecost/bntxtool/internal/session"
)

type injectCmd struct {
	g               *globals
	name            string
	image           string
	tileMode        string
	srgb            bool
	mips            bool
	sparseBinding   bool
	sparseResidency bool
	codec           string
	out             string
	backup          bool
}

func (c *injectCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "inject",
		Usage: "[flags] <file>",
		Desc:  "Replace a texture's pixels with a DDS, PNG, BMP or TGA image, within the space it already occupies.",
	}
}

func (c *injectCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVarP(&c.name, "name", "n", "", "texture to replace (required)")
	fl.StringVarP(&c.image, "image", "i", "", "replacement image (required)")
	fl.StringVar(&c.tileMode, "tile-mode", "optimal", "optimal or linear")
	fl.BoolVar(&c.srgb, "srgb", false, "treat the replacement as sRGB")
	fl.BoolVar(&c.mips, "mips", false, "import the replacement's mip levels")
	fl.BoolVar(&c.sparseBinding, "sparse-binding", false, "set the sparse binding bit")
	fl.BoolVar(&c.sparseResidency, "sparse-residency", false, "set the sparse residency bit")
	fl.StringVar(&c.codec, "codec", "dxt5", "encoding for non-DDS images: dxt1, dxt5 or lossless")
	fl.StringVarP(&c.out, "out", "o", "", "write here instead of over the input")
	fl.BoolVar(&c.backup, "backup", true, "copy the previous file to .bak before overwriting")
}

func (c *injectCmd) Run(fl *pflag.FlagSet) {
	ctx, log := c.g.context()
	cfg := c.g.cfg
	config.Apply(fl, "tile-mode", &c.tileMode, cfg.Inject.TileMode)
	config.Apply(fl, "srgb", &c.srgb, cfg.Inject.SRGB)
	config.Apply(fl, "mips", &c.mips, cfg.Inject.ImportMips)
	config.Apply(fl, "sparse-binding", &c.sparseBinding, cfg.Inject.SparseBinding)
	config.Apply(fl, "sparse-residency", &c.sparseResidency, cfg.Inject.SparseResidency)
	config.Apply(fl, "codec", &c.codec, cfg.Inject.Codec)
	config.Apply(fl, "backup", &c.backup, cfg.Backup)

	if c.name == "" || c.image == "" {
		fmt.Fprintln(os.Stderr, "--name and --image are required")
		fl.Usage()
		os.Exit(2)
	}
	mode, err := format.ParseTileMode(c.tileMode)
	if err != nil {
		fatal(log, err)
	}

	s, err := session.Open(ctx, fileArg(fl))
	if err != nil {
		fatal(log, err)
	}
	index, ok := s.Index(c.name)
	if !ok {
		fatal(log, fmt.Errorf("no texture named %q in %q", c.name, s.Path()))
	}

	replacement, err := c.loadImage()
	if err != nil {
		fatal(log, err)
	}
	_, err = s.Inject(index, inject.Options{
		TileMode:        mode,
		SRGB:            c.srgb,
		SparseBinding:   c.sparseBinding,
		SparseResidency: c.sparseResidency,
		ImportMips:      c.mips,
	}, replacement)
	if err != nil {
		fatal(log, err)
	}

	if c.out != "" {
		err = s.SaveAs(c.out, false)
	} else {
		err = s.Commit(c.backup)
	}
	if err != nil {
		fatal(log, err)
	}
}

// loadImage returns the replacement as DDS bytes, encoding ordinary images
// with the chosen codec.
func (c *injectCmd) loadImage() ([]byte, error) {
	raw, err := os.ReadFile(c.image)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w: %w", c.image, bntx.ErrIO, err)
	}
	if bytes.HasPrefix(raw, []byte("DDS ")) {
		return raw, nil
	}

	var img image.Image
	switch ext := strings.ToLower(filepath.Ext(c.image)); ext {
	case ".png":
		img, err = png.Decode(bytes.NewReader(raw))
	case ".bmp":
		img, err = bmp.Decode(bytes.NewReader(raw))
	case ".tga":
		img, err = tga.Decode(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("%q: unknown image type %q: %w", c.image, ext, bntx.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w: %w", c.image, bntx.ErrUnsupportedFormat, err)
	}

	codec, err := dds.ParseCodec(c.codec)
	if err != nil {
		return nil, err
	}
	levels := 1
	if c.mips {
		levels = 0
	}
	return dds.FromImage(img, codec, levels)
}
