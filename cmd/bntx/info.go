package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"go.coder.com/cli"

	"github.com/erinpentecost/bntxtool/internal/bntx"
	"github.com/erinpentecost/bntxtool/internal/export"
	"github.com/erinpentecost/bntxtool/internal/format"
	"github.com/erinpentecost/bntxtool/internal/session"
)

type infoCmd struct {
	g    *globals
	json bool
}

func (c *infoCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "info",
		Usage: "[flags] <file>",
		Desc:  "Print the container header and a summary of every texture.",
	}
}

func (c *infoCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.BoolVar(&c.json, "json", false, "print JSON instead of a table")
}

func (c *infoCmd) Run(fl *pflag.FlagSet) {
	ctx, log := c.g.context()
	s, err := session.Open(ctx, fileArg(fl))
	if err != nil {
		fatal(log, err)
	}
	summary := summarize(s)
	if c.json {
		err = writeJSON(os.Stdout, summary)
	} else {
		err = writeTable(os.Stdout, summary)
	}
	if err != nil {
		fatal(log, err)
	}
}

type fileSummary struct {
	Name      string           `json:"name"`
	Platform  string           `json:"platform"`
	ByteOrder string           `json:"byteOrder"`
	Version   string           `json:"version"`
	Codec     string           `json:"compression"`
	Textures  []textureSummary `json:"textures"`
}

type textureSummary struct {
	Name            string    `json:"name"`
	Format          string    `json:"format"`
	Width           uint32    `json:"width"`
	Height          uint32    `json:"height"`
	MipCount        int       `json:"mipCount"`
	TileMode        string    `json:"tileMode"`
	BlockHeightLog2 uint32    `json:"blockHeightLog2"`
	ImageSize       uint32    `json:"imageSize"`
	Allocated       uint32    `json:"allocated"`
	Alignment       uint32    `json:"alignment"`
	AccessFlags     string    `json:"accessFlags"`
	Type            string    `json:"type"`
	Channels        [4]string `json:"channels"`
	SparseBinding   bool      `json:"sparseBinding"`
	SparseResidency bool      `json:"sparseResidency"`
	// Unexportable holds the reason the texture cannot be exported.
	Unexportable string `json:"unexportable,omitempty"`
}

func summarize(s *session.Session) fileSummary {
	f := s.File()
	out := fileSummary{
		Name:      f.Name,
		Platform:  f.Platform.String(),
		ByteOrder: f.Order.String(),
		Version:   fmt.Sprintf("0x%08x", f.Header.Version),
		Codec:     s.Codec().String(),
	}
	for _, tex := range f.Textures {
		out.Textures = append(out.Textures, summarizeTexture(tex))
	}
	return out
}

func summarizeTexture(tex *bntx.Texture) textureSummary {
	t := textureSummary{
		Name:            tex.Name,
		Format:          tex.Format.String(),
		Width:           tex.Width,
		Height:          tex.Height,
		MipCount:        tex.MipCount,
		TileMode:        tex.TileMode.String(),
		BlockHeightLog2: tex.BlockHeightLog2(),
		ImageSize:       tex.ImageSize,
		Allocated:       tex.Allocated(),
		Alignment:       tex.Alignment,
		AccessFlags:     format.AccessFlagName(tex.AccessFlags),
		Type:            format.TypeName(tex.Type),
		SparseBinding:   tex.SparseBinding(),
		SparseResidency: tex.SparseResidency(),
	}
	// Listed in output channel order R, G, B, A.
	for i, sel := range tex.CompSel.Reverse() {
		t.Channels[i] = format.ChannelName(sel)
	}
	if err := export.Check(tex); err != nil {
		t.Unexportable = err.Error()
	}
	return t
}

func writeJSON(w io.Writer, v fileSummary) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal info: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write info: %w: %w", bntx.ErrIO, err)
	}
	return nil
}

func writeTable(w io.Writer, v fileSummary) error {
	fmt.Fprintf(w, "%s (%s, %s, version %s, %s)\n", v.Name, v.Platform, v.ByteOrder, v.Version, v.Codec)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFORMAT\tSIZE\tMIPS\tTILING\tBYTES\tALLOCATED\tCHANNELS\t")
	for _, t := range v.Textures {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\t%d\t%d\t%s %s %s %s\t\n",
			t.Name, t.Format, t.Width, t.Height, t.MipCount, t.TileMode,
			t.ImageSize, t.Allocated,
			t.Channels[0], t.Channels[1], t.Channels[2], t.Channels[3])
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write info: %w: %w", bntx.ErrIO, err)
	}
	return nil
}
