// Command bntx inspects BNTX texture containers, exports their textures and
// replaces texture payloads in place.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.coder.com/cli"

	"github.com/erinpentecost/bntxtool/internal/config"
	"github.com/erinpentecost/bntxtool/internal/logger"
)

// globals are the flags accepted before the subcommand name.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg config.Config
}

type rootCmd struct {
	g *globals
}

func (r *rootCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "bntx",
		Usage: "[global flags] <subcommand>",
		Desc:  "Inspect, export and patch BNTX texture containers.",
	}
}

func (r *rootCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVar(&r.g.configPath, "config", config.DefaultPath(), "config file")
	fl.StringVar(&r.g.logLevel, "log-level", "", "debug, info, warn or error (default info)")
	fl.StringVar(&r.g.logFormat, "log-format", "", "auto, pretty, text or json (default auto)")
}

func (r *rootCmd) Run(fl *pflag.FlagSet) {
	fl.Usage()
	os.Exit(2)
}

func (r *rootCmd) Subcommands() []cli.Command {
	return []cli.Command{
		&infoCmd{g: r.g},
		&extractCmd{g: r.g},
		&injectCmd{g: r.g},
		&previewCmd{g: r.g},
	}
}

// setup loads the config file and builds the logger. Empty log flags fall
// back to the file, then to info level and automatic format.
func (g *globals) setup() (context.Context, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	g.cfg = cfg
	level := pick(g.logLevel, cfg.LogLevel, "info")
	f, err := logger.ParseFormat(pick(g.logFormat, cfg.LogFormat, string(logger.FormatAuto)))
	if err != nil {
		return nil, err
	}
	log := logger.ForFormat(os.Stderr, f, logger.ParseLevel(level))
	return logger.WithContext(context.Background(), log), nil
}

func pick(flag string, file *string, def string) string {
	switch {
	case flag != "":
		return flag
	case file != nil:
		return *file
	}
	return def
}

// context is setup for commands; failures exit.
func (g *globals) context() (context.Context, logger.Logger) {
	ctx, err := g.setup()
	if err != nil {
		fatal(logger.Default(), err)
	}
	return ctx, logger.FromContext(ctx)
}

func fatal(log logger.Logger, err error) {
	log.Error(err.Error())
	os.Exit(1)
}

// fileArg returns the single positional container path or exits.
func fileArg(fl *pflag.FlagSet) string {
	if fl.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "expected exactly one container file, got %d arguments\n", fl.NArg())
		fl.Usage()
		os.Exit(2)
	}
	return fl.Arg(0)
}

func main() {
	cli.RunRoot(&rootCmd{g: &globals{}})
}
