package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"lexdraft/api/internal/config"
	"lexdraft/api/internal/logger"
)

// env carries what Before prepares for the subcommands.
type env struct {
	cfg config.Config
	log *logger.Logger
	out io.Writer
	in  io.Reader
}

func (e *env) prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.LoadFile(cmd.String("config"))
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	e.cfg = cfg

	level := cfg.LogLevel
	if cmd.Bool("debug") {
		level = "debug"
	}
	// stdout may carry rendered output, logs go to stderr
	e.log = logger.NewLogger(logger.Config{Level: level, Pretty: true, Output: os.Stderr})
	zl := e.log.Zerolog()
	zl.Debug().Strs("args", cmd.Args().Slice()).Msg("program started")
	return ctx, nil
}

func newApp(e *env) *cli.Command {
	return &cli.Command{
		Name:            "lexdraft",
		Usage:           "offline renderer for lexdraft document trees",
		HideHelpCommand: true,
		Writer:          e.out,
		Before:          e.prepare,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "verbose logging"},
		},
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Renders a document tree file to DOCX, PDF or HTML",
				Action:    e.render,
				ArgsUsage: "INPUT [OUTPUT]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "docx", Usage: "output `TYPE` (docx, pdf, html)"},
					&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Value: "court_brief", Usage: "formatting preset `NAME`"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "document `TITLE`, defaults to the input file name"},
				},
				CustomHelpTemplate: fmt.Sprintf(`%s
INPUT:
    editor JSON file, "-" reads STDIN

OUTPUT:
    destination file, "-" writes STDOUT
    if absent - title-derived file name in the current directory
`, cli.CommandHelpTemplate),
			},
			{
				Name:   "presets",
				Usage:  "Lists the formatting presets",
				Action: e.presets,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{out: os.Stdout, in: os.Stdin}
	if err := newApp(e).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "lexdraft: %v\n", err)
		stop()
		os.Exit(1)
	}
}
