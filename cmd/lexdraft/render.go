package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"

	"lexdraft/api/internal/export"
)

func (e *env) render(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := e.log.Component("render")

	src := cmd.Args().Get(0)
	if src == "" {
		return errors.New("no input file has been specified")
	}
	if cmd.Args().Len() > 2 {
		log.Warn().Strs("ignoring", cmd.Args().Slice()[2:]).Msg("too many arguments")
	}

	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(cmd.String("format"))))
	if err != nil {
		return err
	}
	preset := cmd.String("preset")
	if !slices.Contains(export.PresetNames(), preset) {
		log.Warn().Str("preset", preset).Msg("unknown preset, using " + export.DefaultPreset)
		preset = export.DefaultPreset
	}

	content, err := e.readInput(src)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(cmd.String("title"))
	if title == "" && src != "-" {
		title = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	if title == "" {
		title = "Untitled Document"
	}

	svc := export.NewService(export.Options{
		ChromePath: e.cfg.ChromePath,
		PDFTimeout: e.cfg.PDFTimeout,
		Logger:     log,
	})
	result, err := svc.Export(ctx, export.Request{
		Title:   title,
		Preset:  preset,
		Format:  format,
		Content: content,
	})
	if errors.Is(err, export.ErrRenderingUnavailable) {
		return fmt.Errorf("%w: %s", err, export.RenderingHint)
	}
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if dst == "-" {
		_, err := e.out.Write(result.Data)
		return err
	}
	if dst == "" {
		dst = result.Filename
	}
	if err := os.WriteFile(dst, result.Data, 0o644); err != nil {
		return fmt.Errorf("unable to write %s: %w", dst, err)
	}
	log.Info().Str("output", dst).Int("bytes", len(result.Data)).Str("preset", preset).Msg("rendered")
	return nil
}

func (e *env) readInput(src string) ([]byte, error) {
	if src == "-" {
		data, err := io.ReadAll(e.in)
		if err != nil {
			return nil, fmt.Errorf("unable to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("unable to read input: %w", err)
	}
	return data, nil
}

func (e *env) presets(_ context.Context, _ *cli.Command) error {
	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFONT\tSPACING\tMARGIN\tNUMBERED")
	for _, name := range export.PresetNames() {
		p := export.ResolvePreset(name)
		fmt.Fprintf(w, "%s\t%s %dpt\t%s\t%gin\t%t\n", p.Name, p.FontFamily, p.FontSize, p.LineSpacing, p.MarginInches, p.NumberedParagraphs)
	}
	return w.Flush()
}
