package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/riglink/pkg/cache"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/render"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output  string // output file path; stdout when empty
	format  string // dot, svg or png
	unbound bool   // include layers without bindings
	params  bool   // show controller parameter values
	noCache bool   // always run the layout
}

// graphCommand creates the graph command for drawing a scene's bindings.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <scene>",
		Short: "Draw which controllers drive which layers",
		Long: `Graph draws the binding graph of a scene: controllers on the left, the layers
they drive on the right, and one edge per bound slot.

The format defaults to the output file extension, or dot on stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = formatForOutput(opts.output)
			}
			if !render.ValidFormats[opts.format] {
				return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want dot, svg or png)", opts.format)
			}
			if opts.output == "" && opts.format == render.FormatPNG {
				return errors.New(errors.ErrCodeInvalidInput, "png output needs --output")
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			return c.withWorkspace(ctx, func(ws *workspace) error {
				s, err := ws.scenes.Load(ctx, args[0])
				if err != nil {
					return err
				}

				prog := newProgress(logger)
				dot := render.ToDOT(s, render.Options{
					Prefix:  ws.runner.Registry.Prefix(),
					Unbound: opts.unbound,
					Params:  opts.params,
				})

				var spin *spinner
				if opts.output != "" && opts.format != render.FormatDOT {
					spin = newSpinner(ctx, os.Stderr, "Rendering "+opts.format)
					spin.Start()
				}
				artifacts := openArtifactCache(logger, opts.noCache || opts.format == render.FormatDOT)
				defer artifacts.Close()
				out, hit, err := render.RenderCached(ctx, artifacts, dot, opts.format)
				if err != nil {
					if spin != nil {
						spin.StopWithError("Rendering failed")
					}
					return fmt.Errorf("render %s: %w", opts.format, err)
				}
				if spin != nil {
					spin.Stop()
				}
				if hit {
					logger.Debug("graph cache hit", "format", opts.format)
				}
				prog.done("Rendered " + opts.format)

				if opts.output == "" {
					_, err := stdout.Write(out)
					return err
				}
				if err := os.WriteFile(opts.output, out, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", opts.output, err)
				}
				printSuccess("Rendered %d bindings", len(s.Bindings()))
				printFile(opts.output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file; stdout if empty")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg, png")
	cmd.Flags().BoolVar(&opts.unbound, "unbound", false, "include layers without bindings")
	cmd.Flags().BoolVar(&opts.params, "params", false, "show controller parameter values")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "skip the rendered graph cache")

	return cmd
}

// openArtifactCache opens the per-user graph cache. Without one, every
// render runs the layout.
func openArtifactCache(logger *log.Logger, disabled bool) cache.Cache {
	if disabled {
		return cache.NewNullCache()
	}
	dir, err := cache.DefaultDir()
	if err == nil {
		var c *cache.FileCache
		if c, err = cache.NewFileCache(dir); err == nil {
			return c
		}
	}
	logger.Debug("graph cache unavailable", "err", err)
	return cache.NewNullCache()
}

// formatForOutput picks the format implied by the output extension.
func formatForOutput(path string) string {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext {
	case render.FormatSVG, render.FormatPNG:
		return ext
	}
	return render.FormatDOT
}
