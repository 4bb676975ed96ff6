// fxrender applies the built-in filters to image files from the command line
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/microsoft/filter-effects/internal/backend"
	"github.com/microsoft/filter-effects/internal/config"
	"github.com/microsoft/filter-effects/internal/filters"
	"github.com/microsoft/filter-effects/internal/logging"
	"github.com/microsoft/filter-effects/internal/params"
)

func main() {
	var (
		configPath string
		debugMode  bool
		opts       renderOptions
	)

	app := &cli.App{
		Name:    "fxrender",
		Usage:   "Render Lomo, antique, sketch, cartoon and HDR filters at full resolution",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to the configuration file",
				Value:       config.FileName,
				Destination: &configPath,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "Enable verbose logging",
				Destination: &debugMode,
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the available filters and their parameters",
				Action: func(c *cli.Context) error {
					return listFilters(c.App.Writer)
				},
			},
			{
				Name:  "render",
				Usage: "Render an image through one or more filters",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "input",
						Aliases:     []string{"i"},
						Usage:       "The source image",
						Required:    true,
						Destination: &opts.Input,
					},
					&cli.StringSliceFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Filter name or short description, repeatable (default: every filter)",
					},
					&cli.StringSliceFlag{
						Name:  "set",
						Usage: "Parameter override as name=value, repeatable",
					},
					&cli.StringFlag{
						Name:        "out",
						Aliases:     []string{"o"},
						Usage:       "Output directory, if not supplied images go to the export directory",
						Destination: &opts.OutDir,
					},
					&cli.StringFlag{
						Name:  "backend",
						Usage: "Effect backend (" + strings.Join(backend.Names(), "|") + ")",
					},
					&cli.IntFlag{
						Name:  "quality",
						Usage: "JPEG quality (1-100)",
					},
					&cli.IntFlag{
						Name:  "parallel",
						Usage: "Number of filters rendered concurrently",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadOptional(configPath)
					if err != nil {
						return err
					}
					if c.IsSet("backend") {
						cfg.Backend = c.String("backend")
					}
					if c.IsSet("quality") {
						cfg.Export.JPEGQuality = c.Int("quality")
					}
					if c.IsSet("parallel") {
						cfg.Render.Parallelism = c.Int("parallel")
					}
					if err := cfg.Validate(); err != nil {
						return err
					}

					logger := logging.New(cfg.LogLevel, debugMode)
					logger.SetOutput(c.App.ErrWriter)

					opts.Filters = c.StringSlice("filter")
					opts.Settings = c.StringSlice("set")
					opts.Quality = cfg.Export.JPEGQuality
					opts.Parallelism = cfg.Render.Parallelism
					opts.LibraryDir = cfg.Export.Directory

					pipeline, err := backend.New(cfg.Backend, logger)
					if err != nil {
						return err
					}

					paths, err := runRender(c.Context, pipeline, opts, logger)
					for _, p := range paths {
						fmt.Fprintln(c.App.Writer, p)
					}
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("fxrender failed")
	}
}

func listFilters(w io.Writer) error {
	for _, d := range filters.Catalog() {
		if _, err := fmt.Fprintf(w, "%-14s %-16s %s\n", d.Name, d.ShortDescription, d.Kind); err != nil {
			return err
		}
		for _, info := range d.ParameterInfo() {
			line := fmt.Sprintf("    %-22s %-6s", info.Name, info.Kind)
			if len(info.Options) > 0 {
				line += " " + strings.Join(info.Options, "|")
			} else if info.Kind == params.KindFloat {
				line += fmt.Sprintf(" %.0f..%.0f", info.Min, info.Max)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
