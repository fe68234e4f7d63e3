package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/akhenakh/glcc/dataset"
	"github.com/akhenakh/glcc/grid"
	"github.com/akhenakh/glcc/legend"
	"github.com/akhenakh/glcc/metrics"
	"github.com/akhenakh/glcc/plot"
)

var errNoSource = errors.New("no source given, pass one or set GLCC_SOURCE")

type app struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newRootCmd(cfg Config, logger *slog.Logger, m *metrics.Metrics) *cobra.Command {
	a := &app{cfg: cfg, logger: logger, metrics: m}
	root := &cobra.Command{
		Use:           appName,
		Short:         "Load and inspect GLCC land cover rasters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "info [source]",
			Short: "Print the dataset summary",
			Args:  cobra.MaximumNArgs(1),
			RunE:  a.info,
		},
		&cobra.Command{
			Use:   "legend [file]",
			Short: "Print a legend as YAML, the Olson Global Ecosystem legend by default",
			Args:  cobra.MaximumNArgs(1),
			RunE:  a.legend,
		},
		&cobra.Command{
			Use:   "histogram [source]",
			Short: "Count the cells of every category",
			Args:  cobra.MaximumNArgs(1),
			RunE:  a.histogram,
		},
		&cobra.Command{
			Use:   "cells <row> <col> <rows> <cols> [source]",
			Short: "Export the cells of a window as GeoJSON polygons",
			Args:  cobra.RangeArgs(4, 5),
			RunE:  a.cells,
		},
		&cobra.Command{
			Use:   "plot <output.png> [source]",
			Short: "Render the dataset on the Interrupted Goode Homolosine projection",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  a.plot,
		},
	)
	return root
}

func (a *app) source(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.cfg.Source == "" {
		return "", errNoSource
	}
	return a.cfg.Source, nil
}

// datasetOptions maps the configuration to dataset options. extra wins
// over the configuration.
func (a *app) datasetOptions(extra ...dataset.Option) ([]dataset.Option, error) {
	opts := []dataset.Option{
		dataset.WithCoords(a.cfg.Coords),
		dataset.WithBounds(a.cfg.Bounds),
		dataset.WithWorkers(a.cfg.Workers),
		dataset.WithBlockCache(a.cfg.CacheMaxSize, a.cfg.CacheItemsToPrune),
		dataset.WithCache(a.cfg.ChunkCacheSize, uint32(max(1, a.cfg.ChunkCacheSize/4))),
		dataset.WithLogger(a.logger),
		dataset.WithMetrics(a.metrics),
	}
	if a.cfg.Projection != "" && a.cfg.Projection != "auto" {
		p, err := grid.ParseProjection(a.cfg.Projection)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dataset.WithProjection(p))
	}
	if a.cfg.LegendFile != "" {
		l, err := legend.ParseFile(a.cfg.LegendFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dataset.WithLegend(l))
	}
	return append(opts, extra...), nil
}

func (a *app) load(cmd *cobra.Command, args []string, extra ...dataset.Option) (*dataset.Dataset, error) {
	src, err := a.source(args)
	if err != nil {
		return nil, err
	}
	opts, err := a.datasetOptions(extra...)
	if err != nil {
		return nil, err
	}
	return dataset.Load(cmd.Context(), src, opts...)
}

func (a *app) info(cmd *cobra.Command, args []string) error {
	d, err := a.load(cmd, args)
	if err != nil {
		return err
	}
	defer d.Close()
	_, err = fmt.Fprint(cmd.OutOrStdout(), d.Summary())
	return err
}

func (a *app) legend(cmd *cobra.Command, args []string) error {
	l := legend.OlsonGlobalEcosystem
	if len(args) > 0 {
		var err error
		if l, err = legend.ParseFile(args[0]); err != nil {
			return err
		}
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(l)
}

func (a *app) histogram(cmd *cobra.Command, args []string) error {
	d, err := a.load(cmd, args, dataset.WithCoords(false), dataset.WithBounds(false))
	if err != nil {
		return err
	}
	defer d.Close()

	counts, err := d.Histogram(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "code\tcells\t")
	for _, c := range counts {
		fmt.Fprintf(tw, "%d\t%d\t  %s\n", c.Code, c.Cells, c.Class)
	}
	return tw.Flush()
}

func (a *app) cells(cmd *cobra.Command, args []string) error {
	var w [4]int
	for i := range w {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		w[i] = v
	}
	d, err := a.load(cmd, args[4:], dataset.WithBounds(true))
	if err != nil {
		return err
	}
	defer d.Close()

	fc, err := d.FeatureCollection(cmd.Context(), grid.Window{Row: w[0], Col: w[1], Rows: w[2], Cols: w[3]})
	if err != nil {
		return err
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(fc)
}

func (a *app) plot(cmd *cobra.Command, args []string) error {
	d, err := a.load(cmd, args[1:], dataset.WithCoords(false), dataset.WithBounds(false))
	if err != nil {
		return err
	}
	defer d.Close()

	done := a.metrics.Stage("plot")
	img, err := plot.Render(cmd.Context(), d, plot.Options{
		Width:   a.cfg.PlotWidth,
		Height:  a.cfg.PlotHeight,
		Stride:  a.cfg.PlotStride,
		Workers: a.cfg.Workers,
		Logger:  a.logger,
	})
	done()
	if err != nil {
		return err
	}
	if err := plot.SavePNG(args[0], img); err != nil {
		return err
	}
	a.logger.Info("saved plot", "path", args[0])
	return nil
}
