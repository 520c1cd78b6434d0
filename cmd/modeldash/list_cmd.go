package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"modeldash/internal/api"
	"modeldash/internal/logging"
)

func handleList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	host := fs.String("host", "", "Model runtime endpoint")
	logLevel := fs.String("log-level", "error", "log level")
	wide := fs.Bool("wide", false, "fetch per-model details (family, parameters, quantization)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath, *host)
	if err != nil {
		return err
	}
	log := logging.New(*logLevel, false)
	client := api.New(cfg.HostURL(), cfg.Timeout(), log)

	models, err := client.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("no models installed")
		return nil
	}

	if !*wide {
		fmt.Printf("%-40s %-10s %s\n", "NAME", "SIZE", "MODIFIED")
		for _, m := range models {
			fmt.Printf("%-40s %-10s %s\n", m.Name, humanize.Bytes(uint64(m.Size)), humanize.Time(m.ModifiedAt))
		}
		return nil
	}

	// Wide mode needs one show call per model; fetch them concurrently with a
	// cap so a big library does not hammer the runtime.
	shows := make([]*api.ShowResponse, len(models))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, m := range models {
		i, name := i, m.Name
		g.Go(func() error {
			show, err := client.ShowModel(gctx, name)
			if err != nil {
				return fmt.Errorf("show %s: %w", name, err)
			}
			shows[i] = show
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("%-40s %-10s %-10s %-8s %-8s %s\n", "NAME", "SIZE", "FAMILY", "PARAMS", "QUANT", "MODIFIED")
	for i, m := range models {
		d := shows[i].Details
		fmt.Printf("%-40s %-10s %-10s %-8s %-8s %s\n",
			m.Name, humanize.Bytes(uint64(m.Size)), d.Family, d.ParameterSize, d.QuantizationLevel, humanize.Time(m.ModifiedAt))
	}
	return nil
}
