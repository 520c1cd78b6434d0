package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"modeldash/internal/registry"
)

func handleSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	tags := fs.Bool("tags", false, "also list the tags of each match (slower)")
	limit := fs.Int("limit", 10, "maximum number of results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("search needs a term, e.g.: modeldash search llama")
	}
	term := fs.Arg(0)

	cfg, err := loadConfig(*cfgPath, "")
	if err != nil {
		return err
	}
	catalog := registry.New(cfg.RegistryBase(), cfg.Timeout())

	entries, err := catalog.Library(ctx)
	if err != nil {
		return err
	}
	matches := registry.Search(entries, term)
	if len(matches) == 0 {
		fmt.Printf("no registry models match %q\n", term)
		return nil
	}
	if len(matches) > *limit {
		matches = matches[:*limit]
	}

	for _, e := range matches {
		fmt.Printf("%-24s %s\n", e.Name, e.Description)
		if *tags {
			ts, err := catalog.Tags(ctx, e.Name)
			if err != nil {
				fmt.Printf("%-24s (tags unavailable: %v)\n", "", err)
				continue
			}
			fmt.Printf("%-24s tags: %v\n", "", ts)
		}
	}
	return nil
}
