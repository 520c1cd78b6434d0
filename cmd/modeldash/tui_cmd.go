package main

import (
	"context"
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"modeldash/internal/api"
	"modeldash/internal/config"
	"modeldash/internal/logging"
	"modeldash/internal/registry"
	"modeldash/internal/tui"
)

// loadConfig resolves the config file for a subcommand: explicit flag first,
// then MODELDASH_CONFIG, then the default path, falling back to built-in
// defaults when no file exists.
func loadConfig(cfgPath, host string) (*config.Config, error) {
	if cfgPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfgPath = p
	}
	c, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}
	if host != "" {
		c.Server.Host = host
	}
	return c, nil
}

func handleTUI(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	host := fs.String("host", "", "Model runtime endpoint")
	logLevel := fs.String("log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath, *host)
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	// Stdout belongs to the dashboard, so logs go to a file (or nowhere).
	log, err := logging.NewFile(level, cfg.Logging.File)
	if err != nil {
		return err
	}

	client := api.New(cfg.HostURL(), cfg.Timeout(), log)
	catalog := registry.New(cfg.RegistryBase(), cfg.Timeout())

	// The first list is synchronous: an unreachable runtime is a startup
	// failure, not a dashboard state.
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach model runtime at %s: %w", cfg.HostURL(), err)
	}
	log.Infof("connected to %s, %d models", cfg.HostURL(), len(models))

	m := tui.New(cfg, client, catalog, log, models)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
