package main

import (
	"fmt"

	"github.com/meghashyamc/catalog/config"
	"github.com/meghashyamc/catalog/db/kvdb"
	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
	"github.com/meghashyamc/catalog/services/catalog"
	"github.com/meghashyamc/catalog/services/generate"
	"github.com/meghashyamc/catalog/services/search"
	"github.com/spf13/cobra"
)

// app holds the stores and services a command runs against.
type app struct {
	cfg      *config.Config
	products *productdb.GormDB
	runs     *kvdb.BoltDB
	search   *search.Service
	catalog  *catalog.Service
	generate *generate.Service
}

func bootApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Keep command output readable: only warnings and errors are logged.
	log := logger.New("warn")

	products, err := productdb.New(log, cfg)
	if err != nil {
		return nil, err
	}
	runs, err := kvdb.New(log, cfg)
	if err != nil {
		products.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		products: products,
		runs:     runs,
		search:   search.New(log, products, nil),
		catalog:  catalog.New(log, products),
		generate: generate.New(log, products, runs, nil, generate.NewRandomSynthesizer()),
	}, nil
}

func (a *app) close() {
	a.runs.Close()
	a.products.Close()
}

// withApp opens the stores for the duration of one command.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := bootApp()
		if err != nil {
			return err
		}
		defer a.close()

		return run(cmd, args, a)
	}
}
