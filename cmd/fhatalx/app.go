package main

import (
	"fmt"

	"github.com/Fhatal-Studios/FhatalX/internal/analysis"
	"github.com/Fhatal-Studios/FhatalX/internal/config"
	"github.com/Fhatal-Studios/FhatalX/internal/dashboard"
	"github.com/Fhatal-Studios/FhatalX/internal/datasource"
	"github.com/Fhatal-Studios/FhatalX/internal/preferences"
	"github.com/Fhatal-Studios/FhatalX/internal/storage"
)

// app bundles the wired components. Close releases the store.
type app struct {
	store   storage.Store
	dash    *dashboard.Dashboard
	consent *preferences.ConsentRepo
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}

	client := datasource.NewClient(cfg.HTTP)
	dash := dashboard.New(
		datasource.NewCoinGecko(client, cfg.Market),
		datasource.NewBinance(client, cfg.Exchange),
		datasource.NewNews(client, cfg.News),
		preferences.NewFavorites(store),
		dashboard.Options{
			DefaultFiat:    cfg.Market.DefaultFiat,
			SupportedFiats: cfg.Market.SupportedFiats,
			Limits: analysis.Limits{
				Movers: cfg.Limits.Movers,
				Ideas:  cfg.Limits.Ideas,
			},
		},
	)

	return &app{
		store:   store,
		dash:    dash,
		consent: preferences.NewConsentRepo(store),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
