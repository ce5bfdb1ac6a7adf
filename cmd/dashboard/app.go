package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AngelCh415/campaign-dash/internal/config"
	"github.com/AngelCh415/campaign-dash/internal/ingest"
	"github.com/AngelCh415/campaign-dash/internal/metrics"
	"github.com/AngelCh415/campaign-dash/internal/models"
	"github.com/AngelCh415/campaign-dash/internal/store"
	"github.com/AngelCh415/campaign-dash/internal/utils"
)

type app struct {
	cfg     config.Config
	log     *slog.Logger
	reg     *prometheus.Registry
	metrics *utils.Metrics
	fetches store.FetchLog
	cache   *ingest.Cache
	svc     *metrics.Service
}

func newApp(cfg config.Config, logOut io.Writer) (*app, error) {
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: cfg.LogLevel}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := utils.NewMetrics(reg)

	var fl store.FetchLog = store.NewMemoryStore()
	if cfg.FetchLogDB != "" {
		s, err := store.OpenSQLite(cfg.FetchLogDB)
		if err != nil {
			return nil, err
		}
		fl = s
	}

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	cache := ingest.NewCache(
		ingest.Source{Location: cfg.ActivationsSource, Client: cl},
		ingest.Source{Location: cfg.BroadcastSource, Client: cl},
		logger, fl, m)

	return &app{
		cfg:     cfg,
		log:     logger,
		reg:     reg,
		metrics: m,
		fetches: fl,
		cache:   cache,
		svc:     metrics.NewService(cache, logger),
	}, nil
}

func (a *app) Close() error { return a.fetches.Close() }

// loadApp reads the config, builds the app and loads both tables.
func loadApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, logOut)
	if err != nil {
		return nil, err
	}
	if _, err := a.cache.Reload(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func selection() models.Selection {
	if noCampaign {
		return models.Selection{}
	}
	if len(campaigns) == 0 {
		return models.AllCampaigns()
	}
	return models.Campaigns(campaigns...)
}
