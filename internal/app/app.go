// Package app assembles the assistant's components: configuration, dataset
// store, website scraper, maps client, genkit and the tool kit.
package app

import (
	"context"
	"errors"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/apiconf/ndu/internal/agent"
	"github.com/apiconf/ndu/internal/config"
	"github.com/apiconf/ndu/internal/dataset"
	"github.com/apiconf/ndu/internal/log"
	"github.com/apiconf/ndu/internal/maps"
	"github.com/apiconf/ndu/internal/scrape"
	"github.com/apiconf/ndu/internal/session"
	"github.com/apiconf/ndu/internal/tools"
)

// App holds the wired application components.
type App struct {
	Config    *config.Config
	Logger    log.Logger
	Genkit    *genkit.Genkit
	Data      *dataset.Store
	Scraper   *scrape.Service
	Sessions  *session.Store
	Kit       *tools.Kit
	Assistant *agent.Assistant
}

// Setup wires the full application. A missing maps API key is not fatal:
// navigation tools degrade to a configuration message.
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})

	data := dataset.New(dataset.Config{
		SessionsCSV:   cfg.SessionsCSV,
		OrganizersCSV: cfg.OrganizersCSV,
		SpeakersJSON:  cfg.SpeakersJSON,
		ScheduleJSON:  cfg.ScheduleJSON,
		Logger:        logger,
	})

	scraper := scrape.New(scrape.Config{
		BaseURL:   cfg.SiteBaseURL,
		CacheDir:  cfg.CacheDir,
		TTL:       cfg.CacheTTL,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})

	var provider tools.MapsProvider
	if cfg.MapsAPIKey != "" {
		client, err := maps.New(cfg.MapsAPIKey, logger)
		if err != nil {
			return nil, err
		}
		provider = client
	} else {
		logger.Warn("maps API key not configured, navigation tools disabled")
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)

	kit := tools.NewKit(cfg, data, scraper, provider, logger)
	kit.Register(g)

	sessions := session.NewStore(logger)
	engine := agent.NewGenkitEngine(g, cfg.ModelName, cfg.MaxTurns, kit.Refs(), logger)
	assistant := agent.New(cfg, engine, sessions, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Genkit:    g,
		Data:      data,
		Scraper:   scraper,
		Sessions:  sessions,
		Kit:       kit,
		Assistant: assistant,
	}, nil
}
