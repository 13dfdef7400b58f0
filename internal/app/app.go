// Package app assembles the eSIM shop bot: configuration, infrastructure,
// domain services, and the Telegram runtime options.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
	"log/slog"

	corebootstrap "esimbot/core/bootstrap"
	coreconfig "esimbot/core/config"
	coredatabase "esimbot/core/database"
	"esimbot/core/logger"
	coretelegram "esimbot/core/telegram"
	"esimbot/core/telegram/router"
	"esimbot/core/telegram/state"
	"esimbot/internal/bot"
	"esimbot/internal/catalog"
	"esimbot/internal/esim"
	"esimbot/internal/flow"
	"esimbot/internal/geo"
	"esimbot/internal/order"
	"esimbot/internal/payment"
)

// Config aggregates core settings with the shop-specific sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Catalog  catalog.Config      `yaml:"catalog"`
	Shop     flow.Config         `yaml:"shop"`
	Tron     payment.Config      `yaml:"tron"`
	Esim     esim.Config         `yaml:"esim"`
	Geo      geo.Config          `yaml:"geo"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// LoadConfig reads the YAML config file and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("app: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("app: parse config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("app: process env: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if cfg.Shop.WalletAddress == "" {
		return nil, fmt.Errorf("app: shop.wallet_address is required")
	}
	if cfg.Catalog.Path == "" {
		return nil, fmt.Errorf("app: catalog.path is required")
	}
	return &cfg, nil
}

// App holds the assembled services.
type App struct {
	cfg      *Config
	states   state.Manager
	handlers *bot.Handlers
	geo      *geo.Service
}

// Bootstrap initializes infrastructure and wires the domain services.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	plans := catalog.New(cfg.Catalog)
	if err := plans.Load(); err != nil {
		return nil, err
	}

	geoSvc := geo.NewService(cfg.Geo)

	// Plan regions that match no known continent usually mean a typo in the
	// price table; flag them but keep serving.
	continents := geoSvc.Continents()
	for _, region := range plans.Regions() {
		if region == "Global" {
			continue
		}
		if _, ok := continents[region]; !ok {
			logger.Warn(context.Background(), "service.catalog", "catalog.region.unknown",
				slog.String("status", "ok"),
				slog.String("region", region),
			)
		}
	}

	states := state.NewMemoryManager()
	orders := order.NewStore(res.DB)
	payments := payment.NewClient(cfg.Tron)
	provisioner := esim.NewClient(cfg.Esim)

	svc := flow.NewService(cfg.Shop, states, plans, orders, payments, provisioner, geoSvc)

	return &App{
		cfg:      cfg,
		states:   states,
		handlers: bot.NewHandlers(svc, states),
		geo:      geoSvc,
	}, nil
}

// TelegramRunOptions builds the bot runtime configuration.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.handlers.Register(reg)

	core := &a.cfg.Core

	var routes []coretelegram.Route
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.states, reg, router.TextOptions{})...)

	middlewares := coretelegram.DefaultMiddlewares(core, nil)
	middlewares = append(middlewares, coretelegram.Middleware{
		Name: "session",
		Use:  state.WithSession(a.states),
	})

	opts := coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: middlewares,
		Routes:      routes,
	}

	opts.OnStart = func(ctx context.Context, _ coretelegram.Runtime) error {
		// The built-in reference table already serves lookups; a failed
		// refresh only delays fresher data.
		if a.cfg.Geo.BaseURL != "" {
			if err := a.geo.Refresh(ctx); err != nil {
				logger.Warn(ctx, "service.geo", "refresh.startup",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
		}
		return nil
	}

	return opts, nil
}
