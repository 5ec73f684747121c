package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"neupages/internal/bootstrap/config"
	"neupages/internal/bootstrap/logging"
	cacheinfra "neupages/internal/infrastructure/cache"
	manifestinfra "neupages/internal/infrastructure/manifest"
	"neupages/internal/infrastructure/neuprint"
	queueinfra "neupages/internal/infrastructure/queue"
	"neupages/internal/ports"
	"neupages/internal/usecase/report"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideApp),
	fx.Provide(provideCompositeCache),
	fx.Provide(func(c *cacheinfra.CompositeCache) ports.Cache { return c }),
	fx.Provide(provideFileQueue),
	fx.Provide(func(q *queueinfra.FileQueue) ports.Queue { return q }),
	fx.Provide(queueinfra.NewClaimManager),
	fx.Provide(func(m *queueinfra.ClaimManager) ports.Claims { return m }),
	fx.Provide(provideManifest),
	fx.Provide(func(t *manifestinfra.Tracker) ports.Manifest { return t }),
	fx.Provide(provideSource),
	fx.Provide(func(c *neuprint.Client) ports.NeuronSource { return c }),
	fx.Provide(provideService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideApp(cfg config.Config) *App {
	return &App{Config: cfg}
}

func provideCompositeCache(cfg config.Config) *cacheinfra.CompositeCache {
	memory := cacheinfra.NewMemoryCache(cfg.Cache.MemoryMaxEntries, cfg.Cache.MemoryMaxBytes)
	store := cacheinfra.NewEntryStore(cfg.Cache.Dir)
	return cacheinfra.NewCompositeCache(memory, store)
}

func provideFileQueue(cfg config.Config) *queueinfra.FileQueue {
	return queueinfra.NewFileQueue(cfg.Queue.Dir)
}

func provideManifest(cfg config.Config) *manifestinfra.Tracker {
	return manifestinfra.NewTracker(cfg.Cache.Dir)
}

func provideSource(cfg config.Config) (*neuprint.Client, error) {
	return neuprint.NewClient(neuprint.Config{
		Server:  cfg.NeuPrint.Server,
		Dataset: cfg.NeuPrint.Dataset,
		Token:   cfg.NeuPrint.Token,
		Timeout: cfg.NeuPrint.Timeout,
	})
}

func provideService(
	lc fx.Lifecycle,
	cfg config.Config,
	cache ports.Cache,
	queue ports.Queue,
	claims ports.Claims,
	manifest ports.Manifest,
	source ports.NeuronSource,
) (*report.Service, error) {
	service := report.NewService(cache, queue, claims, manifest, source, report.Options{
		OutputDir:    cfg.Output.Dir,
		Dataset:      cfg.NeuPrint.Dataset,
		CacheTTL:     cfg.Cache.TTL,
		PollInterval: cfg.Queue.PollInterval,
	})

	watcher, err := queueinfra.NewWatcher(cfg.Queue.Dir, cfg.Queue.PollInterval)
	if err != nil {
		return nil, err
	}
	service.SetWatcher(watcher)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return watcher.Close()
		},
	})

	return service, nil
}
