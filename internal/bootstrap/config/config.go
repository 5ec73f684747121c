package config

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"neupages/internal/bootstrap/logging"
	"neupages/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	NeuPrint NeuPrintConfig `mapstructure:"neuprint"`
	Output   OutputConfig   `mapstructure:"output"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type NeuPrintConfig struct {
	Server  string        `mapstructure:"server"`
	Dataset string        `mapstructure:"dataset"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type CacheConfig struct {
	Dir              string        `mapstructure:"dir"`
	TTL              time.Duration `mapstructure:"ttl"`
	MemoryMaxEntries int           `mapstructure:"memory_max_entries"`
	MemoryMaxBytes   int64         `mapstructure:"memory_max_bytes"`
}

type QueueConfig struct {
	Dir          string        `mapstructure:"dir"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	RecoverAfter time.Duration `mapstructure:"recover_after"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Output.Dir == "" {
		return Config{}, errors.New("output.dir is required")
	}

	// Cache and queue live under the output dir unless pointed elsewhere,
	// mirroring the layout page consumers already expect.
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(cfg.Output.Dir, ".cache")
	}
	if cfg.Queue.Dir == "" {
		cfg.Queue.Dir = filepath.Join(cfg.Output.Dir, ".queue")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("neuprint_server", cfg.NeuPrint.Server),
		slog.String("neuprint_dataset", cfg.NeuPrint.Dataset),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "neupages")
	v.SetDefault("app.env", "local")
	v.SetDefault("neuprint.server", "https://neuprint.janelia.org")
	v.SetDefault("neuprint.dataset", "hemibrain:v1.2.1")
	v.SetDefault("neuprint.timeout", "30s")
	v.SetDefault("output.dir", "output")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.memory_max_entries", 512)
	v.SetDefault("cache.memory_max_bytes", 0)
	v.SetDefault("queue.poll_interval", "2s")
	v.SetDefault("queue.recover_after", "0s")
}
