package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tskpay/tskpay-core/internal/backup"
	"github.com/tskpay/tskpay-core/internal/commands"
	"github.com/tskpay/tskpay-core/internal/infrastructure/config"
	"github.com/tskpay/tskpay-core/internal/infrastructure/database"
	"github.com/tskpay/tskpay-core/internal/infrastructure/logging"
	"github.com/tskpay/tskpay-core/internal/infrastructure/mqtt"
)

// app holds the components built once configuration is loaded.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	manager *database.Manager
	service *commands.Service
	broker  *mqtt.Client
}

// getConfigPath returns the configuration file path from the flag or
// the TSKPAY_CONFIG environment variable. Empty means defaults only.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("TSKPAY_CONFIG")
}

// setup loads configuration and wires the command service.
func (a *app) setup(ctx context.Context, opts *rootOptions) error {
	// Use default logger until config is loaded
	a.log = logging.Default()

	configPath := getConfigPath(opts.ConfigPath)
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	if opts.Quiet {
		a.log = logging.Discard()
	} else {
		a.log = logging.New(cfg.Logging, version)
	}
	a.log.Debug("configuration loaded", "path", configPath)

	a.manager = database.NewManagerFromConfig(cfg)
	a.manager.SetLogger(a.log.With("component", "database"))

	a.service = commands.NewService(a.manager, backup.NewService(a.manager, cfg.Backup.Dir))
	a.service.SetLogger(a.log.With("component", "commands"))

	if cfg.ChangeFeed.Enabled {
		a.connectChangeFeed(ctx)
	}

	return nil
}

// connectChangeFeed attaches the MQTT change feed. A broker that cannot
// be reached is logged and the command runs without notifications.
func (a *app) connectChangeFeed(ctx context.Context) {
	feedCfg := a.cfg.ChangeFeed

	client, err := mqtt.Connect(feedCfg.MQTT, feedCfg.TopicPrefix)
	if err != nil {
		a.log.Warn("change feed unavailable",
			"broker", fmt.Sprintf("%s:%d", feedCfg.MQTT.Broker.Host, feedCfg.MQTT.Broker.Port),
			"error", err,
		)
		return
	}
	client.SetLogger(a.log.With("component", "changefeed"))

	if err := client.HealthCheck(ctx); err != nil {
		a.log.Warn("change feed unhealthy", "error", err)
	}

	a.broker = client
	a.service.SetNotifier(mqtt.NewChangeFeed(client, feedCfg.TopicPrefix, client.QoS()))
	a.log.Info("change feed connected",
		"broker", fmt.Sprintf("%s:%d", feedCfg.MQTT.Broker.Host, feedCfg.MQTT.Broker.Port),
		"topic", mqtt.Topics{Prefix: feedCfg.TopicPrefix}.AllChanges(),
	)
}

func (a *app) close() {
	if a.broker == nil {
		return
	}
	if err := a.broker.Close(); err != nil {
		a.log.Error("error closing MQTT", "error", err)
	}
}
