package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/adapters/clock"
	"github.com/mikey-austin/socos/internal/adapters/mqttbroker"
	"github.com/mikey-austin/socos/internal/adapters/mqttserver"
	"github.com/mikey-austin/socos/internal/logging"
	"github.com/mikey-austin/socos/internal/zoned"
)

type overrides struct {
	broker    string
	identity  string
	topicBase string
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath  string
		printConfig bool
		dryRun      bool
		over        overrides
	)

	root := &cobra.Command{
		Use:          "zoned",
		Short:        "Simulated zone players on an MQTT bus",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath, over)
			if err != nil {
				return err
			}
			if printConfig {
				return printResolvedConfig(cmd.OutOrStdout(), cfg)
			}
			if dryRun {
				return nil
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg)
		},
	}

	defaultConfig, err := zoned.DefaultConfigPath()
	if err != nil {
		defaultConfig = "zoned.toml"
	}
	flags := root.Flags()
	flags.StringVar(&configPath, "config", defaultConfig, "config file path")
	flags.StringVar(&over.broker, "broker", "", "MQTT broker URL override")
	flags.StringVar(&over.identity, "identity", "", "server identity override")
	flags.StringVar(&over.topicBase, "topic-base", "", "topic base override")
	flags.StringVar(&over.logLevel, "log-level", "", "log level override")
	flags.StringVar(&over.logFormat, "log-format", "", "log format override (console|json)")
	flags.BoolVar(&printConfig, "print-config", false, "print resolved config and exit")
	flags.BoolVar(&dryRun, "dry-run", false, "validate config and exit")
	return root
}

func loadConfig(path string, over overrides) (zoned.Config, error) {
	cfg, err := zoned.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = zoned.Config{EmbeddedMQTT: zoned.EmbeddedMQTTConfig{Enabled: true, AllowAnonymous: true}}
	} else if err != nil {
		return zoned.Config{}, err
	}
	if over.broker != "" {
		cfg.Server.Broker = over.broker
	}
	if over.identity != "" {
		cfg.Server.Identity = over.identity
	}
	if over.topicBase != "" {
		cfg.Server.TopicBase = over.topicBase
	}
	if over.logLevel != "" {
		cfg.Server.LogLevel = over.logLevel
	}
	if over.logFormat != "" {
		cfg.Server.LogFormat = over.logFormat
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if err := cfg.Normalize(); err != nil {
		return zoned.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg zoned.Config) error {
	logger := logging.New(logging.Config{App: "zoned", Level: cfg.Server.LogLevel, Format: cfg.Server.LogFormat})
	defer func() { _ = logger.Sync() }()

	logger.Info("zoned starting",
		zap.String("broker", cfg.Server.Broker),
		zap.String("identity", cfg.Server.Identity),
		zap.String("topic_base", cfg.Server.TopicBase),
		zap.Int("zones", len(cfg.Zones)),
		zap.Bool("embedded_mqtt", cfg.EmbeddedMQTT.Enabled),
	)

	runners := []zoned.Runner{}
	if cfg.EmbeddedMQTT.Enabled {
		broker, err := mqttbroker.New(logger.With(zap.String("runner", "embedded_mqtt")), cfg.EmbeddedMQTT.Broker())
		if err != nil {
			return err
		}
		if err := broker.Start(); err != nil {
			return err
		}
		defer func() { _ = broker.Close() }()
		if err := broker.WaitReady(3 * time.Second); err != nil {
			return err
		}
	}

	client, err := mqttserver.NewClient(mqttserver.Options{
		BrokerURL: cfg.Server.Broker,
		ClientID:  fmt.Sprintf("%s-%d", cfg.Server.Identity, time.Now().UnixNano()),
		Username:  cfg.Server.Auth.User,
		Password:  cfg.Server.Auth.Pass,
		TLSCA:     cfg.Server.TLS.CA,
		TLSCert:   cfg.Server.TLS.Cert,
		TLSKey:    cfg.Server.TLS.Key,
		Logger:    logger.With(zap.String("component", "mqtt")),
		Trace:     logging.ParseLevel(cfg.Server.LogLevel) == zap.DebugLevel,
	})
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	defer client.Close()

	system, err := zoned.BuildSystem(cfg, clock.Clock{})
	if err != nil {
		return err
	}
	server := zoned.NewZoneServer(logger.With(zap.String("runner", "zones")), client, system, cfg.Server.TopicBase)
	runners = append(runners, zoned.Runner{Name: "zones", Run: server.Run})

	return zoned.Supervisor{Logger: logger}.Run(ctx, runners)
}

func printResolvedConfig(w io.Writer, cfg zoned.Config) error {
	if _, err := fmt.Fprintf(w, "broker=%s identity=%s topic_base=%s log_level=%s log_format=%s embedded_mqtt=%t\n",
		cfg.Server.Broker,
		cfg.Server.Identity,
		cfg.Server.TopicBase,
		cfg.Server.LogLevel,
		cfg.Server.LogFormat,
		cfg.EmbeddedMQTT.Enabled,
	); err != nil {
		return err
	}
	for _, z := range cfg.Zones {
		coordinator := z.Coordinator
		if coordinator == "" {
			coordinator = "-"
		}
		if _, err := fmt.Fprintf(w, "zone address=%s name=%q coordinator=%s\n", z.Address, z.Name, coordinator); err != nil {
			return err
		}
	}
	return nil
}
