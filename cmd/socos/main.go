package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/adapters/clock"
	"github.com/mikey-austin/socos/internal/adapters/config"
	"github.com/mikey-austin/socos/internal/adapters/idgen"
	"github.com/mikey-austin/socos/internal/adapters/mqtt"
	"github.com/mikey-austin/socos/internal/adapters/output"
	"github.com/mikey-austin/socos/internal/adapters/player"
	"github.com/mikey-austin/socos/internal/core"
	"github.com/mikey-austin/socos/internal/logging"
	"github.com/mikey-austin/socos/internal/musicindex"
	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

type flags struct {
	configPath string
	broker     string
	topicBase  string
	identity   string
	timeout    time.Duration
	indexPath  string
	jsonOut    bool
	noColor    bool
	verbose    bool
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	var (
		f    flags
		code = core.ExitOK
	)
	root := &cobra.Command{
		Use:           "socos [flags] [command [args...]]",
		Short:         "Command console for zone players",
		Long:          "With no command, socos starts an interactive shell. Run 'socos help' for the command list.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, tokens []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, f)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(tokens) == 0 {
				code = a.shell(cmd.Context(), os.Stdin, os.Stdout)
				return nil
			}
			code = a.oneShot(cmd.Context(), tokens)
			return nil
		},
	}
	root.Flags().SetInterspersed(false)
	root.Flags().StringVar(&f.configPath, "config", "", "config file path")
	root.Flags().StringVarP(&f.broker, "broker", "b", "", "MQTT broker URL")
	root.Flags().StringVar(&f.topicBase, "topic-base", "", "MQTT topic base")
	root.Flags().StringVarP(&f.identity, "identity", "i", "", "controller identity")
	root.Flags().DurationVarP(&f.timeout, "timeout", "t", 0, "per-command reply timeout")
	root.Flags().StringVar(&f.indexPath, "index", "", "music index database path")
	root.Flags().BoolVarP(&f.jsonOut, "json", "j", false, "output newline-delimited json")
	root.Flags().BoolVar(&f.noColor, "no-color", false, "disable color")
	root.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return core.ExitUsage
	}
	return code
}

// app is the wired console.
type app struct {
	dispatcher *core.Dispatcher
	speakers   *core.SpeakerContext
	printer    output.Printer
	log        *zap.Logger
	timeout    time.Duration
	closers    []func()
}

func newApp(cfg config.Config, f flags) (*app, error) {
	settings, err := resolveSettings(cfg, f)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{Level: settings.LogLevel, Format: settings.LogFormat})
	printer := output.New(output.Options{JSON: f.jsonOut, NoColor: !settings.Color})

	mqttClient, err := mqtt.NewClient(mqtt.Options{
		BrokerURL: settings.Broker,
		ClientID:  fmt.Sprintf("socos-%d", time.Now().UnixNano()),
		Username:  cfg.Username,
		Password:  cfg.Password,
		TLSCA:     cfg.TLSCA,
		TLSCert:   cfg.TLSCert,
		TLSKey:    cfg.TLSKey,
		TopicBase: settings.TopicBase,
		Timeout:   settings.Timeout,
		Logger:    log.With(zap.String("component", "mqtt")),
	})
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	index := musicindex.New(musicindex.NewStore(settings.IndexPath, log.With(zap.String("component", "musicindex"))))

	players := &player.Client{
		Broker:   mqttClient,
		Clock:    clock.Clock{},
		IDGen:    idgen.Generator{},
		Identity: settings.Identity,
		Log:      log,
	}

	a, err := assemble(players, index, printer, settings.Aliases, log)
	if err != nil {
		_ = index.Close()
		mqttClient.Close()
		return nil, err
	}
	a.timeout = settings.Timeout
	a.closers = append(a.closers, func() { _ = index.Close() }, mqttClient.Close, func() { _ = log.Sync() })
	return a, nil
}

// resolveSettings merges flags over the config file.
func resolveSettings(cfg config.Config, f flags) (core.Config, error) {
	out := core.Config{
		Broker:    firstNonEmpty(f.broker, cfg.Broker),
		TopicBase: firstNonEmpty(f.topicBase, cfg.TopicBase, zone.BaseTopic),
		Identity:  defaultIdentity(f.identity, cfg.Identity),
		Timeout:   f.timeout,
		Color:     !f.noColor && (cfg.Color == nil || *cfg.Color),
		LogLevel:  firstNonEmpty(cfg.LogLevel, "warn"),
		LogFormat: cfg.LogFormat,
		Aliases:   cfg.Aliases,
	}
	if out.Broker == "" {
		return core.Config{}, fmt.Errorf("broker is required (set --broker or broker in config)")
	}
	if out.Timeout == 0 {
		timeout, err := cfg.TimeoutDuration(2 * time.Second)
		if err != nil {
			return core.Config{}, err
		}
		out.Timeout = timeout
	}
	if f.verbose {
		out.LogLevel = "debug"
	}
	indexPath, err := resolveIndexPath(f.indexPath, cfg.IndexPath)
	if err != nil {
		return core.Config{}, err
	}
	out.IndexPath = indexPath
	return out, nil
}

// assemble builds the dispatcher over already connected adapters.
func assemble(disc ports.Discoverer, index ports.MusicIndex, printer output.Printer, aliases map[string]string, log *zap.Logger) (*app, error) {
	speakers := core.NewSpeakerContext(disc, aliases)
	commands := &core.Commands{Speakers: speakers, Index: index}
	if hp, ok := printer.(*output.HumanPrinter); ok {
		commands.Emphasize = hp.Emphasize
	}
	dispatcher, err := core.NewDispatcher(commands, log)
	if err != nil {
		return nil, err
	}
	return &app{dispatcher: dispatcher, speakers: speakers, printer: printer, log: log, timeout: 2 * time.Second}, nil
}

// Close releases the index and the bus connection.
func (a *app) Close() {
	for _, fn := range a.closers {
		fn()
	}
}

// oneShot runs a single command and returns the process exit code.
func (a *app) oneShot(ctx context.Context, tokens []string) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := a.dispatcher.Run(ctx, tokens, a.printer)
	if err != nil {
		a.printer.Error(err)
	}
	return core.ExitCode(err)
}

func resolveIndexPath(flagVal, cfgVal string) (string, error) {
	if p := firstNonEmpty(flagVal, cfgVal); p != "" {
		return p, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, musicindex.FileName), nil
}

func defaultIdentity(flagVal string, cfgVal string) string {
	if id := firstNonEmpty(flagVal, cfgVal); id != "" {
		return id
	}
	usr, _ := user.Current()
	host, _ := os.Hostname()
	name := "socos"
	if usr != nil && usr.Username != "" {
		name = usr.Username
	}
	if host != "" {
		return strings.ToLower(name + "@" + host)
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
