package mqttbroker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/adapters/tlsconfig"
)

// DefaultListen is the listen address used when none is configured.
const DefaultListen = "127.0.0.1:1883"

// Config configures the embedded broker.
type Config struct {
	Listen         string
	AllowAnonymous bool
	Username       string
	Password       string
	TLSCA          string
	TLSCert        string
	TLSKey         string
}

// TLSEnabled reports whether any TLS material is configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCert != "" || c.TLSKey != "" || c.TLSCA != ""
}

// URL returns the client URL for the configured listener.
func (c Config) URL() string {
	listen := c.Listen
	if strings.TrimSpace(listen) == "" {
		listen = DefaultListen
	}
	return BrokerURL(listen, c.TLSEnabled())
}

// Broker is an in-process MQTT broker for zoned and tests.
type Broker struct {
	log    *zap.Logger
	server *mqtt.Server
	config Config
}

// New creates a broker. It does not listen until Run or Start.
func New(log *zap.Logger, cfg Config) (*Broker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = DefaultListen
	}
	server, err := newServer(log, cfg)
	if err != nil {
		return nil, err
	}
	return &Broker{log: log, server: server, config: cfg}, nil
}

// Start adds the TCP listener and serves in the background.
func (b *Broker) Start() error {
	listenerConfig := listeners.Config{ID: "tcp-zoned", Address: b.config.Listen}
	if b.config.TLSEnabled() {
		tlsConfig, err := tlsconfig.Server(tlsconfig.Paths{CA: b.config.TLSCA, Cert: b.config.TLSCert, Key: b.config.TLSKey})
		if err != nil {
			return err
		}
		listenerConfig.TLSConfig = tlsConfig
	}
	if err := b.server.AddListener(listeners.NewTCP(listenerConfig)); err != nil {
		return err
	}
	go func() {
		if err := b.server.Serve(); err != nil {
			b.log.Error("broker serve failed", zap.Error(err))
		}
	}()
	b.log.Info("broker listening", zap.String("listen", b.config.Listen))
	return nil
}

// Run starts the broker and blocks until ctx is done.
func (b *Broker) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return b.Close()
}

// Close stops the broker.
func (b *Broker) Close() error {
	return b.server.Close()
}

// WaitReady dials the listener until it accepts or timeout elapses.
func (b *Broker) WaitReady(timeout time.Duration) error {
	host, port, err := net.SplitHostPort(b.config.Listen)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	addr := net.JoinHostPort(host, port)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("broker not ready at %s", addr)
}

func newServer(log *zap.Logger, cfg Config) (*mqtt.Server, error) {
	server := mqtt.New(&mqtt.Options{InlineClient: true, Logger: newSlogLogger(log)})

	switch {
	case cfg.AllowAnonymous:
		if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
			return nil, err
		}
	case cfg.Username != "":
		ledger := &auth.Ledger{
			Auth: auth.AuthRules{{Username: auth.RString(cfg.Username), Password: auth.RString(cfg.Password), Allow: true}},
			ACL:  auth.ACLRules{{Username: auth.RString(cfg.Username), Filters: auth.Filters{auth.RString("#"): auth.ReadWrite}}},
		}
		if err := server.AddHook(new(auth.Hook), &auth.Options{Ledger: ledger}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("embedded broker requires allow_anonymous or username")
	}
	return server, nil
}

// BrokerURL returns the broker URL for a listen address.
func BrokerURL(listen string, tlsEnabled bool) string {
	scheme := "mqtt"
	if tlsEnabled {
		scheme = "mqtts"
	}
	return fmt.Sprintf("%s://%s", scheme, listen)
}
