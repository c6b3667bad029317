package mqttserver

import (
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/adapters/tlsconfig"
)

// Options configures the zone-side MQTT client.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSCA     string
	TLSCert   string
	TLSKey    string
	Timeout   time.Duration
	Logger    *zap.Logger
	// Trace logs every payload at debug level.
	Trace bool
}

// MessageHandler receives one message.
type MessageHandler func(topic string, payload []byte)

// Client wraps an MQTT connection for the zone daemon.
type Client struct {
	client  paho.Client
	log     *zap.Logger
	trace   bool
	timeout time.Duration
}

// NewClient connects to MQTT.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	clientOpts := paho.NewClientOptions().AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetConnectTimeout(opts.Timeout)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetOrderMatters(false)
	clientOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		opts.Logger.Warn("mqtt connection lost", zap.Error(err))
	})

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	tlsConfig, err := tlsconfig.Client(tlsconfig.Paths{CA: opts.TLSCA, Cert: opts.TLSCert, Key: opts.TLSKey})
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		clientOpts.SetTLSConfig(tlsConfig)
	}

	client := paho.NewClient(clientOpts)
	if token := client.Connect(); !token.WaitTimeout(opts.Timeout) {
		return nil, errors.New("mqtt connect timed out")
	} else if token.Error() != nil {
		return nil, token.Error()
	}

	return &Client{client: client, log: opts.Logger, trace: opts.Trace, timeout: opts.Timeout}, nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

// Publish publishes a message.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if c.trace {
		c.log.Debug("mqtt publish", zap.String("topic", topic), zap.Bool("retained", retained), zap.String("payload", truncatePayload(payload)))
	}
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Subscribe subscribes handler to topic.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	c.log.Debug("mqtt subscribe", zap.String("topic", topic))
	wrapped := func(_ paho.Client, msg paho.Message) {
		if c.trace {
			c.log.Debug("mqtt message", zap.String("topic", msg.Topic()), zap.String("payload", truncatePayload(msg.Payload())))
		}
		handler(msg.Topic(), msg.Payload())
	}
	token := c.client.Subscribe(topic, qos, wrapped)
	token.Wait()
	return token.Error()
}

// Unsubscribe unsubscribes from a topic.
func (c *Client) Unsubscribe(topic string) error {
	c.log.Debug("mqtt unsubscribe", zap.String("topic", topic))
	token := c.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

func truncatePayload(payload []byte) string {
	const max = 1024
	if len(payload) <= max {
		return string(payload)
	}
	return string(payload[:max]) + "..."
}
