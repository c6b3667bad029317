package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/adapters/tlsconfig"
	"github.com/mikey-austin/socos/pkg/zone"
)

// ErrTimeout is returned when no reply or presence arrives in time.
var ErrTimeout = errors.New("timeout waiting for reply")

// Options configures the MQTT client.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSCA     string
	TLSCert   string
	TLSKey    string
	TopicBase string
	Timeout   time.Duration
	// PresenceWait is how long retained presence is collected.
	PresenceWait time.Duration
	Logger       *zap.Logger
}

// Client is an MQTT adapter implementing the Broker port.
type Client struct {
	client       paho.Client
	replyTopic   string
	topicBase    string
	timeout      time.Duration
	presenceWait time.Duration
	log          *zap.Logger

	mu            sync.Mutex
	replyHandlers map[string]chan zone.ReplyEnvelope
}

// NewClient creates and connects an MQTT client.
func NewClient(opts Options) (*Client, error) {
	if opts.TopicBase == "" {
		opts.TopicBase = zone.BaseTopic
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.PresenceWait == 0 {
		opts.PresenceWait = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &Client{
		replyTopic:    zone.TopicReply(opts.TopicBase, opts.ClientID),
		topicBase:     opts.TopicBase,
		timeout:       opts.Timeout,
		presenceWait:  opts.PresenceWait,
		log:           opts.Logger,
		replyHandlers: map[string]chan zone.ReplyEnvelope{},
	}

	clientOpts := paho.NewClientOptions().AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetConnectTimeout(opts.Timeout)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetOnConnectHandler(func(client paho.Client) {
		token := client.Subscribe(c.replyTopic, 1, c.handleReply)
		token.Wait()
	})
	clientOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.log.Warn("mqtt connection lost", zap.Error(err))
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

	c.client = paho.NewClient(clientOpts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.BrokerURL, token.Error())
	}
	if token := c.client.Subscribe(c.replyTopic, 1, c.handleReply); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("subscribe replies: %w", token.Error())
	}
	c.log.Debug("mqtt connected", zap.String("broker", opts.BrokerURL), zap.String("reply_topic", c.replyTopic))

	return c, nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

// ReplyTopic returns the topic used for replies.
func (c *Client) ReplyTopic() string {
	return c.replyTopic
}

// PublishCommand publishes a command and waits for a reply.
func (c *Client) PublishCommand(ctx context.Context, address string, cmd zone.CommandEnvelope) (zone.ReplyEnvelope, error) {
	req, err := json.Marshal(cmd)
	if err != nil {
		return zone.ReplyEnvelope{}, fmt.Errorf("marshal command: %w", err)
	}

	replyCh := make(chan zone.ReplyEnvelope, 1)
	c.mu.Lock()
	c.replyHandlers[cmd.ID] = replyCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.replyHandlers, cmd.ID)
		c.mu.Unlock()
	}()

	topic := zone.TopicCommands(c.topicBase, address)
	c.log.Debug("publish command", zap.String("topic", topic), zap.String("type", cmd.Type), zap.String("id", cmd.ID))
	if token := c.client.Publish(topic, 1, false, req); token.Wait() && token.Error() != nil {
		return zone.ReplyEnvelope{}, fmt.Errorf("publish %s: %w", cmd.Type, token.Error())
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return zone.ReplyEnvelope{}, ctx.Err()
	case reply := <-replyCh:
		return reply, nil
	case <-timer.C:
		return zone.ReplyEnvelope{}, fmt.Errorf("%s to %s: %w", cmd.Type, address, ErrTimeout)
	}
}

// ListPresence collects retained presence messages.
func (c *Client) ListPresence(ctx context.Context) ([]zone.Presence, error) {
	collect := make(map[string]zone.Presence)
	lock := sync.Mutex{}

	handler := func(_ paho.Client, msg paho.Message) {
		var presence zone.Presence
		if err := json.Unmarshal(msg.Payload(), &presence); err != nil {
			c.log.Debug("drop presence", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		if presence.Address == "" {
			return
		}
		lock.Lock()
		collect[presence.Address] = presence
		lock.Unlock()
	}

	topic := zone.TopicPresenceWildcard(c.topicBase)
	if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("subscribe presence: %w", token.Error())
	}
	defer func() {
		token := c.client.Unsubscribe(topic)
		token.Wait()
	}()

	wait := time.NewTimer(c.presenceWait)
	select {
	case <-ctx.Done():
		wait.Stop()
	case <-wait.C:
	}

	lock.Lock()
	defer lock.Unlock()
	out := make([]zone.Presence, 0, len(collect))
	for _, presence := range collect {
		out = append(out, presence)
	}
	return out, nil
}

// GetPresence returns the retained presence of one zone.
func (c *Client) GetPresence(ctx context.Context, address string) (zone.Presence, error) {
	presenceCh := make(chan zone.Presence, 1)
	handler := func(_ paho.Client, msg paho.Message) {
		var presence zone.Presence
		if err := json.Unmarshal(msg.Payload(), &presence); err != nil {
			return
		}
		select {
		case presenceCh <- presence:
		default:
		}
	}

	topic := zone.TopicPresence(c.topicBase, address)
	if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		return zone.Presence{}, fmt.Errorf("subscribe presence: %w", token.Error())
	}
	defer func() {
		token := c.client.Unsubscribe(topic)
		token.Wait()
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return zone.Presence{}, ctx.Err()
	case presence := <-presenceCh:
		return presence, nil
	case <-timer.C:
		return zone.Presence{}, fmt.Errorf("presence of %s: %w", address, ErrTimeout)
	}
}

func (c *Client) handleReply(_ paho.Client, msg paho.Message) {
	var reply zone.ReplyEnvelope
	if err := json.Unmarshal(msg.Payload(), &reply); err != nil {
		c.log.Debug("drop reply", zap.Error(err))
		return
	}

	c.mu.Lock()
	ch, ok := c.replyHandlers[reply.ID]
	c.mu.Unlock()
	if !ok {
		return
	}

	select {
	case ch <- reply:
	default:
	}
}
