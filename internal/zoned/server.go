package zoned

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/adapters/mqttserver"
	"github.com/mikey-austin/socos/internal/zonesim"
	"github.com/mikey-austin/socos/pkg/zone"
)

// Transport is the slice of an MQTT client the zone server needs.
type Transport interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler mqttserver.MessageHandler) error
	Unsubscribe(topic string) error
}

// ZoneServer exposes a simulated household on the zone bus.
type ZoneServer struct {
	transport Transport
	system    *zonesim.System
	topicBase string
	log       *zap.Logger
}

// NewZoneServer wires system to transport under topicBase.
func NewZoneServer(log *zap.Logger, transport Transport, system *zonesim.System, topicBase string) *ZoneServer {
	if log == nil {
		log = zap.NewNop()
	}
	if topicBase == "" {
		topicBase = zone.BaseTopic
	}
	s := &ZoneServer{transport: transport, system: system, topicBase: topicBase, log: log}
	system.OnGroupChange = s.announceAll
	return s
}

// Run subscribes to every zone's command topic and announces presence.
// Retained presence is cleared on shutdown.
func (s *ZoneServer) Run(ctx context.Context) error {
	topic := zone.TopicCommands(s.topicBase, "+")
	if err := s.transport.Subscribe(topic, 1, s.handleMessage); err != nil {
		return err
	}
	defer func() {
		_ = s.transport.Unsubscribe(topic)
	}()

	s.announceAll()
	<-ctx.Done()

	for _, addr := range s.system.Addresses() {
		if err := s.transport.Publish(zone.TopicPresence(s.topicBase, addr), 1, true, nil); err != nil {
			s.log.Warn("clear presence", zap.String("zone", addr), zap.Error(err))
		}
	}
	return nil
}

func (s *ZoneServer) announceAll() {
	for _, addr := range s.system.Addresses() {
		presence, ok := s.system.Presence(addr)
		if !ok {
			continue
		}
		payload, err := json.Marshal(presence)
		if err != nil {
			s.log.Error("marshal presence", zap.Error(err))
			continue
		}
		if err := s.transport.Publish(zone.TopicPresence(s.topicBase, addr), 1, true, payload); err != nil {
			s.log.Error("publish presence", zap.String("zone", addr), zap.Error(err))
		}
	}
}

func (s *ZoneServer) handleMessage(topic string, payload []byte) {
	address, ok := s.addressFor(topic)
	if !ok {
		s.log.Debug("ignoring topic", zap.String("topic", topic))
		return
	}
	var cmd zone.CommandEnvelope
	if err := json.Unmarshal(payload, &cmd); err != nil {
		s.log.Warn("invalid command", zap.String("zone", address), zap.Error(err))
		return
	}

	reply := s.system.Handle(address, cmd)
	s.log.Debug("command handled",
		zap.String("zone", address),
		zap.String("type", cmd.Type),
		zap.String("id", cmd.ID),
		zap.Bool("ok", reply.OK),
	)
	if cmd.ReplyTo == "" {
		return
	}
	out, err := json.Marshal(reply)
	if err != nil {
		s.log.Error("marshal reply", zap.Error(err))
		return
	}
	if err := s.transport.Publish(cmd.ReplyTo, 1, false, out); err != nil {
		s.log.Error("publish reply", zap.String("topic", cmd.ReplyTo), zap.Error(err))
	}
}

// addressFor extracts the zone address from "<base>/zone/<address>/cmd".
func (s *ZoneServer) addressFor(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, s.topicBase+"/zone/")
	if !ok {
		return "", false
	}
	address, ok := strings.CutSuffix(rest, "/cmd")
	if !ok || address == "" || strings.Contains(address, "/") {
		return "", false
	}
	return address, true
}
