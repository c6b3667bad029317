// Package zonesimtest provides an in-process bus for tests that drive a
// simulated household without MQTT.
package zonesimtest

import (
	"context"
	"fmt"

	"github.com/mikey-austin/socos/internal/zonesim"
	"github.com/mikey-austin/socos/pkg/zone"
)

// Broker delivers bus commands straight to a System in process.
type Broker struct {
	System *zonesim.System
}

// ReplyTopic returns a fixed name; replies are returned directly.
func (b Broker) ReplyTopic() string { return "local" }

// PublishCommand hands cmd to the addressed zone.
func (b Broker) PublishCommand(ctx context.Context, address string, cmd zone.CommandEnvelope) (zone.ReplyEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return zone.ReplyEnvelope{}, err
	}
	return b.System.Handle(address, cmd), nil
}

// ListPresence returns every zone's presence.
func (b Broker) ListPresence(ctx context.Context) ([]zone.Presence, error) {
	out := make([]zone.Presence, 0)
	for _, addr := range b.System.Addresses() {
		if p, ok := b.System.Presence(addr); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetPresence returns one zone's presence.
func (b Broker) GetPresence(ctx context.Context, address string) (zone.Presence, error) {
	p, ok := b.System.Presence(address)
	if !ok {
		return zone.Presence{}, fmt.Errorf("no presence for %s", address)
	}
	return p, nil
}
