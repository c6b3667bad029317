package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

// queuePageSize is the window requested when reading a queue.
const queuePageSize = 500

// Client sends zone bus commands on behalf of Players and discovers them.
type Client struct {
	Broker   ports.Broker
	Clock    ports.Clock
	IDGen    ports.IDGen
	Identity string
	Log      *zap.Logger
}

var _ ports.Discoverer = (*Client)(nil)

// Discover lists the zones that have announced presence.
func (c *Client) Discover(ctx context.Context) ([]ports.Player, error) {
	presence, err := c.Broker.ListPresence(ctx)
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	out := make([]ports.Player, 0, len(presence))
	for _, p := range presence {
		out = append(out, &Player{client: c, address: p.Address, name: p.Name})
	}
	return out, nil
}

// ForAddress returns a Player for address without contacting it.
func (c *Client) ForAddress(address string) ports.Player {
	return &Player{client: c, address: address}
}

func (c *Client) send(ctx context.Context, address string, cmdType string, body any, out any) error {
	if body == nil {
		body = struct{}{}
	}
	cmd, err := zone.NewCommand(cmdType, body)
	if err != nil {
		return err
	}
	cmd.ID = c.IDGen.NewID()
	cmd.TS = c.Clock.NowUnix()
	cmd.From = c.Identity
	cmd.ReplyTo = c.Broker.ReplyTopic()

	reply, err := c.Broker.PublishCommand(ctx, address, cmd)
	if err != nil {
		return fmt.Errorf("%s: %w", cmdType, err)
	}
	if !reply.OK {
		if reply.Err != nil {
			return fmt.Errorf("%s: %w", cmdType, reply.Err)
		}
		return fmt.Errorf("%s: %w", cmdType, errors.New("command rejected"))
	}
	if out == nil || len(reply.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply.Body, out); err != nil {
		return fmt.Errorf("%s: decode reply: %w", cmdType, err)
	}
	return nil
}

func (c *Client) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}
