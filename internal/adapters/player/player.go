package player

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

// Player controls one zone over the bus.
type Player struct {
	client  *Client
	address string
	name    string
}

var _ ports.Player = (*Player)(nil)

// Address returns the zone address.
func (p *Player) Address() string { return p.address }

// PlayerName returns the announced zone name.
func (p *Player) PlayerName(ctx context.Context) (string, error) {
	if p.name != "" {
		return p.name, nil
	}
	presence, err := p.client.Broker.GetPresence(ctx, p.address)
	if err != nil {
		return "", err
	}
	p.name = presence.Name
	return p.name, nil
}

// Coordinator returns the player coordinating this zone's group.
func (p *Player) Coordinator(ctx context.Context) (ports.Player, error) {
	presence, err := p.client.Broker.GetPresence(ctx, p.address)
	if err != nil {
		return nil, err
	}
	if p.name == "" {
		p.name = presence.Name
	}
	if presence.IsCoordinator() {
		return p, nil
	}
	p.client.logger().Debug("zone is grouped",
		zap.String("address", p.address),
		zap.String("coordinator", presence.Coordinator))
	return p.client.ForAddress(presence.Coordinator), nil
}

func (p *Player) send(ctx context.Context, cmdType string, body any, out any) error {
	return p.client.send(ctx, p.address, cmdType, body, out)
}

func (p *Player) Play(ctx context.Context) error     { return p.send(ctx, zone.CmdPlay, nil, nil) }
func (p *Player) Pause(ctx context.Context) error    { return p.send(ctx, zone.CmdPause, nil, nil) }
func (p *Player) Stop(ctx context.Context) error     { return p.send(ctx, zone.CmdStop, nil, nil) }
func (p *Player) Next(ctx context.Context) error     { return p.send(ctx, zone.CmdNext, nil, nil) }
func (p *Player) Previous(ctx context.Context) error { return p.send(ctx, zone.CmdPrevious, nil, nil) }

// PlayFromQueue plays the zero-based queue index.
func (p *Player) PlayFromQueue(ctx context.Context, index int) error {
	return p.send(ctx, zone.CmdPlayFromQueue, zone.PlayFromQueueBody{Index: index}, nil)
}

// TransportState returns PLAYING, PAUSED_PLAYBACK, STOPPED or TRANSITIONING.
func (p *Player) TransportState(ctx context.Context) (string, error) {
	var reply zone.TransportInfoReply
	if err := p.send(ctx, zone.CmdTransportInfo, nil, &reply); err != nil {
		return "", err
	}
	return reply.State, nil
}

func (p *Player) PlayMode(ctx context.Context) (string, error) {
	var reply zone.PlayModeBody
	if err := p.send(ctx, zone.CmdGetPlayMode, nil, &reply); err != nil {
		return "", err
	}
	return reply.Mode, nil
}

func (p *Player) SetPlayMode(ctx context.Context, mode string) error {
	return p.send(ctx, zone.CmdSetPlayMode, zone.PlayModeBody{Mode: mode}, nil)
}

func (p *Player) getSetting(ctx context.Context, setting string) (int, error) {
	var reply zone.RenderingReply
	if err := p.send(ctx, zone.CmdRenderingGet, zone.RenderingGetBody{Setting: setting}, &reply); err != nil {
		return 0, err
	}
	return reply.Value, nil
}

func (p *Player) setSetting(ctx context.Context, setting string, value int) error {
	return p.send(ctx, zone.CmdRenderingSet, zone.RenderingSetBody{Setting: setting, Value: value}, nil)
}

func (p *Player) Volume(ctx context.Context) (int, error) { return p.getSetting(ctx, zone.SettingVolume) }
func (p *Player) SetVolume(ctx context.Context, v int) error {
	return p.setSetting(ctx, zone.SettingVolume, v)
}
func (p *Player) Bass(ctx context.Context) (int, error) { return p.getSetting(ctx, zone.SettingBass) }
func (p *Player) SetBass(ctx context.Context, v int) error {
	return p.setSetting(ctx, zone.SettingBass, v)
}
func (p *Player) Treble(ctx context.Context) (int, error) { return p.getSetting(ctx, zone.SettingTreble) }
func (p *Player) SetTreble(ctx context.Context, v int) error {
	return p.setSetting(ctx, zone.SettingTreble, v)
}

func (p *Player) CurrentTrack(ctx context.Context) (zone.TrackInfo, error) {
	var reply zone.TrackInfo
	if err := p.send(ctx, zone.CmdTrackCurrent, nil, &reply); err != nil {
		return zone.TrackInfo{}, err
	}
	return reply, nil
}

// Queue reads the whole queue, a window at a time.
func (p *Player) Queue(ctx context.Context) ([]zone.QueueItem, error) {
	out := make([]zone.QueueItem, 0)
	for {
		var reply zone.QueueGetReply
		body := zone.QueueGetBody{Start: len(out), Count: queuePageSize}
		if err := p.send(ctx, zone.CmdQueueGet, body, &reply); err != nil {
			return nil, err
		}
		out = append(out, reply.Items...)
		if len(reply.Items) == 0 || len(out) >= reply.Total {
			return out, nil
		}
	}
}

// AddToQueue appends item and returns the one-based position it landed at.
func (p *Player) AddToQueue(ctx context.Context, item zone.LibraryItem) (int, error) {
	var reply zone.QueueAddReply
	if err := p.send(ctx, zone.CmdQueueAdd, zone.QueueAddBody{Item: item}, &reply); err != nil {
		return 0, err
	}
	return reply.Position, nil
}

// RemoveFromQueue removes the zero-based queue index.
func (p *Player) RemoveFromQueue(ctx context.Context, index int) error {
	return p.send(ctx, zone.CmdQueueRemove, zone.QueueRemoveBody{Index: index}, nil)
}

func (p *Player) ClearQueue(ctx context.Context) error {
	return p.send(ctx, zone.CmdQueueClear, nil, nil)
}

func (p *Player) SpeakerInfo(ctx context.Context) (map[string]string, error) {
	var reply zone.DeviceInfoReply
	if err := p.send(ctx, zone.CmdDeviceInfo, nil, &reply); err != nil {
		return nil, err
	}
	return reply.Info, nil
}

// PartyMode joins every zone to this zone's group.
func (p *Player) PartyMode(ctx context.Context) error {
	return p.send(ctx, zone.CmdPartyMode, nil, nil)
}

// LibraryItems reads one page of a catalog category.
func (p *Player) LibraryItems(ctx context.Context, category string, start int, count int) (zone.LibraryItemsReply, error) {
	var reply zone.LibraryItemsReply
	body := zone.LibraryItemsBody{Category: category, Start: start, Count: count}
	if err := p.send(ctx, zone.CmdLibraryItems, body, &reply); err != nil {
		return zone.LibraryItemsReply{}, fmt.Errorf("page %d: %w", start, err)
	}
	return reply, nil
}
