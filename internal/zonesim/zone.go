package zonesim

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mikey-austin/socos/pkg/zone"
)

// Zone is one simulated player. Its state is guarded by the owning System.
type Zone struct {
	address     string
	name        string
	model       string
	uid         string
	coordinator string

	state    string
	mode     string
	settings map[string]int
	queue    *Queue
}

var settingRanges = map[string][2]int{
	zone.SettingVolume: {0, 100},
	zone.SettingBass:   {-10, 10},
	zone.SettingTreble: {-10, 10},
}

func newZone(cfg ZoneConfig) *Zone {
	return &Zone{
		address:     cfg.Address,
		name:        cfg.Name,
		model:       cfg.Model,
		uid:         "RINCON_" + strings.ToUpper(strings.NewReplacer(".", "", ":", "").Replace(cfg.Address)),
		coordinator: cfg.Coordinator,
		state:       zone.StateStopped,
		mode:        "NORMAL",
		settings: map[string]int{
			zone.SettingVolume: clamp(cfg.Volume, 0, 100),
			zone.SettingBass:   0,
			zone.SettingTreble: 0,
		},
		queue: &Queue{},
	}
}

type handlerFunc func(z *Zone, body json.RawMessage, lib *Library) (any, error)

// rejection is a command failure with a reply code.
type rejection struct {
	code string
	msg  string
}

func (r rejection) Error() string { return r.msg }

func reject(code, format string, args ...any) error {
	return rejection{code: code, msg: fmt.Sprintf(format, args...)}
}

var handlers = map[string]handlerFunc{
	zone.CmdPlay:          (*Zone).handlePlay,
	zone.CmdPause:         (*Zone).handlePause,
	zone.CmdStop:          (*Zone).handleStop,
	zone.CmdNext:          (*Zone).handleNext,
	zone.CmdPrevious:      (*Zone).handlePrevious,
	zone.CmdPlayFromQueue: (*Zone).handlePlayFromQueue,
	zone.CmdTransportInfo: (*Zone).handleTransportInfo,
	zone.CmdGetPlayMode:   (*Zone).handleGetPlayMode,
	zone.CmdSetPlayMode:   (*Zone).handleSetPlayMode,
	zone.CmdRenderingGet:  (*Zone).handleRenderingGet,
	zone.CmdRenderingSet:  (*Zone).handleRenderingSet,
	zone.CmdTrackCurrent:  (*Zone).handleTrackCurrent,
	zone.CmdQueueGet:      (*Zone).handleQueueGet,
	zone.CmdQueueAdd:      (*Zone).handleQueueAdd,
	zone.CmdQueueRemove:   (*Zone).handleQueueRemove,
	zone.CmdQueueClear:    (*Zone).handleQueueClear,
	zone.CmdDeviceInfo:    (*Zone).handleDeviceInfo,
	zone.CmdLibraryItems:  (*Zone).handleLibraryItems,
}

func (z *Zone) handle(cmd zone.CommandEnvelope, lib *Library, now int64) zone.ReplyEnvelope {
	handler, ok := handlers[cmd.Type]
	if !ok {
		return zone.NewErrorReply(cmd, now, zone.CodeUnsupported, "unsupported command")
	}
	body, err := handler(z, cmd.Body, lib)
	if err != nil {
		var r rejection
		if errors.As(err, &r) {
			return zone.NewErrorReply(cmd, now, r.code, r.msg)
		}
		return zone.NewErrorReply(cmd, now, zone.CodeInvalid, err.Error())
	}
	reply, err := zone.NewReply(cmd, now, body)
	if err != nil {
		return zone.NewErrorReply(cmd, now, zone.CodeInvalid, err.Error())
	}
	return reply
}

func decode(body json.RawMessage, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return reject(zone.CodeInvalid, "invalid body")
	}
	return nil
}

func (z *Zone) handlePlay(_ json.RawMessage, _ *Library) (any, error) {
	if z.queue.Len() == 0 {
		return nil, reject(zone.CodeInvalid, "queue is empty")
	}
	z.state = zone.StatePlaying
	return nil, nil
}

func (z *Zone) handlePause(_ json.RawMessage, _ *Library) (any, error) {
	if z.state != zone.StatePlaying {
		return nil, reject(zone.CodeInvalid, "transition not available")
	}
	z.state = zone.StatePausedPlayback
	return nil, nil
}

func (z *Zone) handleStop(_ json.RawMessage, _ *Library) (any, error) {
	z.state = zone.StateStopped
	return nil, nil
}

func (z *Zone) repeats() bool {
	return z.mode == "REPEAT_ALL" || z.mode == "SHUFFLE"
}

func (z *Zone) handleNext(_ json.RawMessage, _ *Library) (any, error) {
	if err := z.queue.Step(1, z.repeats()); err != nil {
		return nil, reject(zone.CodeIllegalSeek, "%v", err)
	}
	return nil, nil
}

func (z *Zone) handlePrevious(_ json.RawMessage, _ *Library) (any, error) {
	if err := z.queue.Step(-1, z.repeats()); err != nil {
		return nil, reject(zone.CodeIllegalSeek, "%v", err)
	}
	return nil, nil
}

func (z *Zone) handlePlayFromQueue(body json.RawMessage, _ *Library) (any, error) {
	var req zone.PlayFromQueueBody
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	if err := z.queue.Jump(req.Index); err != nil {
		return nil, reject(zone.CodeInvalid, "%v", err)
	}
	z.state = zone.StatePlaying
	return nil, nil
}

func (z *Zone) handleTransportInfo(_ json.RawMessage, _ *Library) (any, error) {
	return zone.TransportInfoReply{State: z.state}, nil
}

func (z *Zone) handleGetPlayMode(_ json.RawMessage, _ *Library) (any, error) {
	return zone.PlayModeBody{Mode: z.mode}, nil
}

func (z *Zone) handleSetPlayMode(body json.RawMessage, _ *Library) (any, error) {
	var req zone.PlayModeBody
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	if !slices.Contains(zone.PlayModes, req.Mode) {
		return nil, reject(zone.CodeInvalid, "invalid play mode %q", req.Mode)
	}
	z.mode = req.Mode
	return nil, nil
}

func (z *Zone) handleRenderingGet(body json.RawMessage, _ *Library) (any, error) {
	var req zone.RenderingGetBody
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	v, ok := z.settings[req.Setting]
	if !ok {
		return nil, reject(zone.CodeInvalid, "unknown setting %q", req.Setting)
	}
	return zone.RenderingReply{Setting: req.Setting, Value: v}, nil
}

// handleRenderingSet clamps to the device range like real hardware does.
func (z *Zone) handleRenderingSet(body json.RawMessage, _ *Library) (any, error) {
	var req zone.RenderingSetBody
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	bounds, ok := settingRanges[req.Setting]
	if !ok {
		return nil, reject(zone.CodeInvalid, "unknown setting %q", req.Setting)
	}
	z.settings[req.Setting] = clamp(req.Value, bounds[0], bounds[1])
	return zone.RenderingReply{Setting: req.Setting, Value: z.settings[req.Setting]}, nil
}

func (z *Zone) handleTrackCurrent(_ json.RawMessage, _ *Library) (any, error) {
	item, pos, ok := z.queue.Current()
	if !ok {
		return zone.TrackInfo{Duration: "0:00:00"}, nil
	}
	return zone.TrackInfo{
		Title:            item.Title,
		Artist:           item.Creator,
		Album:            item.Album,
		PlaylistPosition: pos,
		Duration:         duration(item),
		URI:              item.URI,
	}, nil
}

func (z *Zone) handleQueueGet(body json.RawMessage, _ *Library) (any, error) {
	var req zone.QueueGetBody
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	if req.Count <= 0 {
		req.Count = 100
	}
	return z.queue.Snapshot(req.Start, req.Count), nil
}

func (z *Zone) handleQueueAdd(body json.RawMessage, _ *Library) (any, error) {
	var req zone.QueueAddBody
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	entries := expand(req.Item)
	if len(entries) == 0 {
		return nil, reject(zone.CodeInvalid, "nothing to add")
	}
	return zone.QueueAddReply{Position: z.queue.Add(entries)}, nil
}

func (z *Zone) handleQueueRemove(body json.RawMessage, _ *Library) (any, error) {
	var req zone.QueueRemoveBody
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	if err := z.queue.Remove(req.Index); err != nil {
		return nil, reject(zone.CodeInvalid, "%v", err)
	}
	if z.queue.Len() == 0 {
		z.state = zone.StateStopped
	}
	return nil, nil
}

func (z *Zone) handleQueueClear(_ json.RawMessage, _ *Library) (any, error) {
	z.queue.Clear()
	z.state = zone.StateStopped
	return nil, nil
}

func (z *Zone) handleDeviceInfo(_ json.RawMessage, _ *Library) (any, error) {
	return zone.DeviceInfoReply{Info: map[string]string{
		"zone_name":        z.name,
		"model_name":       z.model,
		"uid":              z.uid,
		"ip_address":       z.address,
		"software_version": "sim-1.0",
	}}, nil
}

func (z *Zone) handleLibraryItems(body json.RawMessage, lib *Library) (any, error) {
	var req zone.LibraryItemsBody
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	if req.Count <= 0 {
		req.Count = 100
	}
	page, err := lib.Page(req.Category, req.Start, req.Count)
	if err != nil {
		return nil, reject(zone.CodeInvalid, "%v", err)
	}
	return page, nil
}

func duration(item zone.QueueItem) string {
	seconds := 120 + len(item.Title)*7
	return fmt.Sprintf("0:%02d:%02d", seconds/60, seconds%60)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
