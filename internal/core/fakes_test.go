package core

import (
	"context"
	"fmt"
	"iter"

	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

type fakePlayer struct {
	addr        string
	name        string
	coordinator *fakePlayer

	state    string
	mode     string
	settings map[string]int
	// confirm rewrites a stored setting the way a device would.
	confirm func(setting string, value int) int

	queue    []zone.QueueItem
	position int
	library  map[string][]zone.LibraryItem
	seekErr  error
	nameErr  error
	calls    []string
}

func newFakePlayer(addr, name string) *fakePlayer {
	return &fakePlayer{
		addr:     addr,
		name:     name,
		state:    zone.StateStopped,
		mode:     "NORMAL",
		settings: map[string]int{zone.SettingVolume: 20},
		library:  map[string][]zone.LibraryItem{},
	}
}

func (f *fakePlayer) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakePlayer) Address() string { return f.addr }

func (f *fakePlayer) PlayerName(context.Context) (string, error) {
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return f.name, nil
}

func (f *fakePlayer) Coordinator(context.Context) (ports.Player, error) {
	if f.coordinator != nil {
		return f.coordinator, nil
	}
	return f, nil
}

func (f *fakePlayer) Play(context.Context) error {
	f.record("play")
	f.state = zone.StatePlaying
	return nil
}

func (f *fakePlayer) Pause(context.Context) error {
	f.record("pause")
	f.state = zone.StatePausedPlayback
	return nil
}

func (f *fakePlayer) Stop(context.Context) error {
	f.record("stop")
	f.state = zone.StateStopped
	return nil
}

func (f *fakePlayer) Next(context.Context) error {
	f.record("next")
	return f.seekErr
}

func (f *fakePlayer) Previous(context.Context) error {
	f.record("previous")
	return f.seekErr
}

func (f *fakePlayer) PlayFromQueue(_ context.Context, index int) error {
	f.record("playFromQueue %d", index)
	f.position = index + 1
	f.state = zone.StatePlaying
	return nil
}

func (f *fakePlayer) TransportState(context.Context) (string, error) { return f.state, nil }

func (f *fakePlayer) PlayMode(context.Context) (string, error) { return f.mode, nil }

func (f *fakePlayer) SetPlayMode(_ context.Context, mode string) error {
	f.record("mode %s", mode)
	f.mode = mode
	return nil
}

func (f *fakePlayer) get(setting string) (int, error) { return f.settings[setting], nil }

func (f *fakePlayer) set(setting string, v int) error {
	f.record("set %s %d", setting, v)
	if f.confirm != nil {
		v = f.confirm(setting, v)
	}
	f.settings[setting] = v
	return nil
}

func (f *fakePlayer) Volume(context.Context) (int, error) { return f.get(zone.SettingVolume) }
func (f *fakePlayer) SetVolume(_ context.Context, v int) error {
	return f.set(zone.SettingVolume, v)
}
func (f *fakePlayer) Bass(context.Context) (int, error) { return f.get(zone.SettingBass) }
func (f *fakePlayer) SetBass(_ context.Context, v int) error {
	return f.set(zone.SettingBass, v)
}
func (f *fakePlayer) Treble(context.Context) (int, error) { return f.get(zone.SettingTreble) }
func (f *fakePlayer) SetTreble(_ context.Context, v int) error {
	return f.set(zone.SettingTreble, v)
}

func (f *fakePlayer) CurrentTrack(context.Context) (zone.TrackInfo, error) {
	info := zone.TrackInfo{PlaylistPosition: f.position, Duration: "0:03:00"}
	if f.position >= 1 && f.position <= len(f.queue) {
		item := f.queue[f.position-1]
		info.Title, info.Artist, info.Album = item.Title, item.Creator, item.Album
	}
	return info, nil
}

func (f *fakePlayer) Queue(context.Context) ([]zone.QueueItem, error) {
	out := make([]zone.QueueItem, len(f.queue))
	copy(out, f.queue)
	return out, nil
}

func (f *fakePlayer) AddToQueue(_ context.Context, item zone.LibraryItem) (int, error) {
	f.record("add %s", item.Title)
	f.queue = append(f.queue, zone.QueueItem{Title: item.Title, Creator: item.Creator, Album: item.Album, URI: item.URI})
	return len(f.queue), nil
}

func (f *fakePlayer) RemoveFromQueue(_ context.Context, index int) error {
	f.record("remove %d", index)
	if index < 0 || index >= len(f.queue) {
		return fmt.Errorf("index %d out of range", index)
	}
	f.queue = append(f.queue[:index], f.queue[index+1:]...)
	return nil
}

func (f *fakePlayer) ClearQueue(context.Context) error {
	f.record("clear")
	f.queue = nil
	f.position = 0
	if f.state == zone.StatePlaying {
		f.state = zone.StateStopped
	}
	return nil
}

func (f *fakePlayer) SpeakerInfo(context.Context) (map[string]string, error) {
	return map[string]string{"zone_name": f.name, "model_name": "Sim"}, nil
}

func (f *fakePlayer) PartyMode(context.Context) error {
	f.record("partymode")
	return nil
}

func (f *fakePlayer) LibraryItems(_ context.Context, category string, start int, count int) (zone.LibraryItemsReply, error) {
	items := f.library[category]
	end := min(start+count, len(items))
	if start > end {
		start = end
	}
	page := items[start:end]
	return zone.LibraryItemsReply{Items: page, NumberReturned: len(page), TotalMatches: len(items)}, nil
}

func queueOf(titles ...string) []zone.QueueItem {
	out := make([]zone.QueueItem, 0, len(titles))
	for _, t := range titles {
		out = append(out, zone.QueueItem{Title: t, Creator: "Artist " + t, Album: "Album " + t})
	}
	return out
}

type fakeDiscoverer struct {
	players     []*fakePlayer
	discoveries int
}

func (f *fakeDiscoverer) Discover(context.Context) ([]ports.Player, error) {
	f.discoveries++
	out := make([]ports.Player, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeDiscoverer) ForAddress(address string) ports.Player {
	for _, p := range f.players {
		if p.addr == address {
			return p
		}
	}
	return newFakePlayer(address, "unknown")
}

type fakeIndex struct {
	records  map[string][]ports.IndexRecord
	indexed  bool
	searches []string
}

func (f *fakeIndex) Rebuild(_ context.Context, catalog ports.Catalog) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f.indexed = true
		yield("tracks: 100% (0 of 0)", nil)
	}
}

func (f *fakeIndex) Search(_ context.Context, category, field, pattern string) ([]ports.IndexRecord, error) {
	f.searches = append(f.searches, fmt.Sprintf("%s %s %s", category, field, pattern))
	if !f.indexed {
		return nil, Errorf(ErrNotIndexed, "The music library is not indexed. Run 'ml_index' first.")
	}
	return f.records[category], nil
}

func (f *fakeIndex) Counts(context.Context) (map[string]int, error) {
	out := map[string]int{}
	for k, v := range f.records {
		out[k] = len(v)
	}
	return out, nil
}
