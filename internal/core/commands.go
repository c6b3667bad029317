package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

// Commands holds the collaborators shared by the command handlers.
type Commands struct {
	Speakers *SpeakerContext
	Index    ports.MusicIndex
	// Emphasize marks the current row of the queue listing.
	Emphasize func(string) string

	registry *Registry
}

// NewDispatcher builds the command table for c and a dispatcher over it.
func NewDispatcher(c *Commands, log *zap.Logger) (*Dispatcher, error) {
	registry, err := NewRegistry(c.Specs())
	if err != nil {
		return nil, err
	}
	c.registry = registry
	return &Dispatcher{Registry: registry, Speakers: c.Speakers, Log: log}, nil
}

// Specs returns the command table in help order.
func (c *Commands) Specs() []CommandSpec {
	specs := []CommandSpec{
		{Name: "list", Handler: c.list, Summary: "List available devices"},
		{Name: "partymode", RequiresContext: true, Handler: c.partyMode,
			Summary: "Put all the speakers in the same group, a.k.a Party Mode."},
		{Name: "info", RequiresContext: true, Handler: c.info, Summary: "Information about a speaker"},
		{Name: "play", RequiresContext: true, CoordinatorOnly: true, Handler: c.play,
			Summary: "Start playing", Help: "play [index]\nStart playing, optionally from a one-based queue position."},
		{Name: "pause", RequiresContext: true, CoordinatorOnly: true, Handler: c.pause, Summary: "Pause"},
		{Name: "stop", RequiresContext: true, CoordinatorOnly: true, Handler: c.stop, Summary: "Stop"},
		{Name: "next", RequiresContext: true, CoordinatorOnly: true, Handler: c.next, Summary: "Play the next track"},
		{Name: "previous", RequiresContext: true, CoordinatorOnly: true, Handler: c.previous,
			Summary: "Play the previous track"},
		{Name: "mode", RequiresContext: true, CoordinatorOnly: true, Handler: c.mode,
			Summary: "Change or show the play mode of a device",
			Help:    "mode [MODE]\nChange or show the play mode of a device\nAccepted modes: " + strings.Join(zone.PlayModes, ", ")},
		{Name: "current", RequiresContext: true, CoordinatorOnly: true, Handler: c.current,
			Summary: "Show the current track"},
		{Name: "queue", RequiresContext: true, CoordinatorOnly: true, Handler: c.queue,
			Summary: "Show the current queue"},
		{Name: "remove", RequiresContext: true, CoordinatorOnly: true, Handler: c.remove,
			Summary: "Remove track from queue by index",
			Help:    "remove <n|a..b>\nRemove one track or an inclusive range of tracks from the queue."},
		{Name: "volume", RequiresContext: true, Handler: c.setting(VolumeSetting),
			Summary: "Change or show the volume of a device", Help: "volume [+|-[N]]\nChange or show the volume of a device (0 to 100)"},
		{Name: "bass", RequiresContext: true, Handler: c.setting(BassSetting),
			Summary: "Change or show the bass value of a device", Help: "bass [+|-[N]]\nChange or show the bass value of a device (-10 to 10)"},
		{Name: "treble", RequiresContext: true, Handler: c.setting(TrebleSetting),
			Summary: "Change or show the treble value of a device", Help: "treble [+|-[N]]\nChange or show the treble value of a device (-10 to 10)"},
		{Name: "state", RequiresContext: true, CoordinatorOnly: true, Handler: c.state,
			Summary: "Get the current state of a device / group"},
	}
	for _, category := range IndexedCategories {
		help := libraryHelp(category)
		specs = append(specs,
			CommandSpec{Name: category, RequiresContext: true, CoordinatorOnly: true,
				Handler: c.library(category), Summary: "Search the indexed " + category, Help: help},
		)
	}
	specs = append(specs,
		CommandSpec{Name: zone.CategorySonosPlaylists, RequiresContext: true, CoordinatorOnly: true,
			Handler: c.sonosPlaylists, Summary: "Search the playlists saved on the device",
			Help: libraryHelp(zone.CategorySonosPlaylists)},
		CommandSpec{Name: "ml_index", RequiresContext: true, Handler: c.indexLibrary,
			Summary: "Build the local music library index from a device"},
		CommandSpec{Name: "ml_status", Handler: c.indexStatus, Summary: "Show the size of the local music library index"},
	)
	for _, category := range IndexedCategories {
		specs = append(specs, CommandSpec{Name: "ml_" + category, RequiresContext: true, CoordinatorOnly: true,
			Handler: c.library(category), Summary: "Alias of " + category, Help: libraryHelp(category)})
	}
	specs = append(specs,
		CommandSpec{Name: "exit", Handler: c.exit, Summary: "Exit socos"},
		CommandSpec{Name: "set", Handler: c.set, Summary: "Set the current speaker for the shell session",
			Help: "set <address|number>\nSet the current speaker for the shell session by address or speaker\nnumber as shown by list"},
		CommandSpec{Name: "unset", Handler: c.unset, Summary: "Resets the current speaker for the shell session"},
		CommandSpec{Name: "help", Handler: c.help, Summary: "Print a list of commands with short description"},
	)
	return specs
}

func (c *Commands) list(ctx context.Context, _ ports.Player, args []string) (Result, error) {
	if len(args) != 0 {
		return Result{}, usage("list")
	}
	speakers, err := c.Speakers.Refresh(ctx)
	if err != nil {
		return Result{}, err
	}
	lines := make([]string, 0, len(speakers))
	for _, s := range speakers {
		lines = append(lines, fmt.Sprintf("(%d) %-15s %s", s.Ordinal, s.Address, s.Name))
	}
	return SliceLines(lines), nil
}

func (c *Commands) set(ctx context.Context, _ ports.Player, args []string) (Result, error) {
	if len(args) != 1 {
		return Result{}, usage("set <address|number>")
	}
	if _, err := c.Speakers.Set(ctx, args[0]); err != nil {
		return Result{}, err
	}
	return NoResult(), nil
}

func (c *Commands) unset(_ context.Context, _ ports.Player, _ []string) (Result, error) {
	c.Speakers.Unset()
	return NoResult(), nil
}

func (c *Commands) exit(_ context.Context, _ ports.Player, _ []string) (Result, error) {
	return Result{}, ErrExit
}

func (c *Commands) help(_ context.Context, _ ports.Player, args []string) (Result, error) {
	if len(args) > 0 {
		if spec, ok := c.registry.Lookup(args[0]); ok {
			text := spec.Help
			if text == "" {
				text = spec.Summary
			}
			return SliceLines(strings.Split(text, "\n")), nil
		}
	}
	return SliceLines(c.registry.Listing()), nil
}

func (c *Commands) partyMode(ctx context.Context, dev ports.Player, args []string) (Result, error) {
	if len(args) != 0 {
		return Result{}, usage("partymode")
	}
	if err := dev.PartyMode(ctx); err != nil {
		return Result{}, fmt.Errorf("party mode: %w", err)
	}
	return NoResult(), nil
}

func (c *Commands) info(ctx context.Context, dev ports.Player, _ []string) (Result, error) {
	infos, err := dev.SpeakerInfo(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("speaker info: %w", err)
	}
	keys := make([]string, 0, len(infos))
	for k := range infos {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, infos[k]})
	}
	return SliceLines(strings.Split(tw.Render(), "\n")), nil
}

func (c *Commands) play(ctx context.Context, dev ports.Player, args []string) (Result, error) {
	switch len(args) {
	case 0:
		if err := dev.Play(ctx); err != nil {
			return Result{}, fmt.Errorf("play: %w", err)
		}
	case 1:
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return Result{}, InvalidArgumentf("Index must be a number, got %q", args[0])
		}
		if err := PlayIndex(ctx, dev, index); err != nil {
			return Result{}, err
		}
	default:
		return Result{}, usage("play [index]")
	}
	return c.current(ctx, dev, nil)
}

func (c *Commands) pause(ctx context.Context, dev ports.Player, _ []string) (Result, error) {
	state, err := dev.TransportState(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("transport state: %w", err)
	}
	if state == zone.StatePlaying {
		if err := dev.Pause(ctx); err != nil {
			return Result{}, fmt.Errorf("pause: %w", err)
		}
	}
	return c.current(ctx, dev, nil)
}

func (c *Commands) stop(ctx context.Context, dev ports.Player, _ []string) (Result, error) {
	state, err := dev.TransportState(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("transport state: %w", err)
	}
	if state == zone.StatePlaying || state == zone.StatePausedPlayback {
		if err := dev.Stop(ctx); err != nil {
			return Result{}, fmt.Errorf("stop: %w", err)
		}
	}
	return c.current(ctx, dev, nil)
}

func (c *Commands) next(ctx context.Context, dev ports.Player, _ []string) (Result, error) {
	if err := seek(dev.Next(ctx)); err != nil {
		return Result{}, err
	}
	return c.current(ctx, dev, nil)
}

func (c *Commands) previous(ctx context.Context, dev ports.Player, _ []string) (Result, error) {
	if err := seek(dev.Previous(ctx)); err != nil {
		return Result{}, err
	}
	return c.current(ctx, dev, nil)
}

// seek maps a rejected transition to IllegalSeek; transport failures stay
// device faults.
func seek(err error) error {
	if err == nil {
		return nil
	}
	var replyErr *zone.ReplyError
	if errors.As(err, &replyErr) {
		return WrapError(ErrIllegalSeek, "No such track", err)
	}
	return err
}

func (c *Commands) mode(ctx context.Context, dev ports.Player, args []string) (Result, error) {
	switch len(args) {
	case 0:
	case 1:
		mode := strings.ToUpper(args[0])
		if !slices.Contains(zone.PlayModes, mode) {
			return Result{}, InvalidArgumentf("Play mode must be one of %s", strings.Join(zone.PlayModes, ", "))
		}
		if err := dev.SetPlayMode(ctx, mode); err != nil {
			return Result{}, fmt.Errorf("set play mode: %w", err)
		}
	default:
		return Result{}, usage("mode [MODE]")
	}
	mode, err := dev.PlayMode(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("play mode: %w", err)
	}
	return Scalar(mode), nil
}

func (c *Commands) current(ctx context.Context, dev ports.Player, _ []string) (Result, error) {
	track, err := dev.CurrentTrack(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("current track: %w", err)
	}
	return Scalar(fmt.Sprintf(
		"Current track: %s - %s. From album %s. This is track number %d in the playlist. It is %s minutes long.",
		track.Artist, track.Title, track.Album, track.PlaylistPosition, track.Duration)), nil
}

func (c *Commands) queue(ctx context.Context, dev ports.Player, _ []string) (Result, error) {
	queue, err := dev.Queue(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("queue: %w", err)
	}
	track, err := dev.CurrentTrack(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("current track: %w", err)
	}
	width := len(strconv.Itoa(len(queue)))
	emphasize := c.Emphasize
	if emphasize == nil {
		emphasize = func(s string) string { return s }
	}

	lines := make([]string, 0, len(queue))
	for i, item := range queue {
		idx := i + 1
		line := fmt.Sprintf("%*d: %s - %s. From album %s.", width, idx, item.Creator, item.Title, item.Album)
		if idx == track.PlaylistPosition {
			line = emphasize(line)
		}
		lines = append(lines, line)
	}
	return SliceLines(lines), nil
}

func (c *Commands) remove(ctx context.Context, dev ports.Player, args []string) (Result, error) {
	switch len(args) {
	case 0:
	case 1:
		span, err := ParseRange(args[0])
		if err != nil {
			return Result{}, err
		}
		if err := RemoveRange(ctx, dev, span); err != nil {
			return Result{}, err
		}
	default:
		return Result{}, usage("remove <n|a..b>")
	}
	return c.queue(ctx, dev, nil)
}

func (c *Commands) setting(setting Setting) Handler {
	return func(ctx context.Context, dev ports.Player, args []string) (Result, error) {
		switch len(args) {
		case 0:
			v, err := setting.Get(ctx, dev)
			if err != nil {
				return Result{}, fmt.Errorf("get %s: %w", setting.Name, err)
			}
			return Scalar(v), nil
		case 1:
			v, err := Adjust(ctx, dev, setting, args[0])
			if err != nil {
				return Result{}, err
			}
			return Scalar(v), nil
		default:
			return Result{}, usage(setting.Name + " [+|-[N]]")
		}
	}
}

func (c *Commands) state(ctx context.Context, dev ports.Player, _ []string) (Result, error) {
	state, err := dev.TransportState(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("transport state: %w", err)
	}
	return Scalar(state), nil
}

func usage(text string) error {
	return InvalidArgumentf("Usage: %s", text)
}
