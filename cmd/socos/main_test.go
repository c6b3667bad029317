package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/socos/internal/adapters/config"
	"github.com/mikey-austin/socos/internal/adapters/output"
	"github.com/mikey-austin/socos/internal/adapters/player"
	"github.com/mikey-austin/socos/internal/core"
	"github.com/mikey-austin/socos/internal/musicindex"
	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/internal/zonesim"
	"github.com/mikey-austin/socos/internal/zonesim/zonesimtest"
	"github.com/mikey-austin/socos/pkg/zone"
)

type fixedClock struct{}

func (fixedClock) NowUnix() int64 { return 1000 }

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type console struct {
	app    *app
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newConsole(t *testing.T) *console {
	t.Helper()
	return newConsoleWith(t, nil)
}

// newConsoleWith builds a console whose bus is optionally wrapped.
func newConsoleWith(t *testing.T, wrap func(ports.Broker) ports.Broker) *console {
	t.Helper()
	lib := zonesim.GenerateLibrary(zonesim.LibraryShape{Artists: 2, AlbumsPerArtist: 1, TracksPerAlbum: 3})
	sys := zonesim.NewSystem(lib, fixedClock{})
	for _, cfg := range []zonesim.ZoneConfig{
		{Address: "10.0.0.1", Name: "Lounge", Volume: 30},
		{Address: "10.0.0.2", Name: "Kitchen", Coordinator: "10.0.0.1"},
	} {
		if _, err := sys.AddZone(cfg); err != nil {
			t.Fatalf("add zone: %v", err)
		}
	}
	var broker ports.Broker = zonesimtest.Broker{System: sys}
	if wrap != nil {
		broker = wrap(broker)
	}
	players := &player.Client{
		Broker:   broker,
		Clock:    fixedClock{},
		IDGen:    &seqIDs{},
		Identity: "socos-test",
	}
	index := musicindex.New(musicindex.NewStore(filepath.Join(t.TempDir(), musicindex.FileName), nil))
	t.Cleanup(func() { _ = index.Close() })

	c := &console{}
	printer := output.NewHumanPrinter(&c.out, &c.errOut, false)
	a, err := assemble(players, index, printer, map[string]string{"lounge": "10.0.0.1"}, zap.NewNop())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	c.app = a
	return c
}

func TestShellRunsCommandsUntilExit(t *testing.T) {
	c := newConsole(t)
	var prompts bytes.Buffer
	input := strings.NewReader("set lounge\nvolume\nvolume +\n\nbogus\nexit\nvolume\n")

	code := c.app.loop(context.Background(), input, &prompts, make(chan os.Signal))
	if code != core.ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if got := c.out.String(); got != "30\n31\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if !strings.Contains(c.errOut.String(), `Unknown command "bogus"`) {
		t.Fatalf("expected unknown command error, got %q", c.errOut.String())
	}
	p := prompts.String()
	if !strings.HasPrefix(p, "socos> ") || !strings.Contains(p, "socos(Lounge|Stopped)> ") {
		t.Fatalf("unexpected prompts %q", p)
	}
}

func TestShellEOFExitsCleanly(t *testing.T) {
	c := newConsole(t)
	var prompts bytes.Buffer
	code := c.app.loop(context.Background(), strings.NewReader("list\n"), &prompts, make(chan os.Signal))
	if code != core.ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(c.out.String(), "(1) 10.0.0.1") {
		t.Fatalf("unexpected list output %q", c.out.String())
	}
	if !strings.HasSuffix(prompts.String(), "socos> \n") {
		t.Fatalf("expected trailing newline at EOF, got %q", prompts.String())
	}
}

func TestShellSyntaxError(t *testing.T) {
	c := newConsole(t)
	c.app.loop(context.Background(), strings.NewReader("play \"unterminated\n"), io.Discard, make(chan os.Signal))
	if !strings.Contains(c.errOut.String(), "Syntax error:") {
		t.Fatalf("expected syntax error, got %q", c.errOut.String())
	}
}

func TestShellInterruptWhileWaitingReprompts(t *testing.T) {
	c := newConsole(t)
	pr, pw := io.Pipe()
	interrupts := make(chan os.Signal, 1)
	var prompts syncBuffer

	done := make(chan int, 1)
	go func() { done <- c.app.loop(context.Background(), pr, &prompts, interrupts) }()

	interrupts <- os.Interrupt
	waitFor(t, func() bool { return strings.Count(prompts.String(), "socos> ") == 2 })
	if _, err := io.WriteString(pw, "exit\n"); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case code := <-done:
		if code != core.ExitOK {
			t.Fatalf("expected exit 0, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("shell did not exit")
	}
	if !strings.HasPrefix(prompts.String(), "socos> \nsocos> ") {
		t.Fatalf("unexpected prompts %q", prompts.String())
	}
}

// stallingBroker blocks the first command of one type until its context
// ends.
type stallingBroker struct {
	ports.Broker
	cmdType  string
	stalled  atomic.Bool
	started  chan struct{}
	canceled chan error
}

func (b *stallingBroker) PublishCommand(ctx context.Context, address string, cmd zone.CommandEnvelope) (zone.ReplyEnvelope, error) {
	if cmd.Type != b.cmdType || b.stalled.Swap(true) {
		return b.Broker.PublishCommand(ctx, address, cmd)
	}
	close(b.started)
	<-ctx.Done()
	b.canceled <- ctx.Err()
	return zone.ReplyEnvelope{}, ctx.Err()
}

func TestShellInterruptDuringCommandCancelsIt(t *testing.T) {
	stall := &stallingBroker{
		cmdType:  zone.CmdQueueGet,
		started:  make(chan struct{}),
		canceled: make(chan error, 1),
	}
	c := newConsoleWith(t, func(b ports.Broker) ports.Broker {
		stall.Broker = b
		return stall
	})
	pr, pw := io.Pipe()
	defer pw.Close()
	interrupts := make(chan os.Signal, 1)
	errOut := &syncBuffer{}
	c.app.printer = output.NewHumanPrinter(&c.out, errOut, false)

	done := make(chan int, 1)
	go func() { done <- c.app.loop(context.Background(), pr, io.Discard, interrupts) }()

	if _, err := io.WriteString(pw, "set lounge\nqueue\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-stall.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("queue never reached the bus")
	}
	interrupts <- os.Interrupt

	select {
	case err := <-stall.canceled:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled context, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("command context was not canceled")
	}
	waitFor(t, func() bool { return strings.Contains(errOut.String(), "Keyboard interrupt.") })

	if _, err := io.WriteString(pw, "volume\nexit\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case code := <-done:
		if code != core.ExitOK {
			t.Fatalf("expected exit 0, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("shell did not exit")
	}
	if got := c.out.String(); got != "30\n" {
		t.Fatalf("expected volume after interrupt, got %q", got)
	}
}

func TestTitleState(t *testing.T) {
	cases := map[string]string{
		"STOPPED":         "Stopped",
		"PLAYING":         "Playing",
		"PAUSED_PLAYBACK": "Paused_Playback",
		"TRANSITIONING":   "Transitioning",
		"unknown":         "Unknown",
	}
	for in, want := range cases {
		if got := titleState(in); got != want {
			t.Fatalf("%s: expected %q, got %q", in, want, got)
		}
	}
}

func TestOneShotExitCodes(t *testing.T) {
	c := newConsole(t)
	ctx := context.Background()

	if code := c.app.oneShot(ctx, []string{"volume", "10.0.0.1"}); code != core.ExitOK {
		t.Fatalf("volume: expected 0, got %d", code)
	}
	if code := c.app.oneShot(ctx, []string{"volme"}); code != core.ExitUsage {
		t.Fatalf("unknown: expected %d, got %d", core.ExitUsage, code)
	}
	if code := c.app.oneShot(ctx, []string{"queue"}); code != core.ExitUsage {
		t.Fatalf("missing context: expected %d, got %d", core.ExitUsage, code)
	}
	if code := c.app.oneShot(ctx, []string{"tracks", "lounge"}); code != core.ExitNotFound {
		t.Fatalf("not indexed: expected %d, got %d", core.ExitNotFound, code)
	}
	if code := c.app.oneShot(ctx, []string{"next", "lounge"}); code != core.ExitDevice {
		t.Fatalf("next on empty queue: expected %d, got %d", core.ExitDevice, code)
	}
	if code := c.app.oneShot(ctx, []string{"exit"}); code != core.ExitOK {
		t.Fatalf("exit: expected 0, got %d", code)
	}
}

func TestExecuteRequiresBroker(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if code := execute([]string{"list"}); code != core.ExitUsage {
		t.Fatalf("expected usage exit without broker, got %d", code)
	}
}

func TestResolveIndexPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := resolveIndexPath("", "")
	if err != nil || got != "/tmp/xdg/socos/music_index.db" {
		t.Fatalf("unexpected default %q %v", got, err)
	}
	if got, _ := resolveIndexPath("", "/data/idx.db"); got != "/data/idx.db" {
		t.Fatalf("config path not used: %q", got)
	}
	if got, _ := resolveIndexPath("/flag.db", "/data/idx.db"); got != "/flag.db" {
		t.Fatalf("flag should win: %q", got)
	}
}

func TestResolveSettingsFlagsOverrideConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	off := false
	cfg := config.Config{
		Broker:    "mqtt://file:1883",
		TopicBase: "home/v1",
		Identity:  "den",
		Timeout:   "5s",
		Color:     &off,
		LogLevel:  "info",
		Aliases:   map[string]string{"den": "10.0.0.9"},
	}

	got, err := resolveSettings(cfg, flags{broker: "mqtt://flag:1883", verbose: true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Broker != "mqtt://flag:1883" || got.TopicBase != "home/v1" || got.Identity != "den" {
		t.Fatalf("unexpected settings %+v", got)
	}
	if got.Timeout != 5*time.Second || got.Color || got.LogLevel != "debug" {
		t.Fatalf("unexpected settings %+v", got)
	}
	if got.IndexPath != "/tmp/xdg/socos/music_index.db" || got.Aliases["den"] != "10.0.0.9" {
		t.Fatalf("unexpected settings %+v", got)
	}

	if _, err := resolveSettings(config.Config{Broker: "mqtt://x", Timeout: "soon"}, flags{}); err == nil {
		t.Fatalf("expected bad timeout error")
	}
}
