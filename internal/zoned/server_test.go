package zoned

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/mikey-austin/socos/internal/adapters/mqttserver"
	"github.com/mikey-austin/socos/pkg/zone"
)

type fixedClock struct{}

func (fixedClock) NowUnix() int64 { return 1000 }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeTransport struct {
	mu         sync.Mutex
	published  []published
	handlers   map[string]mqttserver.MessageHandler
	subscribed chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: map[string]mqttserver.MessageHandler{}, subscribed: make(chan struct{}, 1)}
}

func (f *fakeTransport) Publish(topic string, _ byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic: topic, retained: retained, payload: payload})
	return nil
}

func (f *fakeTransport) Subscribe(topic string, _ byte, handler mqttserver.MessageHandler) error {
	f.mu.Lock()
	f.handlers[topic] = handler
	f.mu.Unlock()
	f.subscribed <- struct{}{}
	return nil
}

func (f *fakeTransport) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *fakeTransport) deliver(topic string, payload []byte) {
	f.mu.Lock()
	handler := f.handlers["socos/v1/zone/+/cmd"]
	f.mu.Unlock()
	handler(topic, payload)
}

func (f *fakeTransport) on(topic string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, p := range f.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func testConfig() Config {
	return Config{
		Server:  ServerConfig{Broker: "mqtt://x"},
		Library: LibraryConfig{Artists: 1, AlbumsPerArtist: 1, TracksPerAlbum: 2, Playlists: 1},
		Zones: []ZoneEntry{
			{Address: "10.0.0.1", Name: "Lounge"},
			{Address: "10.0.0.2", Name: "Kitchen"},
		},
	}
}

func startServer(t *testing.T) (*fakeTransport, context.CancelFunc, chan error) {
	t.Helper()
	cfg := testConfig()
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	system, err := BuildSystem(cfg, fixedClock{})
	if err != nil {
		t.Fatalf("build system: %v", err)
	}
	transport := newFakeTransport()
	server := NewZoneServer(nil, transport, system, cfg.Server.TopicBase)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()
	select {
	case <-transport.subscribed:
	case <-time.After(time.Second):
		t.Fatalf("server did not subscribe")
	}
	return transport, cancel, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met")
}

func TestZoneServerAnnouncesAndClearsPresence(t *testing.T) {
	transport, cancel, done := startServer(t)
	topic := zone.TopicPresence(zone.BaseTopic, "10.0.0.2")
	waitFor(t, func() bool { return len(transport.on(topic)) == 1 })

	var presence zone.Presence
	if err := json.Unmarshal(transport.on(topic)[0].payload, &presence); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	if presence.Name != "Kitchen" || presence.Coordinator != "10.0.0.2" {
		t.Fatalf("unexpected presence %+v", presence)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	msgs := transport.on(topic)
	last := msgs[len(msgs)-1]
	if !last.retained || len(last.payload) != 0 {
		t.Fatalf("expected retained clear, got %+v", last)
	}
}

func TestZoneServerRepliesAndReannouncesOnPartyMode(t *testing.T) {
	transport, cancel, done := startServer(t)
	defer func() {
		cancel()
		<-done
	}()

	cmd, err := zone.NewCommand(zone.CmdPartyMode, struct{}{})
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	cmd.ID = "c1"
	cmd.TS = 1000
	cmd.From = "test"
	cmd.ReplyTo = zone.TopicReply(zone.BaseTopic, "ctl")
	payload, _ := json.Marshal(cmd)
	transport.deliver(zone.TopicCommands(zone.BaseTopic, "10.0.0.1"), payload)

	replies := transport.on(cmd.ReplyTo)
	if len(replies) != 1 {
		t.Fatalf("expected one reply, got %d", len(replies))
	}
	var reply zone.ReplyEnvelope
	if err := json.Unmarshal(replies[0].payload, &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if !reply.OK || reply.ID != "c1" {
		t.Fatalf("unexpected reply %+v", reply)
	}

	kitchen := transport.on(zone.TopicPresence(zone.BaseTopic, "10.0.0.2"))
	var presence zone.Presence
	if err := json.Unmarshal(kitchen[len(kitchen)-1].payload, &presence); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	if presence.Coordinator != "10.0.0.1" {
		t.Fatalf("expected kitchen grouped under lounge, got %+v", presence)
	}
}

func TestZoneServerIgnoresForeignTopics(t *testing.T) {
	s := &ZoneServer{topicBase: "socos/v1"}
	for topic, want := range map[string]string{
		"socos/v1/zone/10.0.0.1/cmd":   "10.0.0.1",
		"socos/v1/zone/a/b/cmd":        "",
		"other/v1/zone/10.0.0.1/cmd":   "",
		"socos/v1/zone/10.0.0.1/reply": "",
	} {
		got, ok := s.addressFor(topic)
		if got != want || ok != (want != "") {
			t.Fatalf("addressFor(%q) = %q, %v", topic, got, ok)
		}
	}
}
