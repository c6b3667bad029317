package ports

import (
	"context"
	"encoding/json"
	"iter"

	"github.com/mikey-austin/socos/pkg/zone"
)

// Broker publishes commands and reads retained presence.
type Broker interface {
	ReplyTopic() string
	PublishCommand(ctx context.Context, address string, cmd zone.CommandEnvelope) (zone.ReplyEnvelope, error)
	ListPresence(ctx context.Context) ([]zone.Presence, error)
	GetPresence(ctx context.Context, address string) (zone.Presence, error)
}

// Clock returns the current unix time in seconds.
type Clock interface {
	NowUnix() int64
}

// IDGen returns unique correlation IDs.
type IDGen interface {
	NewID() string
}

// Player is a controllable zone player. Implementations are equal when their
// addresses are equal.
type Player interface {
	Address() string
	PlayerName(ctx context.Context) (string, error)
	Coordinator(ctx context.Context) (Player, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	PlayFromQueue(ctx context.Context, index int) error
	TransportState(ctx context.Context) (string, error)
	PlayMode(ctx context.Context) (string, error)
	SetPlayMode(ctx context.Context, mode string) error

	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, value int) error
	Bass(ctx context.Context) (int, error)
	SetBass(ctx context.Context, value int) error
	Treble(ctx context.Context) (int, error)
	SetTreble(ctx context.Context, value int) error

	CurrentTrack(ctx context.Context) (zone.TrackInfo, error)
	Queue(ctx context.Context) ([]zone.QueueItem, error)
	AddToQueue(ctx context.Context, item zone.LibraryItem) (int, error)
	RemoveFromQueue(ctx context.Context, index int) error
	ClearQueue(ctx context.Context) error

	SpeakerInfo(ctx context.Context) (map[string]string, error)
	PartyMode(ctx context.Context) error

	Catalog
}

// Catalog pages through a player's music library.
type Catalog interface {
	LibraryItems(ctx context.Context, category string, start int, count int) (zone.LibraryItemsReply, error)
}

// Discoverer finds players on the network.
type Discoverer interface {
	Discover(ctx context.Context) ([]Player, error)
	ForAddress(address string) Player
}

// IndexRecord is one row of the local music index. Album and Artist are
// empty for categories that do not carry them.
type IndexRecord struct {
	Title   string
	Album   string
	Artist  string
	Content json.RawMessage
}

// Item decodes the catalog item the record was built from.
func (r IndexRecord) Item() (zone.LibraryItem, error) {
	var item zone.LibraryItem
	if err := json.Unmarshal(r.Content, &item); err != nil {
		return zone.LibraryItem{}, err
	}
	return item, nil
}

// MusicIndex is the local, searchable copy of a player's catalog.
type MusicIndex interface {
	Rebuild(ctx context.Context, catalog Catalog) iter.Seq2[string, error]
	Search(ctx context.Context, category string, field string, pattern string) ([]IndexRecord, error)
	Counts(ctx context.Context) (map[string]int, error)
}
