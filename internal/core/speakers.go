package core

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mikey-austin/socos/internal/ports"
)

// KnownSpeaker is one entry of the last device listing.
type KnownSpeaker struct {
	Ordinal int
	Address string
	Name    string
	Player  ports.Player
}

// SpeakerContext is the per-session device state: the current device and
// the ordinals handed out by the last listing.
type SpeakerContext struct {
	discoverer ports.Discoverer
	aliases    map[string]string

	current ports.Player
	known   map[string]ports.Player
}

// NewSpeakerContext creates an empty session context. aliases map
// user-chosen names to device addresses.
func NewSpeakerContext(discoverer ports.Discoverer, aliases map[string]string) *SpeakerContext {
	return &SpeakerContext{
		discoverer: discoverer,
		aliases:    aliases,
		known:      map[string]ports.Player{},
	}
}

// Current returns the selected device or nil.
func (s *SpeakerContext) Current() ports.Player {
	return s.current
}

// Unset clears the selected device.
func (s *SpeakerContext) Unset() {
	s.current = nil
}

// Refresh discovers devices, orders them by address and replaces the known
// ordinals. A failed refresh leaves the previous ordinals in place.
func (s *SpeakerContext) Refresh(ctx context.Context) ([]KnownSpeaker, error) {
	players, err := s.discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	slices.SortFunc(players, func(a, b ports.Player) int {
		return strings.Compare(a.Address(), b.Address())
	})

	known := make(map[string]ports.Player, len(players))
	out := make([]KnownSpeaker, 0, len(players))
	for i, p := range players {
		name, err := p.PlayerName(ctx)
		if err != nil {
			return nil, fmt.Errorf("player name %s: %w", p.Address(), err)
		}
		ordinal := i + 1
		known[strconv.Itoa(ordinal)] = p
		out = append(out, KnownSpeaker{Ordinal: ordinal, Address: p.Address(), Name: name, Player: p})
	}
	s.known = known
	return out, nil
}

// Set selects the device named by token. Ordinals need a listing, so one is
// taken first when none has been.
func (s *SpeakerContext) Set(ctx context.Context, token string) (ports.Player, error) {
	if len(s.known) == 0 {
		if _, err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	p, err := s.lookup(token)
	if err != nil {
		return nil, err
	}
	s.current = p
	return p, nil
}

// Resolve supplies the device for a command. With a current device nothing
// is consumed; otherwise the first argument must name one.
func (s *SpeakerContext) Resolve(requiresContext bool, args []string) (ports.Player, []string, error) {
	if !requiresContext {
		return nil, args, nil
	}
	if s.current != nil {
		return s.current, args, nil
	}
	if len(args) == 0 {
		return nil, nil, Errorf(ErrMissingDeviceContext,
			"No speaker set. Give a speaker address or ordinal, or use 'set' first")
	}
	p, err := s.lookup(args[0])
	if err != nil {
		return nil, nil, err
	}
	return p, args[1:], nil
}

func (s *SpeakerContext) lookup(token string) (ports.Player, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, InvalidArgumentf("speaker address required")
	}
	if !strings.Contains(token, ".") {
		if p, ok := s.known[token]; ok {
			return p, nil
		}
	}
	if addr, ok := s.aliases[token]; ok {
		token = addr
	}
	return s.discoverer.ForAddress(token), nil
}
