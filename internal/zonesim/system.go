package zonesim

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

// ZoneConfig describes one simulated zone.
type ZoneConfig struct {
	Address string
	Name    string
	Model   string
	// Coordinator is the address of the zone this one is grouped with.
	Coordinator string
	Volume      int
}

// System is a household of simulated zones sharing one library.
type System struct {
	mu      sync.Mutex
	zones   map[string]*Zone
	library *Library
	clock   ports.Clock

	// OnGroupChange is called after group membership changes, outside the
	// system lock.
	OnGroupChange func()
}

// NewSystem creates an empty household.
func NewSystem(library *Library, clock ports.Clock) *System {
	return &System{zones: map[string]*Zone{}, library: library, clock: clock}
}

// AddZone adds a zone. Addresses must be unique.
func (s *System) AddZone(cfg ZoneConfig) (*Zone, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, fmt.Errorf("zone address required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.zones[cfg.Address]; ok {
		return nil, fmt.Errorf("duplicate zone %s", cfg.Address)
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Address
	}
	if cfg.Model == "" {
		cfg.Model = "Sim:1"
	}
	z := newZone(cfg)
	s.zones[cfg.Address] = z
	return z, nil
}

// Addresses returns zone addresses in sorted order.
func (s *System) Addresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.zones))
	for addr := range s.zones {
		out = append(out, addr)
	}
	slices.Sort(out)
	return out
}

// Presence returns the announcement for a zone.
func (s *System) Presence(address string) (zone.Presence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[address]
	if !ok {
		return zone.Presence{}, false
	}
	return zone.Presence{
		Address:     z.address,
		Name:        z.name,
		Model:       z.model,
		UID:         z.uid,
		Coordinator: s.coordinatorOf(z),
		TS:          s.clock.NowUnix(),
	}, true
}

// coordinatorOf resolves a zone's coordinator, treating a missing
// coordinator as standalone.
func (s *System) coordinatorOf(z *Zone) string {
	if z.coordinator == "" {
		return z.address
	}
	if _, ok := s.zones[z.coordinator]; !ok {
		return z.address
	}
	return z.coordinator
}

// Handle runs a command against the zone at address.
func (s *System) Handle(address string, cmd zone.CommandEnvelope) zone.ReplyEnvelope {
	now := s.clock.NowUnix()
	if err := zone.ValidateCommandEnvelope(cmd); err != nil {
		return zone.NewErrorReply(cmd, now, zone.CodeInvalid, err.Error())
	}

	if cmd.Type == zone.CmdPartyMode {
		return s.partyMode(address, cmd, now)
	}

	s.mu.Lock()
	z, ok := s.zones[address]
	if !ok {
		s.mu.Unlock()
		return zone.NewErrorReply(cmd, now, zone.CodeNotFound, "no such zone "+address)
	}
	reply := z.handle(cmd, s.library, now)
	s.mu.Unlock()
	return reply
}

func (s *System) partyMode(address string, cmd zone.CommandEnvelope, now int64) zone.ReplyEnvelope {
	s.mu.Lock()
	if _, ok := s.zones[address]; !ok {
		s.mu.Unlock()
		return zone.NewErrorReply(cmd, now, zone.CodeNotFound, "no such zone "+address)
	}
	for addr, z := range s.zones {
		if addr == address {
			z.coordinator = ""
			continue
		}
		z.coordinator = address
	}
	s.mu.Unlock()

	if s.OnGroupChange != nil {
		s.OnGroupChange()
	}
	reply, _ := zone.NewReply(cmd, now, nil)
	return reply
}
