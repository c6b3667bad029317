package zoned

import (
	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/internal/zonesim"
)

// BuildSystem creates the simulated household described by cfg.
func BuildSystem(cfg Config, clock ports.Clock) (*zonesim.System, error) {
	system := zonesim.NewSystem(zonesim.GenerateLibrary(cfg.Library.Shape()), clock)
	for _, z := range cfg.Zones {
		if _, err := system.AddZone(zonesim.ZoneConfig{
			Address:     z.Address,
			Name:        z.Name,
			Model:       z.Model,
			Coordinator: z.Coordinator,
			Volume:      z.Volume,
		}); err != nil {
			return nil, err
		}
	}
	return system, nil
}
