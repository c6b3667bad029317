package core

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mikey-austin/socos/internal/ports"
)

// Setting is an adjustable integer device setting.
type Setting struct {
	Name string
	Min  int
	Max  int
	Get  func(ctx context.Context, dev ports.Player) (int, error)
	Set  func(ctx context.Context, dev ports.Player, value int) error
}

// Device settings and their valid ranges.
var (
	VolumeSetting = Setting{
		Name: "volume", Min: 0, Max: 100,
		Get: func(ctx context.Context, dev ports.Player) (int, error) { return dev.Volume(ctx) },
		Set: func(ctx context.Context, dev ports.Player, v int) error { return dev.SetVolume(ctx, v) },
	}
	BassSetting = Setting{
		Name: "bass", Min: -10, Max: 10,
		Get: func(ctx context.Context, dev ports.Player) (int, error) { return dev.Bass(ctx) },
		Set: func(ctx context.Context, dev ports.Player, v int) error { return dev.SetBass(ctx, v) },
	}
	TrebleSetting = Setting{
		Name: "treble", Min: -10, Max: 10,
		Get: func(ctx context.Context, dev ports.Player) (int, error) { return dev.Treble(ctx) },
		Set: func(ctx context.Context, dev ports.Player, v int) error { return dev.SetTreble(ctx, v) },
	}
)

// AdjustmentFactor parses "+", "-", "+N" or "-N" into a signed delta.
func AdjustmentFactor(operator string) (int, error) {
	if operator == "" || (operator[0] != '+' && operator[0] != '-') {
		return 0, InvalidArgumentf("Valid operators are + and -")
	}
	if len(operator) == 1 {
		operator += "1"
	}
	magnitude := operator[1:]
	for _, r := range magnitude {
		if r < '0' || r > '9' {
			return 0, InvalidArgumentf("%q is not a number or +/-", operator)
		}
	}
	v, err := strconv.Atoi(operator)
	if err != nil {
		return 0, InvalidArgumentf("%q is not a number or +/-", operator)
	}
	return v, nil
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Adjust applies operator to the setting and returns the value the device
// reports afterwards.
func Adjust(ctx context.Context, dev ports.Player, setting Setting, operator string) (int, error) {
	factor, err := AdjustmentFactor(operator)
	if err != nil {
		return 0, err
	}
	current, err := setting.Get(ctx, dev)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", setting.Name, err)
	}
	if err := setting.Set(ctx, dev, Clamp(current+factor, setting.Min, setting.Max)); err != nil {
		return 0, fmt.Errorf("set %s: %w", setting.Name, err)
	}
	confirmed, err := setting.Get(ctx, dev)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", setting.Name, err)
	}
	return confirmed, nil
}
