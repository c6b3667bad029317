package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

// Dispatcher binds command lines to handlers.
type Dispatcher struct {
	Registry *Registry
	Speakers *SpeakerContext
	Log      *zap.Logger
}

// Dispatch runs the command named by the first token. The result is not yet
// rendered; use Run to dispatch and render in one step.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string) (Result, error) {
	if len(tokens) == 0 {
		return NoResult(), nil
	}
	name := strings.ToLower(tokens[0])
	spec, ok := d.Registry.Lookup(name)
	if !ok {
		return Result{}, d.unknownCommand(name)
	}

	dev, args, err := d.Speakers.Resolve(spec.RequiresContext, tokens[1:])
	if err != nil {
		return Result{}, err
	}
	if spec.CoordinatorOnly && dev != nil {
		coordinator, err := dev.Coordinator(ctx)
		if err != nil {
			return Result{}, Classify(fmt.Errorf("coordinator of %s: %w", dev.Address(), err))
		}
		if coordinator.Address() != dev.Address() {
			d.logger().Debug("using group coordinator",
				zap.String("command", name),
				zap.String("device", dev.Address()),
				zap.String("coordinator", coordinator.Address()))
		}
		dev = coordinator
	}

	d.logger().Debug("dispatch", zap.String("command", name), zap.Strings("args", args))
	res, err := spec.Handler(ctx, dev, args)
	if err != nil {
		return Result{}, Classify(err)
	}
	return res, nil
}

// Run dispatches tokens and renders the result into sink.
func (d *Dispatcher) Run(ctx context.Context, tokens []string, sink Sink) error {
	res, err := d.Dispatch(ctx, tokens)
	if err != nil {
		return err
	}
	if err := Render(res, sink); err != nil {
		return Classify(err)
	}
	return nil
}

func (d *Dispatcher) unknownCommand(name string) error {
	lines := []string{fmt.Sprintf("Unknown command %q", name)}
	if suggestions := d.suggest(name); len(suggestions) > 0 {
		lines = append(lines, fmt.Sprintf("Did you mean: %s?", strings.Join(suggestions, ", ")))
	}
	lines = append(lines, d.Registry.Listing()...)
	return Errorf(ErrUnknownCommand, "%s", strings.Join(lines, "\n"))
}

func (d *Dispatcher) suggest(name string) []string {
	matches := fuzzy.Find(name, d.Registry.Names())
	out := make([]string, 0, 3)
	for _, m := range matches {
		out = append(out, m.Str)
		if len(out) == cap(out) {
			break
		}
	}
	return out
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
