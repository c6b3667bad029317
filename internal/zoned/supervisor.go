package zoned

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Runner is one long-lived part of the daemon.
type Runner struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor runs every runner until the context ends or one fails.
type Supervisor struct {
	Logger *zap.Logger
}

// Run starts all runners and waits for termination.
func (s Supervisor) Run(ctx context.Context, runners []Runner) error {
	if len(runners) == 0 {
		return fmt.Errorf("nothing to run")
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(runners))
	for _, r := range runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rlog := log.With(zap.String("runner", r.Name))
			rlog.Info("starting")
			if err := r.Run(ctx); err != nil {
				rlog.Error("exited", zap.Error(err))
				errCh <- fmt.Errorf("%s: %w", r.Name, err)
				return
			}
			rlog.Info("stopped")
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err = <-errCh:
	}
	cancel()
	wg.Wait()
	return err
}
