package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/google/shlex"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mikey-austin/socos/internal/core"
)

// shell runs the interactive loop until exit or EOF and returns the exit code.
func (a *app) shell(ctx context.Context, in io.Reader, promptOut io.Writer) int {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	return a.loop(ctx, in, promptOut, interrupts)
}

func (a *app) loop(ctx context.Context, in io.Reader, promptOut io.Writer, interrupts <-chan os.Signal) int {
	lines := readLines(in)
	for {
		fmt.Fprint(promptOut, a.prompt(ctx))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(promptOut)
			return core.ExitOK
		case <-interrupts:
			fmt.Fprintln(promptOut)
			continue
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(promptOut)
				return core.ExitOK
			}
			line = l
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			a.printer.Error(core.InvalidArgumentf("Syntax error: %v", err))
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		interrupted, err := a.evaluate(ctx, tokens, interrupts)
		switch {
		case interrupted:
			a.printer.Error(errors.New("Keyboard interrupt."))
		case errors.Is(err, core.ErrExit):
			return core.ExitOK
		case err != nil:
			a.printer.Error(err)
		}
	}
}

// evaluate runs one command on the calling goroutine. An interrupt while it
// runs cancels its context.
func (a *app) evaluate(ctx context.Context, tokens []string, interrupts <-chan os.Signal) (bool, error) {
	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var interrupted atomic.Bool
	done := make(chan struct{})
	go func() {
		select {
		case <-interrupts:
			interrupted.Store(true)
			cancel()
		case <-done:
		}
	}()

	err := a.dispatcher.Run(cmdCtx, tokens, a.printer)
	close(done)
	return interrupted.Load(), err
}

// prompt shows the current speaker and its transport state when one is set.
func (a *app) prompt(ctx context.Context) string {
	dev := a.speakers.Current()
	if dev == nil {
		return "socos> "
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	name, err := dev.PlayerName(ctx)
	if err != nil || name == "" {
		a.log.Debug("prompt name", zap.String("device", dev.Address()), zap.Error(err))
		name = dev.Address()
	}
	state, err := dev.TransportState(ctx)
	if err != nil {
		a.log.Debug("prompt state", zap.String("device", dev.Address()), zap.Error(err))
		state = "unknown"
	}
	return fmt.Sprintf("socos(%s|%s)> ", name, titleState(state))
}

// titleState capitalises each underscore separated word of a transport
// state, so PAUSED_PLAYBACK reads Paused_Playback.
func titleState(state string) string {
	caser := cases.Title(language.Und)
	words := strings.Split(strings.ToLower(state), "_")
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, "_")
}

// readLines feeds input lines from a dedicated goroutine. The channel closes
// at EOF or on a read error.
func readLines(in io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			out <- scanner.Text()
		}
	}()
	return out
}
