package core

import (
	"context"
	"fmt"

	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

// Queue actions accepted by AddOrReplace.
const (
	ActionAdd     = "add"
	ActionReplace = "replace"
)

// PlayIndex starts playback at the one-based queue position index. It does
// nothing when that position is already current.
func PlayIndex(ctx context.Context, dev ports.Player, index int) error {
	length, err := queueLength(ctx, dev)
	if err != nil {
		return err
	}
	if !inQueue(index, length) {
		return queueRangeError(index, length)
	}
	track, err := dev.CurrentTrack(ctx)
	if err != nil {
		return fmt.Errorf("current track: %w", err)
	}
	if index == track.PlaylistPosition {
		return nil
	}
	if err := dev.PlayFromQueue(ctx, index-1); err != nil {
		return fmt.Errorf("play from queue: %w", err)
	}
	return nil
}

// RemoveRange removes the positions in r from the queue, highest first.
// Each position is checked against the queue as it is at that moment, so a
// range past the end fails before anything is removed.
func RemoveRange(ctx context.Context, dev ports.Player, r Range) error {
	for index := r.Last; index >= r.First; index-- {
		if err := RemoveIndex(ctx, dev, index); err != nil {
			return err
		}
	}
	return nil
}

// RemoveIndex removes one one-based queue position.
func RemoveIndex(ctx context.Context, dev ports.Player, index int) error {
	length, err := queueLength(ctx, dev)
	if err != nil {
		return err
	}
	if !inQueue(index, length) {
		return queueRangeError(index, length)
	}
	if err := dev.RemoveFromQueue(ctx, index-1); err != nil {
		return fmt.Errorf("remove from queue: %w", err)
	}
	return nil
}

// AddOrReplace appends item to the queue, clearing it first for replace.
// A replace that interrupts playback resumes it once the item is queued.
func AddOrReplace(ctx context.Context, dev ports.Player, item zone.LibraryItem, action string) error {
	switch action {
	case ActionAdd:
		if _, err := dev.AddToQueue(ctx, item); err != nil {
			return fmt.Errorf("add to queue: %w", err)
		}
		return nil
	case ActionReplace:
	default:
		return InvalidArgumentf("Action must be one of 'add' or 'replace'")
	}

	state, err := dev.TransportState(ctx)
	if err != nil {
		return fmt.Errorf("transport state: %w", err)
	}
	if err := dev.ClearQueue(ctx); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	if _, err := dev.AddToQueue(ctx, item); err != nil {
		return fmt.Errorf("add to queue: %w", err)
	}
	if state == zone.StatePlaying {
		if err := dev.Play(ctx); err != nil {
			return fmt.Errorf("play: %w", err)
		}
	}
	return nil
}

func queueLength(ctx context.Context, dev ports.Player) (int, error) {
	queue, err := dev.Queue(ctx)
	if err != nil {
		return 0, fmt.Errorf("queue: %w", err)
	}
	return len(queue), nil
}

func inQueue(index, length int) bool {
	return index >= 1 && index <= length
}

func queueRangeError(index, length int) error {
	return InvalidArgumentf("Index %d is not within range 1 - %d", index, length)
}
