package core

import (
	"context"
	"errors"
	"testing"
)

func TestSetOrdinalBeforeListRefreshes(t *testing.T) {
	disc := &fakeDiscoverer{players: []*fakePlayer{
		newFakePlayer("10.0.0.9", "Study"),
		newFakePlayer("10.0.0.10", "Kitchen"),
		newFakePlayer("10.0.0.2", "Lounge"),
	}}
	speakers := NewSpeakerContext(disc, nil)

	got, err := speakers.Set(context.Background(), "1")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if disc.discoveries != 1 {
		t.Fatalf("expected implicit list, got %d discoveries", disc.discoveries)
	}
	// string order: 10.0.0.10 < 10.0.0.2 < 10.0.0.9
	if got.Address() != "10.0.0.10" {
		t.Fatalf("expected first address-sorted device, got %s", got.Address())
	}
	if speakers.Current() != got {
		t.Fatalf("expected current device to be set")
	}

	if _, err := speakers.Set(context.Background(), "2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if disc.discoveries != 1 {
		t.Fatalf("expected cached listing, got %d discoveries", disc.discoveries)
	}
}

func TestSetDottedTokenIsAddress(t *testing.T) {
	disc := &fakeDiscoverer{players: []*fakePlayer{newFakePlayer("10.0.0.1", "Study")}}
	speakers := NewSpeakerContext(disc, nil)
	if _, err := speakers.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	got, err := speakers.Set(context.Background(), "1.5")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if got.Address() != "1.5" {
		t.Fatalf("expected address lookup, got %s", got.Address())
	}
}

func TestSetAlias(t *testing.T) {
	disc := &fakeDiscoverer{players: []*fakePlayer{newFakePlayer("10.0.0.1", "Study")}}
	speakers := NewSpeakerContext(disc, map[string]string{"study": "10.0.0.1"})

	got, err := speakers.Set(context.Background(), "study")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if got.Address() != "10.0.0.1" {
		t.Fatalf("expected alias resolution, got %s", got.Address())
	}
}

func TestRefreshReplacesKnown(t *testing.T) {
	disc := &fakeDiscoverer{players: []*fakePlayer{
		newFakePlayer("10.0.0.1", "Study"),
		newFakePlayer("10.0.0.2", "Lounge"),
	}}
	speakers := NewSpeakerContext(disc, nil)
	if _, err := speakers.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	disc.players = disc.players[1:]
	listed, err := speakers.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(listed) != 1 || listed[0].Address != "10.0.0.2" || listed[0].Ordinal != 1 {
		t.Fatalf("unexpected listing %+v", listed)
	}
	if _, ok := speakers.known["2"]; ok {
		t.Fatalf("expected stale ordinal to be cleared")
	}
}

func TestRefreshFailureKeepsPreviousOrdinals(t *testing.T) {
	study := newFakePlayer("10.0.0.1", "Study")
	lounge := newFakePlayer("10.0.0.2", "Lounge")
	disc := &fakeDiscoverer{players: []*fakePlayer{study, lounge}}
	speakers := NewSpeakerContext(disc, nil)
	if _, err := speakers.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	lounge.nameErr = errors.New("unreachable")
	if _, err := speakers.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if len(speakers.known) != 2 || speakers.known["1"] != study || speakers.known["2"] != lounge {
		t.Fatalf("expected previous ordinals kept, got %v", speakers.known)
	}
}

func TestResolve(t *testing.T) {
	disc := &fakeDiscoverer{players: []*fakePlayer{newFakePlayer("10.0.0.1", "Study")}}
	speakers := NewSpeakerContext(disc, nil)

	dev, args, err := speakers.Resolve(false, []string{"x"})
	if err != nil || dev != nil || len(args) != 1 {
		t.Fatalf("expected pass-through, got %v %v %v", dev, args, err)
	}

	_, _, err = speakers.Resolve(true, nil)
	if !errors.Is(err, ErrMissingDeviceContext) {
		t.Fatalf("expected missing device context, got %v", err)
	}

	dev, args, err = speakers.Resolve(true, []string{"10.0.0.1", "+5"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dev.Address() != "10.0.0.1" || len(args) != 1 || args[0] != "+5" {
		t.Fatalf("expected address consumed, got %v %v", dev.Address(), args)
	}

	if _, err := speakers.Set(context.Background(), "10.0.0.1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	dev, args, err = speakers.Resolve(true, []string{"+5"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dev.Address() != "10.0.0.1" || len(args) != 1 {
		t.Fatalf("expected current device injected, got %v %v", dev.Address(), args)
	}

	speakers.Unset()
	if speakers.Current() != nil {
		t.Fatalf("expected unset")
	}
}
