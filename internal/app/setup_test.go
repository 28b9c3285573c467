package app

import (
	"context"
	"errors"
	"testing"
)

func TestSetupStageWaitsForIdentity(t *testing.T) {
	provider := &fakeProvider{}
	lookup := NewLookup(provider, "abc")
	identity := &fakeIdentity{}
	stage := NewSetupStage(identity, lookup)
	ctx := context.Background()

	// lookup resolves first, identity still pending
	lookup.Resolve(ctx)
	waitFor(t, func() bool {
		handle, _ := lookup.Resolve(ctx)
		return handle != nil
	})

	if got := stage.Current(ctx); got != StageLoading {
		t.Fatalf("Current() = %v before identity loaded, want loading", got)
	}
	if err := stage.Confirm(ctx); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Confirm() = %v, want ErrNotReady", err)
	}

	identity.setLoaded(loadedIdentity().user)
	if got := stage.Current(ctx); got != StageSetup {
		t.Errorf("Current() = %v after identity loaded, want setup", got)
	}
}

func TestSetupStageWaitsForLookup(t *testing.T) {
	provider := &fakeProvider{release: make(chan struct{})}
	lookup := NewLookup(provider, "abc")
	stage := NewSetupStage(loadedIdentity(), lookup)
	ctx := context.Background()

	// identity loaded first, lookup still pending
	if got := stage.Current(ctx); got != StageLoading {
		t.Fatalf("Current() = %v while lookup pending, want loading", got)
	}
	if err := stage.Confirm(ctx); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Confirm() = %v while pending, want ErrNotReady", err)
	}

	close(provider.release)
	waitFor(t, func() bool { return stage.Current(ctx) == StageSetup })
}

func TestSetupStageLookupFailureKeepsLoading(t *testing.T) {
	provider := &fakeProvider{err: errors.New("backend down")}
	lookup := NewLookup(provider, "abc")
	stage := NewSetupStage(loadedIdentity(), lookup)
	ctx := context.Background()

	lookup.Resolve(ctx)
	waitFor(t, func() bool {
		_, loading := lookup.Resolve(ctx)
		return !loading
	})

	if got := stage.Current(ctx); got != StageLoading {
		t.Errorf("Current() = %v after failed lookup, want loading", got)
	}
}

func TestSetupStageInRoomIsTerminal(t *testing.T) {
	provider := &fakeProvider{}
	lookup := NewLookup(provider, "abc")
	stage := NewSetupStage(loadedIdentity(), lookup)
	ctx := context.Background()

	lookup.Resolve(ctx)
	waitFor(t, func() bool { return stage.Current(ctx) == StageSetup })

	if err := stage.Confirm(ctx); err != nil {
		t.Fatalf("Confirm() = %v, want nil", err)
	}
	if got := stage.Current(ctx); got != StageInRoom {
		t.Fatalf("Current() = %v after confirm, want in_room", got)
	}

	// no sequence of further events returns to setup
	for i := 0; i < 3; i++ {
		if err := stage.Confirm(ctx); err != nil {
			t.Fatalf("repeat Confirm() #%d = %v, want nil", i, err)
		}
		if got := stage.Current(ctx); got != StageInRoom {
			t.Fatalf("Current() = %v after repeat confirm, want in_room", got)
		}
	}
}
