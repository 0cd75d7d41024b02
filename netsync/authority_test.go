package netsync

import (
	"errors"
	"testing"
)

func TestAuthorityIncrementsByOnePerAction(t *testing.T) {
	auth := NewAuthority(stepResolver, Vec3{X: 0.6, Y: 2.2})
	if auth.State() != (State{Position: Vec3{X: 1, Y: 2}}) {
		t.Fatalf("expected rounded spawn, got %+v", auth.State())
	}

	for i := 1; i <= 5; i++ {
		s, err := auth.Apply(MustAction(KeyDown))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if s.MoveNumber != uint32(i) {
			t.Fatalf("expected move %d, got %d", i, s.MoveNumber)
		}
		if auth.Cached() != s {
			t.Fatalf("expected cache to follow state, got %+v", auth.Cached())
		}
	}
}

func TestAuthorityRejectsEmptyAction(t *testing.T) {
	auth := NewAuthority(stepResolver, Vec3{})
	s, err := auth.Apply(Action{})
	if !errors.Is(err, ErrEmptyAction) {
		t.Fatalf("expected ErrEmptyAction, got %v", err)
	}
	if s.MoveNumber != 0 {
		t.Fatalf("expected state untouched, got %+v", s)
	}
}

func TestGhostDoesNotUpdateCache(t *testing.T) {
	auth := NewAuthority(stepResolver, Vec3{X: 4})
	auth.Apply(MustAction(KeyRight))
	cached := auth.Cached()

	auth.SetGhost(true)
	auth.Apply(MustAction(KeyRight))
	auth.Apply(MustAction(KeyRight))

	if auth.Cached() != cached {
		t.Fatalf("expected cache to stay %+v while ghost, got %+v", cached, auth.Cached())
	}
	if auth.State().MoveNumber != 3 {
		t.Fatalf("expected authoritative move 3, got %d", auth.State().MoveNumber)
	}
}

func TestAuthoritySetPositionReplacesStateAndCache(t *testing.T) {
	auth := NewAuthority(stepResolver, Vec3{})
	auth.Apply(MustAction(KeyRight))

	s := auth.SetPosition(Vec3{X: 9.7, Y: 10.2})

	want := State{MoveNumber: 0, Position: Vec3{X: 10, Y: 10}}
	if s != want || auth.State() != want || auth.Cached() != want {
		t.Fatalf("expected state and cache %+v, got %+v / %+v", want, auth.State(), auth.Cached())
	}
}
