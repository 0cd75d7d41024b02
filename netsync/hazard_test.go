package netsync

import (
	"testing"
	"time"
)

func TestHazardDamagePacing(t *testing.T) {
	vacuum := fakeMap{vacuum: map[Vec3]bool{{}: true}}
	cases := []struct {
		name  string
		ticks int
		want  int
	}{
		{"under one interval", 10, 0},
		{"exactly one interval", 11, 1},
		{"just short of three", 30, 2},
		{"three intervals", 31, 3},
		{"ten seconds", 101, 10},
	}
	const dt = 100 * time.Millisecond

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &recordingSink{}
			h := NewHazardMonitor("p1", vacuum, sink, fixedVitals(true), DefaultHazardConfig(true))
			for i := 0; i < tc.ticks; i++ {
				h.Advance(dt)
				h.Check(Vec3{}, Vec3{})
				if len(sink.hits) > i/10+1 {
					t.Fatalf("too many applications at tick %d: %d", i, len(sink.hits))
				}
			}
			if len(sink.hits) != tc.want {
				t.Fatalf("expected %d applications over %d ticks, got %d", tc.want, tc.ticks, len(sink.hits))
			}
			if h.Applied() != tc.want {
				t.Fatalf("expected Applied()=%d, got %d", tc.want, h.Applied())
			}
		})
	}
}

func TestHazardReentryWhilePendingIsNoop(t *testing.T) {
	vacuum := fakeMap{vacuum: map[Vec3]bool{{}: true}}
	sink := &recordingSink{}
	h := NewHazardMonitor("p1", vacuum, sink, nil, DefaultHazardConfig(true))

	h.Check(Vec3{}, Vec3{})
	if !h.Pending() {
		t.Fatalf("expected damage to be pending")
	}
	h.Advance(400 * time.Millisecond)
	h.Check(Vec3{}, Vec3{})
	h.Check(Vec3{}, Vec3{})
	h.Advance(600 * time.Millisecond)

	if len(sink.hits) != 1 {
		t.Fatalf("expected exactly one application, got %d", len(sink.hits))
	}
	if h.Pending() {
		t.Fatalf("expected flag to be cleared after application")
	}
	hit := sink.hits[0]
	if hit.Amount != 5 || hit.Kind != DamageOxygen || hit.Region != RegionHead || hit.Source != "" || hit.Target != "p1" {
		t.Fatalf("unexpected damage %+v", hit)
	}
}

func TestHazardPendingDamageFiresAfterLeavingVacuum(t *testing.T) {
	m := fakeMap{vacuum: map[Vec3]bool{{}: true}}
	sink := &recordingSink{}
	h := NewHazardMonitor("p1", m, sink, nil, DefaultHazardConfig(true))

	h.Check(Vec3{}, Vec3{})
	h.Advance(500 * time.Millisecond)
	h.Check(Vec3{X: 3}, Vec3{})
	h.Advance(500 * time.Millisecond)

	if len(sink.hits) != 1 {
		t.Fatalf("expected scheduled damage to complete, got %d", len(sink.hits))
	}
}

func TestHazardSkipsDeadOrNonAuthoritative(t *testing.T) {
	vacuum := fakeMap{vacuum: map[Vec3]bool{{}: true}}

	dead := NewHazardMonitor("p1", vacuum, &recordingSink{}, fixedVitals(false), DefaultHazardConfig(true))
	dead.Check(Vec3{}, Vec3{})
	if dead.Pending() {
		t.Fatalf("expected dead entity not to schedule damage")
	}

	client := NewHazardMonitor("p1", vacuum, nil, nil, DefaultHazardConfig(false))
	client.Check(Vec3{}, Vec3{})
	if client.Pending() {
		t.Fatalf("expected client-side monitor not to schedule damage")
	}
}

func TestHazardUnsupportedDriftsAlongLastDirection(t *testing.T) {
	m := fakeMap{unsupported: map[Vec3]bool{{X: 2, Y: 1}: true}}
	h := NewHazardMonitor("p1", m, nil, nil, DefaultHazardConfig(false))

	goal, ok := h.Check(Vec3{X: 2.2, Y: 1}, Vec3{X: 1})
	if !ok {
		t.Fatalf("expected drift on unsupported cell")
	}
	if goal != (Vec3{X: 3, Y: 1}) {
		t.Fatalf("expected goal one cell ahead, got %+v", goal)
	}

	if _, ok := h.Check(Vec3{X: 5, Y: 1}, Vec3{X: 1}); ok {
		t.Fatalf("expected no drift on supported cell")
	}
}
