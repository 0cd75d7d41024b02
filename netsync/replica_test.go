package netsync

import (
	"testing"
	"time"
)

const tick = 50 * time.Millisecond

func TestOwnerReadyOnlyAfterArrival(t *testing.T) {
	rep := NewOwnerReplica("me", stepResolver, Vec3{}, TrimByCount, ReplicaConfig{Speed: 4})
	if !rep.ReadyForInput() {
		t.Fatalf("expected owner at rest to accept input")
	}

	rep.Submit(MustAction(KeyRight))
	if rep.ReadyForInput() {
		t.Fatalf("expected owner to wait for rendered position")
	}

	// 4 格/秒，每步 0.2 格
	for i := 0; i < 6; i++ {
		rep.Tick(tick)
	}
	if !rep.ReadyForInput() {
		t.Fatalf("expected owner ready after reaching %+v, at %+v", rep.Target(), rep.Position())
	}
	if rep.Cell() != (Vec3{X: 1}) {
		t.Fatalf("expected registered cell (1,0,0), got %+v", rep.Cell())
	}
}

func TestObserverFollowsServerState(t *testing.T) {
	rep := NewObserverReplica("them", Vec3{}, ReplicaConfig{Speed: 100})
	rep.OnStateUpdate(State{MoveNumber: 3, Position: Vec3{X: 2, Y: 1}})
	rep.Tick(tick)
	if rep.Position() != (Vec3{X: 2, Y: 1}) {
		t.Fatalf("expected observer at server position, got %+v", rep.Position())
	}
}

func TestObserverJoinUsesCacheOnlyWhenSet(t *testing.T) {
	rep := NewObserverReplica("them", Vec3{X: 1}, ReplicaConfig{Speed: 1})
	rep.OnCachedState(Vec3{})
	if rep.Observation().Server().Position != (Vec3{X: 1}) {
		t.Fatalf("expected zero cache to be ignored")
	}

	rep.OnCachedState(Vec3{X: 4.4, Y: 6.6, Z: 0.25})
	if rep.Position() != (Vec3{X: 4, Y: 7, Z: 0.25}) {
		t.Fatalf("expected rendered position snapped to rounded cache, got %+v", rep.Position())
	}

	owner := NewOwnerReplica("me", stepResolver, Vec3{}, TrimByCount, ReplicaConfig{Speed: 1})
	owner.OnCachedState(Vec3{X: 9})
	if owner.Position() != (Vec3{}) {
		t.Fatalf("expected owner to ignore cached state")
	}
}

func TestManualOverrideReplacesAllCopies(t *testing.T) {
	server := NewAuthorityReplica("p", stepResolver, Vec3{}, ReplicaConfig{Speed: 5})
	client := NewOwnerReplica("p", stepResolver, Vec3{}, TrimByCount, ReplicaConfig{Speed: 5})

	for i := 0; i < 3; i++ {
		client.Submit(MustAction(KeyRight))
	}
	a := MustAction(KeyRight)
	s, _ := server.Authority().Apply(a)
	client.OnStateUpdate(s)
	if client.Prediction().Pending() == 0 {
		t.Fatalf("expected pending actions before override")
	}

	target := Vec3{X: 10, Y: 10}
	server.OnReset(target)
	client.OnReset(server.Authority().State().Position)

	want := State{MoveNumber: 0, Position: target}
	if client.Prediction().Pending() != 0 {
		t.Fatalf("expected queue length 0, got %d", client.Prediction().Pending())
	}
	if client.Prediction().Predicted() != want || client.Prediction().Server() != want {
		t.Fatalf("expected predicted == server == %+v", want)
	}
	if server.Authority().State() != want || server.Authority().Cached() != want {
		t.Fatalf("expected authority and cache %+v", want)
	}
	if client.Position() != target || server.Position() != target {
		t.Fatalf("expected rendered positions snapped to %+v", target)
	}
}

func TestGhostPathIsInterpolatedSeparately(t *testing.T) {
	rep := NewObserverReplica("p", Vec3{X: 2}, ReplicaConfig{Speed: 100})
	rep.SetGhost(true)
	rep.OnStateUpdate(State{MoveNumber: 1, Position: Vec3{X: 5}})
	rep.Tick(tick)

	if rep.Position() != (Vec3{X: 5}) {
		t.Fatalf("expected ghost at target, got %+v", rep.Position())
	}
	if rep.BodyPosition() != (Vec3{X: 2}) {
		t.Fatalf("expected body to stay put while ghost, got %+v", rep.BodyPosition())
	}
}

func TestGhostAuthorityStopsCaching(t *testing.T) {
	rep := NewAuthorityReplica("p", stepResolver, Vec3{}, ReplicaConfig{Speed: 1})
	rep.SetGhost(true)
	rep.Authority().Apply(MustAction(KeyDown))
	if rep.Authority().Cached().MoveNumber != 0 {
		t.Fatalf("expected cache untouched by ghost movement")
	}
}

func TestHeadlessTickDoesNothing(t *testing.T) {
	m := fakeMap{vacuum: map[Vec3]bool{{}: true}}
	rep := NewObserverReplica("p", Vec3{}, ReplicaConfig{Speed: 100, Headless: true})
	h := NewHazardMonitor("p", m, &recordingSink{}, nil, DefaultHazardConfig(true))
	rep.AttachHazard(h)
	rep.OnStateUpdate(State{MoveNumber: 1, Position: Vec3{X: 3}})

	rep.Tick(tick)

	if rep.Position() != (Vec3{}) {
		t.Fatalf("expected no interpolation when headless, got %+v", rep.Position())
	}
	if h.Pending() {
		t.Fatalf("expected no hazard checks when headless")
	}
	if rep.ReadyForInput() {
		t.Fatalf("expected headless replica not to sample input")
	}
}

func TestReplicaDriftAppliesToBothClientCopies(t *testing.T) {
	m := fakeMap{unsupported: map[Vec3]bool{{X: 1}: true}}
	rep := NewOwnerReplica("me", stepResolver, Vec3{}, TrimByCount, ReplicaConfig{Speed: 10})
	rep.AttachHazard(NewHazardMonitor("me", m, nil, nil, DefaultHazardConfig(false)))

	rep.Submit(MustAction(KeyRight))
	rep.Prediction().Reconcile(State{MoveNumber: 1, Position: Vec3{X: 1}})
	// 走到悬空格 (1,0,0)
	for i := 0; i < 3; i++ {
		rep.Tick(tick)
	}

	p := rep.Prediction()
	if p.Predicted().Position != (Vec3{X: 2}) || p.Server().Position != (Vec3{X: 2}) {
		t.Fatalf("expected both copies drifted to (2,0,0), got %+v / %+v", p.Predicted(), p.Server())
	}
	if p.Predicted().MoveNumber != 1 {
		t.Fatalf("expected drift to keep move number, got %d", p.Predicted().MoveNumber)
	}
}

func TestReplicaDriftOnAuthorityKeepsCache(t *testing.T) {
	m := fakeMap{unsupported: map[Vec3]bool{{X: 1}: true}}
	rep := NewAuthorityReplica("srv", stepResolver, Vec3{}, ReplicaConfig{Speed: 10})
	rep.AttachHazard(NewHazardMonitor("srv", m, nil, nil, DefaultHazardConfig(true)))

	if _, err := rep.Authority().Apply(MustAction(KeyRight)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i := 0; i < 3; i++ {
		rep.Tick(tick)
	}

	auth := rep.Authority()
	if want := (State{MoveNumber: 1, Position: Vec3{X: 2}}); auth.State() != want {
		t.Fatalf("expected authoritative state %+v, got %+v", want, auth.State())
	}
	if want := (State{MoveNumber: 1, Position: Vec3{X: 1}}); auth.Cached() != want {
		t.Fatalf("expected cache to stay %+v, got %+v", want, auth.Cached())
	}
}

func TestReplicaDriftOnObserverServerCopy(t *testing.T) {
	m := fakeMap{unsupported: map[Vec3]bool{{X: 1}: true}}
	rep := NewObserverReplica("them", Vec3{}, ReplicaConfig{Speed: 10})
	rep.AttachHazard(NewHazardMonitor("them", m, nil, nil, DefaultHazardConfig(false)))

	rep.OnStateUpdate(State{MoveNumber: 1, Position: Vec3{X: 1}})
	for i := 0; i < 3; i++ {
		rep.Tick(tick)
	}

	if want := (State{MoveNumber: 1, Position: Vec3{X: 2}}); rep.Observation().Server() != want {
		t.Fatalf("expected observed copy %+v, got %+v", want, rep.Observation().Server())
	}
	for i := 0; i < 3; i++ {
		rep.Tick(tick)
	}
	if rep.Position() != (Vec3{X: 2}) {
		t.Fatalf("expected body to follow drift, got %+v", rep.Position())
	}
}
