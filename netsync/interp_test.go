package netsync

import "testing"

func TestInterpolatorTracksLastDirection(t *testing.T) {
	ip := NewInterpolator(Vec3{})
	ip.Step(Vec3{Y: -2}, 0.5)
	if ip.LastDirection() != (Vec3{Y: -1}) {
		t.Fatalf("expected direction (0,-1,0), got %+v", ip.LastDirection())
	}

	// 到达后方向保持不变
	ip.Step(Vec3{Y: -2}, 10)
	ip.Step(Vec3{Y: -2}, 10)
	if ip.Position() != (Vec3{Y: -2}) {
		t.Fatalf("expected arrival, got %+v", ip.Position())
	}
	if ip.LastDirection() != (Vec3{Y: -1}) {
		t.Fatalf("expected direction to persist, got %+v", ip.LastDirection())
	}

	ip.Snap(Vec3{X: 7})
	if ip.Position() != (Vec3{X: 7}) || ip.LastDirection() != (Vec3{Y: -1}) {
		t.Fatalf("expected snap to move without changing direction")
	}
}
