package netsync

// stepResolver 无碰撞的单格移动：right +X, left -X, up -Y, down +Y
var stepResolver = MoveResolverFunc(func(pos Vec3, a Action) Vec3 {
	for _, k := range a.Keys {
		switch k {
		case KeyRight:
			pos.X++
		case KeyLeft:
			pos.X--
		case KeyUp:
			pos.Y--
		case KeyDown:
			pos.Y++
		}
	}
	return pos
})

type fakeMap struct {
	unsupported map[Vec3]bool
	vacuum      map[Vec3]bool
}

func (m fakeMap) IsUnsupported(cell Vec3) bool { return m.unsupported[cell] }
func (m fakeMap) IsVacuum(cell Vec3) bool      { return m.vacuum[cell] }

type recordingSink struct {
	hits []Damage
}

func (s *recordingSink) ApplyDamage(d Damage) { s.hits = append(s.hits, d) }

type fixedVitals bool

func (v fixedVitals) Alive() bool { return bool(v) }
