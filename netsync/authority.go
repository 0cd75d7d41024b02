package netsync

// Authority 服务端权威状态机。服务端是 state 与 cache 的唯一写者。
type Authority struct {
	resolver MoveResolver
	state    State
	cache    State // 供新加入的观察者使用
	ghost    bool
}

// NewAuthority 出生点取整后作为 move 0
func NewAuthority(r MoveResolver, spawn Vec3) *Authority {
	s := State{MoveNumber: 0, Position: spawn.Round()}
	return &Authority{resolver: r, state: s, cache: s}
}

func (a *Authority) State() State  { return a.state }
func (a *Authority) Cached() State { return a.cache }
func (a *Authority) Ghost() bool   { return a.ghost }

// Apply 按接收顺序应用一个动作，返回需要广播的新状态。
// 幽灵模式下不更新缓存，避免新玩家把尸体同步到幽灵的位置。
func (a *Authority) Apply(act Action) (State, error) {
	if err := act.Validate(); err != nil {
		return a.state, err
	}
	a.state = Apply(a.resolver, a.state, act)
	if !a.ghost {
		a.cache = a.state
	}
	return a.state, nil
}

// SetPosition 手动覆盖：权威状态与缓存同时替换为 move 0
func (a *Authority) SetPosition(pos Vec3) State {
	s := State{MoveNumber: 0, Position: pos.Round()}
	a.state = s
	a.cache = s
	return s
}

// Drift 悬空格漂移，不修改缓存
func (a *Authority) Drift(pos Vec3) { a.state.Position = pos }

func (a *Authority) SetGhost(on bool) { a.ghost = on }
