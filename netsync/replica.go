package netsync

import "time"

// Role 实体在当前进程中的角色，决定持有哪一种状态
type Role uint8

const (
	RoleObserver  Role = iota // 远端实体（客户端）
	RoleOwner                 // 本地控制实体（客户端）
	RoleAuthority             // 服务端
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAuthority:
		return "authority"
	default:
		return "observer"
	}
}

// ReplicaConfig 每个实体的渲染参数
type ReplicaConfig struct {
	Speed    float64 // 格/秒
	Headless bool    // 不渲染的进程：整个 Tick 直接跳过
}

// Replica 一个实体在某个进程中的全部同步状态。
// owner/observer/authority 三者恰好有一个非 nil，由 role 选择。
type Replica struct {
	id   EntityID
	role Role
	cfg  ReplicaConfig

	owner     *Prediction
	observer  *Observation
	authority *Authority

	body      Interpolator
	ghost     Interpolator
	ghostMode bool
	cell      Vec3 // 当前登记的格子

	hazard *HazardMonitor
}

// NewOwnerReplica 客户端本地实体：predicted 与 server 都从当前位置 move 0 开始
func NewOwnerReplica(id EntityID, r MoveResolver, pos Vec3, policy TrimPolicy, cfg ReplicaConfig) *Replica {
	rep := newReplica(id, RoleOwner, pos, cfg)
	rep.owner = NewPrediction(r, State{Position: pos}, policy)
	return rep
}

// NewObserverReplica 客户端远端实体
func NewObserverReplica(id EntityID, pos Vec3, cfg ReplicaConfig) *Replica {
	rep := newReplica(id, RoleObserver, pos, cfg)
	rep.observer = NewObservation(State{Position: pos})
	return rep
}

// NewAuthorityReplica 服务端实体
func NewAuthorityReplica(id EntityID, r MoveResolver, spawn Vec3, cfg ReplicaConfig) *Replica {
	auth := NewAuthority(r, spawn)
	rep := newReplica(id, RoleAuthority, auth.State().Position, cfg)
	rep.authority = auth
	return rep
}

func newReplica(id EntityID, role Role, pos Vec3, cfg ReplicaConfig) *Replica {
	return &Replica{
		id:    id,
		role:  role,
		cfg:   cfg,
		body:  NewInterpolator(pos),
		ghost: NewInterpolator(pos),
		cell:  pos.Round(),
	}
}

func (r *Replica) ID() EntityID { return r.id }
func (r *Replica) Role() Role { return r.role }
func (r *Replica) Prediction() *Prediction { return r.owner }
func (r *Replica) Observation() *Observation { return r.observer }
func (r *Replica) Authority() *Authority { return r.authority }
func (r *Replica) Hazard() *HazardMonitor { return r.hazard }
func (r *Replica) Ghost() bool { return r.ghostMode }
func (r *Replica) Cell() Vec3 { return r.cell }
func (r *Replica) SetSpeed(speed float64) { r.cfg.Speed = speed }
func (r *Replica) AttachHazard(h *HazardMonitor) { r.hazard = h }

// Position 当前渲染位置（幽灵模式下为幽灵位置）
func (r *Replica) Position() Vec3 {
	if r.ghostMode {
		return r.ghost.Position()
	}
	return r.body.Position()
}

// BodyPosition 实体本体的渲染位置
func (r *Replica) BodyPosition() Vec3 { return r.body.Position() }

// State 当前插值目标所对应的状态
func (r *Replica) State() State {
	switch r.role {
	case RoleOwner:
		return r.owner.Predicted()
	case RoleAuthority:
		return r.authority.State()
	default:
		return r.observer.Server()
	}
}

// Target 本地实体追随预测状态，其余追随权威状态
func (r *Replica) Target() Vec3 { return r.State().Position }

// SetGhost 切换幽灵形态；进入时幽灵从本体位置出发
func (r *Replica) SetGhost(on bool) {
	if on && !r.ghostMode {
		r.ghost.Snap(r.body.Position())
	}
	r.ghostMode = on
	if r.authority != nil {
		r.authority.SetGhost(on)
	}
}

// ReadyForInput 渲染位置已到达预测位置时才采样下一个输入
func (r *Replica) ReadyForInput() bool {
	if r.role != RoleOwner || r.cfg.Headless {
		return false
	}
	return r.owner.Predicted().Position == r.Position()
}

// Submit 本地实体提交动作
func (r *Replica) Submit(a Action) (State, error) {
	if r.owner == nil {
		return State{}, ErrUnknownEntity
	}
	return r.owner.Submit(a)
}

// Tick 每个模拟步调用一次
func (r *Replica) Tick(dt time.Duration) {
	if r.cfg.Headless {
		return
	}
	if r.hazard != nil {
		r.hazard.Advance(dt)
	}
	step := r.cfg.Speed * dt.Seconds()

	if r.ghostMode {
		r.ghost.Step(r.Target(), step)
		return
	}

	if r.hazard != nil {
		if goal, ok := r.hazard.Check(r.body.Position(), r.body.LastDirection()); ok {
			r.drift(goal)
		}
	}
	target := r.Target()
	r.body.Step(target, step)
	r.cell = target.Round()
}

func (r *Replica) drift(goal Vec3) {
	switch r.role {
	case RoleOwner:
		r.owner.Drift(goal)
	case RoleAuthority:
		r.authority.Drift(goal)
	default:
		r.observer.Drift(goal)
	}
}

// OnStateUpdate 收到权威状态广播
func (r *Replica) OnStateUpdate(s State) {
	switch r.role {
	case RoleOwner:
		r.owner.Reconcile(s)
	case RoleObserver:
		r.observer.Adopt(s)
	}
}

// OnCachedState 新加入时的一次性缓存同步，仅对远端实体生效
func (r *Replica) OnCachedState(pos Vec3) {
	if r.role != RoleObserver {
		return
	}
	if r.observer.Join(pos) {
		rounded := Vec3{X: pos.Round().X, Y: pos.Round().Y, Z: pos.Z}
		r.body.Snap(rounded)
		r.ghost.Snap(rounded)
		r.cell = pos.Round()
	}
}

// OnReset 手动覆盖：所有副本替换为 move 0 并直接放置
func (r *Replica) OnReset(pos Vec3) {
	switch r.role {
	case RoleOwner:
		r.owner.Reset(pos)
	case RoleAuthority:
		pos = r.authority.SetPosition(pos).Position
	default:
		r.observer.Reset(pos)
	}
	r.body.Snap(pos)
	r.cell = pos.Round()
}
