package protocol

import (
	"gridsync/netsync"
)

// 消息类型
const (
	// 客户端 -> 服务端
	TypeAction      = "action"
	TypeSetPosition = "set_position"

	// 服务端 -> 客户端
	TypeWelcome = "welcome"
	TypeSpawn   = "spawn"
	TypeCached  = "cached"
	TypeState   = "state"
	TypeReset   = "reset"
	TypeGhost   = "ghost"
	TypeDamage  = "damage"
	TypeLeave   = "leave"
	TypeError   = "error"
)

// Envelope 所有线上消息共用的信封，按 Type 解释其余字段
// 示例：{"type":"action","entity":"alice","keys":["up","right"]}
type Envelope struct {
	Type   string   `json:"type" msgpack:"type"`
	Entity string   `json:"entity,omitempty" msgpack:"entity,omitempty"`
	Move   uint32   `json:"move,omitempty" msgpack:"move,omitempty"`
	X      float64  `json:"x,omitempty" msgpack:"x,omitempty"`
	Y      float64  `json:"y,omitempty" msgpack:"y,omitempty"`
	Z      float64  `json:"z,omitempty" msgpack:"z,omitempty"`
	Keys   []string `json:"keys,omitempty" msgpack:"keys,omitempty"`
	Source string   `json:"source,omitempty" msgpack:"source,omitempty"`
	Target string   `json:"target,omitempty" msgpack:"target,omitempty"`
	On     bool     `json:"on,omitempty" msgpack:"on,omitempty"`
	Amount int      `json:"amount,omitempty" msgpack:"amount,omitempty"`
	Kind   string   `json:"kind,omitempty" msgpack:"kind,omitempty"`
	Region string   `json:"region,omitempty" msgpack:"region,omitempty"`
	Reason string   `json:"reason,omitempty" msgpack:"reason,omitempty"`
}

func (e Envelope) Position() netsync.Vec3 {
	return netsync.Vec3{X: e.X, Y: e.Y, Z: e.Z}
}

func withPosition(e Envelope, p netsync.Vec3) Envelope {
	e.X, e.Y, e.Z = p.X, p.Y, p.Z
	return e
}

// ActionEnvelope 客户端提交动作
func ActionEnvelope(id netsync.EntityID, a netsync.Action) Envelope {
	return Envelope{Type: TypeAction, Entity: string(id), Keys: a.Names()}
}

// Action 解析动作；空或未知按键返回错误
func (e Envelope) Action() (netsync.ActionMessage, error) {
	a, err := netsync.ParseAction(e.Keys)
	if err != nil {
		return netsync.ActionMessage{}, err
	}
	return netsync.ActionMessage{Entity: netsync.EntityID(e.Entity), Action: a}, nil
}

// StateEnvelope 权威状态广播
func StateEnvelope(u netsync.StateUpdate) Envelope {
	return withPosition(Envelope{Type: TypeState, Entity: string(u.Entity), Move: u.State.MoveNumber}, u.State.Position)
}

func (e Envelope) State() netsync.StateUpdate {
	return netsync.StateUpdate{
		Entity: netsync.EntityID(e.Entity),
		State:  netsync.State{MoveNumber: e.Move, Position: e.Position()},
	}
}

// CachedEnvelope 新加入者的一次性缓存同步
func CachedEnvelope(c netsync.CachedState) Envelope {
	return withPosition(Envelope{Type: TypeCached, Entity: string(c.Entity)}, c.Position)
}

func (e Envelope) Cached() netsync.CachedState {
	return netsync.CachedState{Entity: netsync.EntityID(e.Entity), Position: e.Position()}
}

// ResetEnvelope 手动覆盖后的广播
func ResetEnvelope(r netsync.ResetState) Envelope {
	return withPosition(Envelope{Type: TypeReset, Entity: string(r.Entity)}, r.Position)
}

func (e Envelope) Reset() netsync.ResetState {
	return netsync.ResetState{Entity: netsync.EntityID(e.Entity), Position: e.Position()}
}

// SetPositionEnvelope 由 source 请求把 target 放到 pos
func SetPositionEnvelope(source, target netsync.EntityID, pos netsync.Vec3) Envelope {
	return withPosition(Envelope{Type: TypeSetPosition, Source: string(source), Target: string(target)}, pos)
}

// WelcomeEnvelope 告知客户端其拥有的实体与出生点
func WelcomeEnvelope(id netsync.EntityID, pos netsync.Vec3) Envelope {
	return withPosition(Envelope{Type: TypeWelcome, Entity: string(id)}, pos)
}

// SpawnEnvelope 新实体出现（发给已有观察者）
func SpawnEnvelope(id netsync.EntityID, pos netsync.Vec3) Envelope {
	return withPosition(Envelope{Type: TypeSpawn, Entity: string(id)}, pos)
}

func GhostEnvelope(id netsync.EntityID, on bool) Envelope {
	return Envelope{Type: TypeGhost, Entity: string(id), On: on}
}

func DamageEnvelope(d netsync.Damage) Envelope {
	return Envelope{
		Type:   TypeDamage,
		Entity: string(d.Target),
		Source: string(d.Source),
		Amount: d.Amount,
		Kind:   string(d.Kind),
		Region: string(d.Region),
	}
}

func (e Envelope) Damage() netsync.Damage {
	return netsync.Damage{
		Source: netsync.EntityID(e.Source),
		Target: netsync.EntityID(e.Entity),
		Amount: e.Amount,
		Kind:   netsync.DamageKind(e.Kind),
		Region: netsync.BodyRegion(e.Region),
	}
}

func LeaveEnvelope(id netsync.EntityID) Envelope {
	return Envelope{Type: TypeLeave, Entity: string(id)}
}

func ErrorEnvelope(reason string) Envelope {
	return Envelope{Type: TypeError, Reason: reason}
}
