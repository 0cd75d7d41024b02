package netsync

import "fmt"

// ActionMessage 客户端 -> 服务端，按发送者有序
type ActionMessage struct {
	Entity EntityID
	Action Action
}

// StateUpdate 服务端 -> 观察者（含 owner），按实体有序
type StateUpdate struct {
	Entity EntityID
	State  State
}

// CachedState 新加入的观察者收到的一次性缓存位置
type CachedState struct {
	Entity   EntityID
	Position Vec3
}

// ResetState 手动覆盖后的广播
type ResetState struct {
	Entity   EntityID
	Position Vec3
}

// Handler 实体级消息处理（Replica 实现）
type Handler interface {
	OnStateUpdate(s State)
	OnCachedState(pos Vec3)
	OnReset(pos Vec3)
}

// Dispatcher 按实体 ID 分发入站消息
type Dispatcher struct {
	handlers map[EntityID]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EntityID]Handler)}
}

func (d *Dispatcher) Register(id EntityID, h Handler) { d.handlers[id] = h }

func (d *Dispatcher) Unregister(id EntityID) { delete(d.handlers, id) }

func (d *Dispatcher) Lookup(id EntityID) (Handler, bool) {
	h, ok := d.handlers[id]
	return h, ok
}

func (d *Dispatcher) Len() int { return len(d.handlers) }

// Dispatch 接受 StateUpdate / CachedState / ResetState（值或指针）
func (d *Dispatcher) Dispatch(msg any) error {
	switch m := msg.(type) {
	case StateUpdate:
		return d.with(m.Entity, func(h Handler) { h.OnStateUpdate(m.State) })
	case *StateUpdate:
		return d.Dispatch(*m)
	case CachedState:
		return d.with(m.Entity, func(h Handler) { h.OnCachedState(m.Position) })
	case *CachedState:
		return d.Dispatch(*m)
	case ResetState:
		return d.with(m.Entity, func(h Handler) { h.OnReset(m.Position) })
	case *ResetState:
		return d.Dispatch(*m)
	default:
		return fmt.Errorf("netsync: cannot dispatch %T", msg)
	}
}

func (d *Dispatcher) with(id EntityID, fn func(Handler)) error {
	h, ok := d.handlers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	fn(h)
	return nil
}
