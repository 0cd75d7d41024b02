package netsync

// EntityID 实体唯一标识（与房间内玩家 ID 一致）
type EntityID string

// State 同步的最小真值单元：动作序号 + 位置
// MoveNumber 是序列号而不是时间戳，每个被接受的动作恰好 +1
type State struct {
	MoveNumber uint32
	Position   Vec3
}

// MoveResolver 根据当前（已取整）位置与动作计算下一个合法位置。
// 实现必须是确定性的：客户端预测与服务端权威使用同一实现。
type MoveResolver interface {
	NextPosition(pos Vec3, a Action) Vec3
}

// MoveResolverFunc 适配普通函数
type MoveResolverFunc func(pos Vec3, a Action) Vec3

func (f MoveResolverFunc) NextPosition(pos Vec3, a Action) Vec3 { return f(pos, a) }

// Apply 纯函数：move+1，位置由 resolver 在取整后的位置上计算
func Apply(r MoveResolver, s State, a Action) State {
	return State{
		MoveNumber: s.MoveNumber + 1,
		Position:   r.NextPosition(s.Position.Round(), a),
	}
}
