package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount         int64 // 统计的 Tick 次数
	ActionsAccepted   int64 // 被权威状态接受的动作
	ActionsRejected   int64 // 空动作、未知按键、非本人实体
	StateBroadcasts   int64 // state 广播次数
	OverridesAccepted int64
	OverridesRejected int64 // 来源不符、目标不存在、限流
	DamageApplied     int64
	SlowKicked        int64 // 发送队列溢出被踢下线的连接
	Joins             int64
	Leaves            int64
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted()         { atomic.AddInt64(&m.ActionsAccepted, 1) }
func (m *RoomMetrics) IncRejected()         { atomic.AddInt64(&m.ActionsRejected, 1) }
func (m *RoomMetrics) IncBroadcast()        { atomic.AddInt64(&m.StateBroadcasts, 1) }
func (m *RoomMetrics) IncOverride()         { atomic.AddInt64(&m.OverridesAccepted, 1) }
func (m *RoomMetrics) IncOverrideRejected() { atomic.AddInt64(&m.OverridesRejected, 1) }
func (m *RoomMetrics) IncDamage()           { atomic.AddInt64(&m.DamageApplied, 1) }
func (m *RoomMetrics) IncSlowKicked()       { atomic.AddInt64(&m.SlowKicked, 1) }
func (m *RoomMetrics) IncJoin()             { atomic.AddInt64(&m.Joins, 1) }
func (m *RoomMetrics) IncLeave()            { atomic.AddInt64(&m.Leaves, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":         tick,
		"actions_accepted":   atomic.LoadInt64(&m.ActionsAccepted),
		"actions_rejected":   atomic.LoadInt64(&m.ActionsRejected),
		"state_broadcasts":   atomic.LoadInt64(&m.StateBroadcasts),
		"overrides_accepted": atomic.LoadInt64(&m.OverridesAccepted),
		"overrides_rejected": atomic.LoadInt64(&m.OverridesRejected),
		"damage_applied":     atomic.LoadInt64(&m.DamageApplied),
		"slow_kicked":        atomic.LoadInt64(&m.SlowKicked),
		"joins":              atomic.LoadInt64(&m.Joins),
		"leaves":             atomic.LoadInt64(&m.Leaves),
		"avg_tick_ms":        avgMs,
	}
}
