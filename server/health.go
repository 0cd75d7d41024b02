package server

import (
	"gridsync/netsync"
	"gridsync/protocol"
)

// ApplyDamage 真空伤害落地：扣血并广播效果；血量归零后转为幽灵。
// 由 HazardMonitor 在 Tick 线程中调用。
func (r *Room) ApplyDamage(d netsync.Damage) {
	p, ok := r.players[PlayerID(d.Target)]
	if !ok || !p.Alive() {
		return
	}
	p.Health -= d.Amount
	if p.Health < 0 {
		p.Health = 0
	}
	r.metrics.IncDamage()
	r.broadcast(protocol.DamageEnvelope(d))
	Log.Debugw("damage", "room", r.ID, "player", p.ID, "amount", d.Amount, "kind", d.Kind, "health", p.Health)

	if p.Health == 0 && !p.Replica.Ghost() {
		p.Replica.SetGhost(true)
		r.broadcast(protocol.GhostEnvelope(p.EntityID(), true))
		Log.Infow("player became ghost", "room", r.ID, "player", p.ID)
	}
}
