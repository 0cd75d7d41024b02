package server

import (
	"gridsync/netsync"
)

// PlayerID 表示玩家唯一标识（同时也是同步实体 ID）
type PlayerID string

// PlayerView 管理接口输出的玩家快照
type PlayerView struct {
	ID      string  `json:"id"`
	Move    uint32  `json:"move"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	CachedX float64 `json:"cachedX"`
	CachedY float64 `json:"cachedY"`
	Health  int     `json:"health"`
	Ghost   bool    `json:"ghost"`
	Exposed bool    `json:"damagePending"`
	ConnID  string  `json:"conn,omitempty"`
}

// Player 房间内的玩家实体：权威状态由 Replica(RoleAuthority) 持有
type Player struct {
	ID      PlayerID
	Replica *netsync.Replica
	Health  int

	Conn *ClientConn // 网络连接的发送端（写协程）
}

func (p *Player) EntityID() netsync.EntityID { return netsync.EntityID(p.ID) }

// Alive 供 HazardMonitor 判断是否继续施加伤害
func (p *Player) Alive() bool { return p.Health > 0 }

func (p *Player) view() PlayerView {
	auth := p.Replica.Authority()
	s, c := auth.State(), auth.Cached()
	v := PlayerView{
		ID:      string(p.ID),
		Move:    s.MoveNumber,
		X:       s.Position.X,
		Y:       s.Position.Y,
		Z:       s.Position.Z,
		CachedX: c.Position.X,
		CachedY: c.Position.Y,
		Health:  p.Health,
		Ghost:   p.Replica.Ghost(),
	}
	if h := p.Replica.Hazard(); h != nil {
		v.Exposed = h.Pending()
	}
	if p.Conn != nil {
		v.ConnID = p.Conn.ID
	}
	return v
}
