package netsync

// Observation 远端实体在观察者客户端上的状态：只有最近一次的权威状态
type Observation struct {
	server State
}

func NewObservation(initial State) *Observation {
	return &Observation{server: initial}
}

func (o *Observation) Server() State { return o.server }

// Adopt 无条件采纳权威状态
func (o *Observation) Adopt(update State) { o.server = update }

// Join 新加入时读取一次广播缓存；零位置视为无缓存，返回 false
func (o *Observation) Join(cached Vec3) bool {
	if cached.IsZero() {
		return false
	}
	o.server = State{MoveNumber: 0, Position: cached}
	return true
}

func (o *Observation) Reset(pos Vec3) { o.server = State{Position: pos} }

// Drift 同 Prediction.Drift，客户端本地的确定性漂移修正
func (o *Observation) Drift(pos Vec3) { o.server.Position = pos }
