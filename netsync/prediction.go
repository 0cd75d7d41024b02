package netsync

// Prediction 本地控制实体（owner）的客户端预测状态。
// 仅由客户端 Tick 线程写入：predicted、server 与待确认队列都属于它。
type Prediction struct {
	resolver  MoveResolver
	policy    TrimPolicy
	server    State
	predicted State
	queue     PendingQueue
}

// NewPrediction 以同一初始状态建立 predicted 与 server
func NewPrediction(r MoveResolver, initial State, policy TrimPolicy) *Prediction {
	return &Prediction{
		resolver:  r,
		policy:    policy,
		server:    initial,
		predicted: initial,
	}
}

func (p *Prediction) Predicted() State { return p.predicted }
func (p *Prediction) Server() State    { return p.server }
func (p *Prediction) Pending() int     { return p.queue.Len() }

// PendingActions 待确认动作副本（按提交顺序）
func (p *Prediction) PendingActions() []Action { return p.queue.Actions() }

// Submit 立即在本地应用动作并入队，调用方随后把动作发往服务端。
// 空动作在这里被丢弃，永远不会到达服务端。
func (p *Prediction) Submit(a Action) (State, error) {
	if err := a.Validate(); err != nil {
		return p.predicted, err
	}
	p.queue.Push(a, p.predicted.MoveNumber+1)
	p.UpdatePredicted()
	return p.predicted, nil
}

// UpdatePredicted 从最近的权威状态出发，按顺序重放所有待确认动作
func (p *Prediction) UpdatePredicted() {
	s := p.server
	for _, it := range p.queue.items {
		s = Apply(p.resolver, s, it.Action)
	}
	p.predicted = s
}

// Reconcile 采纳新的权威状态，淘汰已确认动作后重放剩余动作。
// 返回本次出队的动作数。
func (p *Prediction) Reconcile(update State) int {
	p.server = update
	if p.queue.Len() == 0 {
		p.predicted = update
		return 0
	}
	trimmed := p.queue.Trim(p.policy, p.predicted, p.server)
	p.UpdatePredicted()
	return trimmed
}

// Reset 手动覆盖（拖拽/传送）：两份状态都从 move 0 重新开始，清空队列
func (p *Prediction) Reset(pos Vec3) {
	s := State{MoveNumber: 0, Position: pos}
	p.server = s
	p.predicted = s
	p.queue.Clear()
}

// Drift 悬空格漂移修正。
// 这是单写者规则的例外：客户端同时改写名义上属于服务端的 server 副本，
// 服务端会做同样的确定性修正，因此两边收敛到同一值。
func (p *Prediction) Drift(pos Vec3) {
	p.server.Position = pos
	p.predicted.Position = pos
}
