package client

import (
	"math/rand"

	"gridsync/netsync"
)

// InputSource 在本地实体可以接受输入时被采样；ok=false 表示本帧不动
type InputSource interface {
	Sample() (netsync.Action, bool)
}

// Script 按顺序回放固定动作，放完后停止
type Script struct {
	actions []netsync.Action
	next    int
}

func NewScript(actions ...netsync.Action) *Script {
	return &Script{actions: actions}
}

func (s *Script) Sample() (netsync.Action, bool) {
	if s.next >= len(s.actions) {
		return netsync.Action{}, false
	}
	a := s.actions[s.next]
	s.next++
	return a, true
}

// Done 全部动作已采样
func (s *Script) Done() bool { return s.next >= len(s.actions) }

// RandomWalk 随机方向游走，偶尔斜向
type RandomWalk struct {
	rng *rand.Rand
}

func NewRandomWalk(seed int64) *RandomWalk {
	return &RandomWalk{rng: rand.New(rand.NewSource(seed))}
}

var walkKeys = []netsync.KeyCode{netsync.KeyUp, netsync.KeyDown, netsync.KeyLeft, netsync.KeyRight}

func (w *RandomWalk) Sample() (netsync.Action, bool) {
	first := walkKeys[w.rng.Intn(len(walkKeys))]
	if w.rng.Intn(4) != 0 {
		return netsync.MustAction(first), true
	}
	second := walkKeys[w.rng.Intn(len(walkKeys))]
	if second == first {
		return netsync.MustAction(first), true
	}
	return netsync.MustAction(first, second), true
}
