package netsync

import (
	"fmt"
	"strings"
)

// TrimPolicy 收到权威状态后如何淘汰已确认的动作
type TrimPolicy uint8

const (
	// TrimByCount 队列长度超过序号差时从队首出队（序号差为负时不出队）
	TrimByCount TrimPolicy = iota
	// TrimBySequence 按每个动作预测时的序号精确淘汰
	TrimBySequence
)

func (p TrimPolicy) String() string {
	if p == TrimBySequence {
		return "sequence"
	}
	return "count"
}

// ParseTrimPolicy count / sequence
func ParseTrimPolicy(s string) (TrimPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "count":
		return TrimByCount, nil
	case "sequence", "seq":
		return TrimBySequence, nil
	default:
		return TrimByCount, fmt.Errorf("netsync: unknown trim policy %q", s)
	}
}

type pendingAction struct {
	Action Action
	Move   uint32 // 该动作被预测后得到的序号
}

// PendingQueue 已在本地应用、尚未被服务端确认的动作（FIFO）
type PendingQueue struct {
	items []pendingAction
}

func (q *PendingQueue) Push(a Action, move uint32) {
	q.items = append(q.items, pendingAction{Action: a, Move: move})
}

// Pop 出队队首；空队列返回 false
func (q *PendingQueue) Pop() (Action, bool) {
	if len(q.items) == 0 {
		return Action{}, false
	}
	head := q.items[0]
	q.items[0] = pendingAction{}
	q.items = q.items[1:]
	return head.Action, true
}

func (q *PendingQueue) Len() int { return len(q.items) }

func (q *PendingQueue) Clear() { q.items = nil }

// Actions 按顺序返回队列内容的副本
func (q *PendingQueue) Actions() []Action {
	out := make([]Action, len(q.items))
	for i, it := range q.items {
		out[i] = it.Action
	}
	return out
}

// Trim 根据最新权威状态淘汰已确认动作，返回出队数量。
// 长度只会减少，不会增加。
func (q *PendingQueue) Trim(policy TrimPolicy, predicted, server State) int {
	trimmed := 0
	switch policy {
	case TrimBySequence:
		for len(q.items) > 0 && q.items[0].Move <= server.MoveNumber {
			q.Pop()
			trimmed++
		}
	default:
		gap := int64(predicted.MoveNumber) - int64(server.MoveNumber)
		if gap < 0 {
			return 0
		}
		for len(q.items) > 0 && int64(len(q.items)) > gap {
			q.Pop()
			trimmed++
		}
	}
	return trimmed
}
