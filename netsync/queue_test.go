package netsync

import "testing"

func TestTrimByCount(t *testing.T) {
	cases := []struct {
		name      string
		queued    int
		predicted uint32
		server    uint32
		wantLeft  int
	}{
		{"all confirmed", 3, 8, 8, 0},
		{"one confirmed", 3, 8, 6, 2},
		{"none confirmed", 3, 8, 5, 3},
		{"negative gap", 2, 4, 9, 2},
		{"empty queue", 0, 4, 2, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var q PendingQueue
			for i := 0; i < tc.queued; i++ {
				q.Push(MustAction(KeyUp), uint32(i+1))
			}
			before := q.Len()
			q.Trim(TrimByCount, State{MoveNumber: tc.predicted}, State{MoveNumber: tc.server})
			if q.Len() != tc.wantLeft {
				t.Fatalf("expected %d left, got %d", tc.wantLeft, q.Len())
			}
			if q.Len() > before {
				t.Fatalf("queue grew from %d to %d", before, q.Len())
			}
		})
	}
}

func TestTrimBySequence(t *testing.T) {
	var q PendingQueue
	q.Push(MustAction(KeyUp), 6)
	q.Push(MustAction(KeyDown), 7)
	q.Push(MustAction(KeyLeft), 8)

	if n := q.Trim(TrimBySequence, State{}, State{MoveNumber: 7}); n != 2 {
		t.Fatalf("expected 2 trimmed, got %d", n)
	}
	rest := q.Actions()
	if len(rest) != 1 || !rest[0].Equal(MustAction(KeyLeft)) {
		t.Fatalf("expected only the move-8 action to remain, got %v", rest)
	}
}

func TestQueueIsFIFO(t *testing.T) {
	var q PendingQueue
	q.Push(MustAction(KeyUp), 1)
	q.Push(MustAction(KeyDown), 2)

	a, ok := q.Pop()
	if !ok || !a.Equal(MustAction(KeyUp)) {
		t.Fatalf("expected first pushed action, got %v", a.Names())
	}
	q.Pop()
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestParseTrimPolicy(t *testing.T) {
	if p, err := ParseTrimPolicy("sequence"); err != nil || p != TrimBySequence {
		t.Fatalf("expected sequence policy, got %v %v", p, err)
	}
	if p, err := ParseTrimPolicy(""); err != nil || p != TrimByCount {
		t.Fatalf("expected default count policy, got %v %v", p, err)
	}
	if _, err := ParseTrimPolicy("lifo"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
