package server

import (
	"time"

	"golang.org/x/time/rate"
)

// OverrideGuard 每个来源一个令牌桶，限制手动覆盖频率。只在 Tick 线程使用。
type OverrideGuard struct {
	limit    rate.Limit
	burst    int
	limiters map[PlayerID]*rate.Limiter
}

// NewOverrideGuard perSecond<=0 表示不限流
func NewOverrideGuard(perSecond float64, burst int) *OverrideGuard {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &OverrideGuard{limit: limit, burst: burst, limiters: make(map[PlayerID]*rate.Limiter)}
}

func (g *OverrideGuard) Allow(source PlayerID, now time.Time) bool {
	lim, ok := g.limiters[source]
	if !ok {
		lim = rate.NewLimiter(g.limit, g.burst)
		g.limiters[source] = lim
	}
	return lim.AllowN(now, 1)
}

func (g *OverrideGuard) Forget(source PlayerID) { delete(g.limiters, source) }
