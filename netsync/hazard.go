package netsync

import "time"

// SpatialMap 外部空间查询（按取整后的格子）
type SpatialMap interface {
	IsUnsupported(cell Vec3) bool
	IsVacuum(cell Vec3) bool
}

// DamageKind 伤害类型
type DamageKind string

// BodyRegion 受伤部位
type BodyRegion string

const (
	DamageOxygen DamageKind = "oxy"
	RegionHead   BodyRegion = "head"
)

// Damage 一次伤害；Source 为空表示无来源（环境）
type Damage struct {
	Source EntityID
	Target EntityID
	Amount int
	Kind   DamageKind
	Region BodyRegion
}

// DamageSink 外部伤害接收方。调用即发即忘，失败不回流到本状态机。
type DamageSink interface {
	ApplyDamage(d Damage)
}

// Vitals 外部生命状态查询
type Vitals interface {
	Alive() bool
}

// HazardConfig 真空伤害节奏
type HazardConfig struct {
	Interval  time.Duration
	Amount    int
	Kind      DamageKind
	Region    BodyRegion
	Authority bool // 仅在服务端权威下调度伤害
}

// DefaultHazardConfig 每 1 秒对头部造成 5 点缺氧伤害
func DefaultHazardConfig(authority bool) HazardConfig {
	return HazardConfig{
		Interval:  time.Second,
		Amount:    5,
		Kind:      DamageOxygen,
		Region:    RegionHead,
		Authority: authority,
	}
}

type damagePhase uint8

const (
	damageIdle damagePhase = iota
	damagePending
)

// damageTask 延迟一次性伤害：Idle -> Pending(计时) -> Idle
type damageTask struct {
	phase   damagePhase
	elapsed time.Duration
}

// HazardMonitor 每 Tick 检查渲染位置所在格子的悬空与真空状态
type HazardMonitor struct {
	cfg     HazardConfig
	entity  EntityID
	spatial SpatialMap
	sink    DamageSink
	vitals  Vitals
	task    damageTask
	applied int
}

// NewHazardMonitor sink/vitals 可以为 nil（客户端只做漂移修正）
func NewHazardMonitor(entity EntityID, spatial SpatialMap, sink DamageSink, vitals Vitals, cfg HazardConfig) *HazardMonitor {
	return &HazardMonitor{
		cfg:     cfg,
		entity:  entity,
		spatial: spatial,
		sink:    sink,
		vitals:  vitals,
	}
}

// Pending 是否有伤害正在计时
func (h *HazardMonitor) Pending() bool { return h.task.phase == damagePending }

// Applied 已经施加的伤害次数
func (h *HazardMonitor) Applied() int { return h.applied }

// Advance 推进计时；到期时恰好施加一次伤害并回到 Idle
func (h *HazardMonitor) Advance(dt time.Duration) {
	if h.task.phase != damagePending {
		return
	}
	h.task.elapsed += dt
	if h.task.elapsed < h.cfg.Interval {
		return
	}
	h.task = damageTask{}
	h.applied++
	if h.sink != nil {
		h.sink.ApplyDamage(Damage{
			Target: h.entity,
			Amount: h.cfg.Amount,
			Kind:   h.cfg.Kind,
			Region: h.cfg.Region,
		})
	}
}

// Check 检查 pos 所在格子。悬空时返回沿 lastDir 前进一格的漂移目标；
// 真空且存活且有权威时调度一次伤害（已在计时则忽略）。
func (h *HazardMonitor) Check(pos, lastDir Vec3) (Vec3, bool) {
	if h.spatial == nil {
		return Vec3{}, false
	}
	cell := pos.Round()
	var (
		goal  Vec3
		drift bool
	)
	if h.spatial.IsUnsupported(cell) {
		goal = pos.Add(lastDir).Round()
		drift = true
	}
	if h.spatial.IsVacuum(cell) && h.cfg.Authority && h.alive() && h.task.phase == damageIdle {
		h.task = damageTask{phase: damagePending}
	}
	return goal, drift
}

func (h *HazardMonitor) alive() bool {
	return h.vitals == nil || h.vitals.Alive()
}
