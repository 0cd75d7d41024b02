package netsync

// Interpolator 渲染位置以固定最大速度逼近目标，不会越过目标
type Interpolator struct {
	pos     Vec3
	lastDir Vec3
}

func NewInterpolator(pos Vec3) Interpolator { return Interpolator{pos: pos} }

func (ip *Interpolator) Position() Vec3 { return ip.pos }

// LastDirection 最近一次非零移动方向（单位向量），悬空漂移使用
func (ip *Interpolator) LastDirection() Vec3 { return ip.lastDir }

// Step 移动至多 maxDelta；尚未到达时记录朝向目标的方向
func (ip *Interpolator) Step(target Vec3, maxDelta float64) Vec3 {
	if ip.pos != target {
		ip.lastDir = target.Sub(ip.pos).Normalized()
	}
	ip.pos = MoveTowards(ip.pos, target, maxDelta)
	return ip.pos
}

// Snap 直接放置（传送），不改变方向
func (ip *Interpolator) Snap(pos Vec3) { ip.pos = pos }
