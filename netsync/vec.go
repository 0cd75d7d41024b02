package netsync

import "math"

// Vec3 三维坐标（格子单位）
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

// Len 向量长度
func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

// Normalized 单位向量；零向量原样返回
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Round 各分量四舍五入到整数格（远离零方向），服务端与客户端必须一致
func (v Vec3) Round() Vec3 {
	return Vec3{math.Round(v.X), math.Round(v.Y), math.Round(v.Z)}
}

// MoveTowards 从 cur 朝 target 线性移动至多 maxDelta，不会越过目标
func MoveTowards(cur, target Vec3, maxDelta float64) Vec3 {
	d := target.Sub(cur)
	dist := d.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return cur.Add(d.Scale(maxDelta / dist))
}

// Finite 各分量都不是 NaN/Inf
func (v Vec3) Finite() bool {
	for _, f := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
