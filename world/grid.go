package world

import (
	"fmt"
	"strings"
	"sync"

	"github.com/solarlune/resolv"

	"gridsync/netsync"
)

// Kind 格子类型
type Kind uint8

const (
	Floor  Kind = iota
	Wall        // 阻挡移动
	Space       // 无支撑且无大气：漂移 + 缺氧
	Breach      // 有地板但失压：仅缺氧
)

var kindNames = map[Kind]string{Floor: "floor", Wall: "wall", Space: "space", Breach: "breach"}

func (k Kind) String() string { return kindNames[k] }

// ParseKind TMX 图块属性 kind 的取值
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return Floor, fmt.Errorf("world: unknown tile kind %q", s)
}

const (
	cellSize  = 16 // resolv 空间中每格的像素
	probeSize = 8
	tagSolid  = "solid"
)

// Grid 平面格子地图：既是 MoveResolver 也是 SpatialMap。
// 碰撞通过 resolv.Space 检测，探针对象被互斥锁保护。
type Grid struct {
	width  int
	height int
	cells  []Kind
	spawns []netsync.Vec3

	mu    sync.Mutex
	space *resolv.Space
	probe *resolv.Object
}

func newGrid(width, height int) *Grid {
	cells := make([]Kind, width*height)
	for i := range cells {
		cells[i] = Space
	}
	return &Grid{width: width, height: height, cells: cells}
}

// build 根据墙体生成碰撞空间，所有格子设置完成后调用一次
func (g *Grid) build() {
	g.space = resolv.NewSpace(g.width*cellSize, g.height*cellSize, cellSize, cellSize)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y*g.width+x] != Wall {
				continue
			}
			// 内缩 1 像素，墙体只登记在自己的格子里
			obj := resolv.NewObject(float64(x*cellSize+1), float64(y*cellSize+1), cellSize-2, cellSize-2, tagSolid)
			obj.SetShape(resolv.NewRectangle(0, 0, cellSize-2, cellSize-2))
			g.space.Add(obj)
		}
	}
	g.probe = resolv.NewObject(0, 0, probeSize, probeSize, "probe")
	g.space.Add(g.probe)
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Spawns 出生点（按地图中的顺序）
func (g *Grid) Spawns() []netsync.Vec3 {
	return append([]netsync.Vec3(nil), g.spawns...)
}

// Kind 越界的格子视为太空
func (g *Grid) Kind(x, y int) Kind {
	if !g.inBounds(x, y) {
		return Space
	}
	return g.cells[y*g.width+x]
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *Grid) kindAt(cell netsync.Vec3) Kind {
	return g.Kind(int(cell.X), int(cell.Y))
}

// IsUnsupported 脚下没有支撑（会漂移）
func (g *Grid) IsUnsupported(cell netsync.Vec3) bool {
	return g.kindAt(cell.Round()) == Space
}

// IsVacuum 没有大气
func (g *Grid) IsVacuum(cell netsync.Vec3) bool {
	k := g.kindAt(cell.Round())
	return k == Space || k == Breach
}

// NextPosition 单步轴对齐移动：先水平后垂直，撞墙的轴不动；相反按键互相抵消。
// up 为 -Y，Z 保持不变。
func (g *Grid) NextPosition(pos netsync.Vec3, a netsync.Action) netsync.Vec3 {
	dx, dy := delta(a)
	if dx == 0 && dy == 0 {
		return pos
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if dx != 0 && g.blocked(pos, dx, 0) {
		dx = 0
	}
	pos.X += float64(dx)
	if dy != 0 && g.blocked(pos, 0, dy) {
		dy = 0
	}
	pos.Y += float64(dy)
	return pos
}

// blocked 目标格在地图外时不会有墙，无需查询碰撞空间
func (g *Grid) blocked(pos netsync.Vec3, dx, dy int) bool {
	tx, ty := int(pos.X)+dx, int(pos.Y)+dy
	if !g.inBounds(tx, ty) {
		return false
	}
	g.probe.X = pos.X*cellSize + (cellSize-probeSize)/2
	g.probe.Y = pos.Y*cellSize + (cellSize-probeSize)/2
	g.probe.Update()
	return g.probe.Check(float64(dx*cellSize), float64(dy*cellSize), tagSolid) != nil
}

func delta(a netsync.Action) (dx, dy int) {
	if a.Has(netsync.KeyRight) {
		dx++
	}
	if a.Has(netsync.KeyLeft) {
		dx--
	}
	if a.Has(netsync.KeyDown) {
		dy++
	}
	if a.Has(netsync.KeyUp) {
		dy--
	}
	return dx, dy
}
