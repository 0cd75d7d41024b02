package world

import (
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lafriks/go-tiled"

	"gridsync/netsync"
)

const (
	terrainLayer = "terrain"
	spawnGroup   = "Spawn"
)

// LoadTMX 从 Tiled 地图加载：terrain 图层的图块属性 kind 决定格子类型，
// 空图块为太空；Spawn 对象组给出出生点。fsys 可以是 os.DirFS 或 embed.FS。
func LoadTMX(fsys fs.FS, path string) (*Grid, error) {
	m, err := tiled.LoadFile(path, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", path, err)
	}

	g := newGrid(m.Width, m.Height)
	found := false
	for _, layer := range m.Layers {
		if layer.Name != terrainLayer {
			continue
		}
		found = true
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				tile := layer.Tiles[y*m.Width+x]
				if tile.IsNil() {
					continue
				}
				kind := Floor
				if tt, err := tile.Tileset.GetTilesetTile(tile.ID); err == nil {
					if name := tt.Properties.GetString("kind"); name != "" {
						if kind, err = ParseKind(name); err != nil {
							return nil, fmt.Errorf("load TMX %s: tile (%d,%d): %w", path, x, y, err)
						}
					}
				}
				g.cells[y*m.Width+x] = kind
			}
		}
		break
	}
	if !found {
		return nil, fmt.Errorf("load TMX %s: no %q layer", path, terrainLayer)
	}

	for _, og := range m.ObjectGroups {
		if og.Name != spawnGroup {
			continue
		}
		for _, o := range og.Objects {
			g.spawns = append(g.spawns, netsync.Vec3{
				X: math.Floor(o.X / float64(m.TileWidth)),
				Y: math.Floor(o.Y / float64(m.TileHeight)),
			})
		}
	}

	g.build()
	return g, nil
}

// ParseGrid ASCII 地图：'.' 地板，'#' 墙，' ' 太空，'~' 失压，'S' 地板+出生点
func ParseGrid(rows []string) (*Grid, error) {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	g := newGrid(width, len(rows))
	for y, r := range rows {
		for x, c := range r {
			var k Kind
			switch c {
			case '.':
				k = Floor
			case '#':
				k = Wall
			case ' ':
				k = Space
			case '~':
				k = Breach
			case 'S':
				k = Floor
				g.spawns = append(g.spawns, netsync.Vec3{X: float64(x), Y: float64(y)})
			default:
				return nil, fmt.Errorf("world: unknown map glyph %q at (%d,%d)", c, x, y)
			}
			g.cells[y*width+x] = k
		}
	}
	g.build()
	return g, nil
}

const station = `
##########
#S......S#
#........#
#..~~~...#
#..~~~....
#........#
###.######
  #.#
  # #
`

// Station 内置地图：一个带失压区的舱室，东侧舱门与南侧走廊通向太空
func Station() *Grid {
	rows := strings.Split(strings.Trim(station, "\n"), "\n")
	g, err := ParseGrid(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// Load MAP_PATH 为空时使用内置地图
func Load(fsys fs.FS, path string) (*Grid, error) {
	if path == "" {
		return Station(), nil
	}
	return LoadTMX(fsys, path)
}

// LoadPath 从本地文件加载；path 为空时使用内置地图
func LoadPath(path string) (*Grid, error) {
	if path == "" {
		return Load(nil, "")
	}
	return Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}
