package edges

import (
	"math"

	"github.com/corridor-hub/corridor-hub/internal/geo"
)

// gridIndex 是一个按经纬度网格分桶的空间索引：每条边按其包围盒
// 覆盖的格子登记，bbox 查询只需要扫描命中的格子。对于 0.05°
// （约 5km）的格宽，查询时间与命中区域成正比而非全表线性。
type gridIndex struct {
	cellDeg float64
	cells   map[cellKey][]int64
	bounds  map[int64]geo.BBox
}

type cellKey struct {
	x int32
	y int32
}

const defaultCellDeg = 0.05

func newGridIndex() *gridIndex {
	return &gridIndex{
		cellDeg: defaultCellDeg,
		cells:   make(map[cellKey][]int64),
		bounds:  make(map[int64]geo.BBox),
	}
}

// insert 登记一条边；同一 id 重复登记会先清除旧条目，
// 保证索引与边表一一对应（不残留 stale entry）。
func (g *gridIndex) insert(id int64, box geo.BBox) {
	if _, ok := g.bounds[id]; ok {
		g.remove(id)
	}
	g.bounds[id] = box
	g.eachCell(box, func(key cellKey) {
		g.cells[key] = append(g.cells[key], id)
	})
}

// remove 删除一条边的全部索引条目。
func (g *gridIndex) remove(id int64) {
	box, ok := g.bounds[id]
	if !ok {
		return
	}
	delete(g.bounds, id)
	g.eachCell(box, func(key cellKey) {
		ids := g.cells[key]
		for i, candidate := range ids {
			if candidate == id {
				g.cells[key] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(g.cells[key]) == 0 {
			delete(g.cells, key)
		}
	})
}

// query 返回包围盒相交的边 id，顺序不保证，无重复。
func (g *gridIndex) query(box geo.BBox) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	g.eachCell(box, func(key cellKey) {
		for _, id := range g.cells[key] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if g.bounds[id].Intersects(box) {
				out = append(out, id)
			}
		}
	})
	return out
}

func (g *gridIndex) size() int {
	return len(g.bounds)
}

func (g *gridIndex) eachCell(box geo.BBox, fn func(cellKey)) {
	minX := int32(math.Floor(box.MinLng / g.cellDeg))
	maxX := int32(math.Floor(box.MaxLng / g.cellDeg))
	minY := int32(math.Floor(box.MinLat / g.cellDeg))
	maxY := int32(math.Floor(box.MaxLat / g.cellDeg))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			fn(cellKey{x: x, y: y})
		}
	}
}
