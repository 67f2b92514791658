package corridor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/corridor-hub/corridor-hub/internal/edges"
	"github.com/corridor-hub/corridor-hub/internal/geo"
)

// Route 是路由协作方产出的输入：不透明的 route_key、
// polyline6 几何与出行 profile。
type Route struct {
	RouteKey string
	Geometry string
	Profile  string
}

// Builder 从边库抽取走廊 pack。
//
// 查询区域取路线包围盒向外扩 buffer 米的矩形，而不是各段 buffer
// 多边形的精确并集；越界的假阳性由逐边真实距离过滤兜底剔除。
// 这是有意的近似，语义上等价于"并集 + 距离过滤"。
type Builder struct {
	store  edges.Store
	logger *logrus.Logger
}

// NewBuilder 构建走廊抽取器，store 为只读边库。
func NewBuilder(store edges.Store, logger *logrus.Logger) *Builder {
	return &Builder{store: store, logger: logger}
}

// Build 执行一次走廊抽取。抽取是纯 CPU 计算加一次边库查询，
// 不持有任何共享锁；并发安全由只读 store 保证。
func (b *Builder) Build(ctx context.Context, route Route, bufferM, maxEdges int) (*Pack, error) {
	if bufferM <= 0 {
		return nil, newValidationError("buffer_m", "必须为正数")
	}
	if maxEdges <= 0 {
		return nil, newValidationError("max_edges", "必须为正数")
	}

	points, ok := geo.DecodePolyline6(route.Geometry)
	if !ok {
		return nil, newValidationError("geometry", "polyline6 解码失败")
	}
	if len(points) < 2 {
		return nil, newValidationError("geometry", "至少需要 2 个坐标点")
	}

	started := time.Now()
	box := geo.BBoxFromPoints(points).ExpandMeters(float64(bufferM))

	// bbox 粗过滤得到候选超集；store 不可用对本次请求是致命错误
	rows, err := b.store.QueryBBox(ctx, box, 0)
	if err != nil {
		return nil, fmt.Errorf("边库查询失败: %w", err)
	}

	// 真实距离过滤，剔除 bbox 带进来的假阳性
	buffer := float64(bufferM)
	candidates := make([]candidate, 0, len(rows))
	for _, e := range rows {
		d := edgeToRouteMeters(e, points)
		if d <= buffer {
			candidates = append(candidates, candidate{edge: e, distM: d})
		}
	}

	truncated := false
	if len(candidates) > maxEdges {
		rankCandidates(candidates)
		candidates = candidates[:maxEdges]
		truncated = true
	}

	pack := assemblePack(route, box, candidates, truncated)

	fields := logrus.Fields{
		"action":    "corridor_build",
		"route_key": route.RouteKey,
		"profile":   route.Profile,
		"buffer_m":  bufferM,
		"raw":       len(rows),
		"kept":      len(pack.Edges),
		"truncated": truncated,
		"elapsed":   time.Since(started).String(),
	}
	if pack.Empty() {
		// 覆盖范围之外：合法的空 pack，不是错误
		b.logger.WithFields(fields).Info("走廊无覆盖")
	} else {
		b.logger.WithFields(fields).Debug("走廊抽取完成")
	}

	return pack, nil
}

// edgeToRouteMeters 取边的两端点与中点到路线折线的最小距离。
// 对路网尺度的短边，这与线段间精确距离的偏差远小于任何实际 buffer。
func edgeToRouteMeters(e edges.Edge, line []geo.Point) float64 {
	d := geo.PointToPolylineMeters(e.From(), line)
	if d2 := geo.PointToPolylineMeters(e.To(), line); d2 < d {
		d = d2
	}
	if d3 := geo.PointToPolylineMeters(e.Midpoint(), line); d3 < d {
		d = d3
	}
	return d
}

// assemblePack 汇集节点坐标与精简边。节点集合是保留边端点的去重结果。
func assemblePack(route Route, box geo.BBox, kept []candidate, truncated bool) *Pack {
	nodeCoords := make(map[int64]geo.Point, len(kept))
	packEdges := make([]PackEdge, 0, len(kept))

	for _, c := range kept {
		e := c.edge
		if _, ok := nodeCoords[e.FromID]; !ok {
			nodeCoords[e.FromID] = e.From()
		}
		if _, ok := nodeCoords[e.ToID]; !ok {
			nodeCoords[e.ToID] = e.To()
		}

		flags := 0
		if e.Toll == 1 {
			flags |= FlagToll
		}
		if e.Ferry == 1 {
			flags |= FlagFerry
		}
		if e.Unsealed == 1 {
			flags |= FlagUnsealed
		}

		packEdges = append(packEdges, PackEdge{
			A:         e.FromID,
			B:         e.ToID,
			DistanceM: int(math.Round(e.DistM)),
			DurationS: int(math.Round(e.CostS)),
			Flags:     flags,
		})
	}

	nodes := make([]Node, 0, len(nodeCoords))
	for id, p := range nodeCoords {
		nodes = append(nodes, Node{ID: id, Lat: p.Lat, Lng: p.Lng})
	}
	// map 遍历无序，输出前排好让 pack 字节级可复现
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return &Pack{
		RouteKey:       route.RouteKey,
		Profile:        route.Profile,
		BBox:           box,
		Nodes:          nodes,
		Edges:          packEdges,
		EdgesTruncated: truncated,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
}
