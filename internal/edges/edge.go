package edges

import "github.com/corridor-hub/corridor-hub/internal/geo"

// Edge 是路网中的一条有向边。节点没有独立表，
// 由 from_id/to_id 及端点坐标隐式定义。
// 该表由外部摄取流程维护，本服务只读。
type Edge struct {
	ID       int64   `gorm:"column:id;primaryKey" json:"id"`
	FromID   int64   `gorm:"column:from_id;index" json:"from_id"`
	ToID     int64   `gorm:"column:to_id;index" json:"to_id"`
	FromLat  float64 `gorm:"column:from_lat" json:"from_lat"`
	FromLng  float64 `gorm:"column:from_lng" json:"from_lng"`
	ToLat    float64 `gorm:"column:to_lat" json:"to_lat"`
	ToLng    float64 `gorm:"column:to_lng" json:"to_lng"`
	DistM    float64 `gorm:"column:dist_m;default:0" json:"dist_m"`
	CostS    float64 `gorm:"column:cost_s;default:0" json:"cost_s"`
	Toll     int     `gorm:"column:toll;default:0" json:"toll"`
	Ferry    int     `gorm:"column:ferry;default:0" json:"ferry"`
	Unsealed int     `gorm:"column:unsealed;default:0" json:"unsealed"`
	Highway  *string `gorm:"column:highway" json:"highway,omitempty"`
	Name     *string `gorm:"column:name" json:"name,omitempty"`
	OSMWayID *int64  `gorm:"column:osm_way_id;index" json:"osm_way_id,omitempty"`
}

// TableName 固定表名，避免 gorm 复数化。
func (Edge) TableName() string {
	return "edges"
}

// From 返回起点坐标。
func (e Edge) From() geo.Point {
	return geo.Point{Lat: e.FromLat, Lng: e.FromLng}
}

// To 返回终点坐标。
func (e Edge) To() geo.Point {
	return geo.Point{Lat: e.ToLat, Lng: e.ToLng}
}

// Midpoint 返回线段中点，用于 buffer 过滤的采样。
func (e Edge) Midpoint() geo.Point {
	return geo.Point{
		Lat: (e.FromLat + e.ToLat) / 2,
		Lng: (e.FromLng + e.ToLng) / 2,
	}
}

// Bounds 返回包住两个端点的最小包围盒。
func (e Edge) Bounds() geo.BBox {
	return geo.BBoxFromPoints([]geo.Point{e.From(), e.To()})
}

// HighwayClass 返回道路等级字符串；缺省时为空串。
func (e Edge) HighwayClass() string {
	if e.Highway == nil {
		return ""
	}
	return *e.Highway
}
