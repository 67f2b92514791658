package geo

import "math"

// metersPerDegreeLat 是近似值，沿用路网抽取对精度的要求（bbox 只做粗过滤）。
const metersPerDegreeLat = 111_320.0

// BBox 表示一个经纬度包围盒，字段顺序与持久化的 pack JSON 对齐。
type BBox struct {
	MinLng float64 `json:"minLng"`
	MinLat float64 `json:"minLat"`
	MaxLng float64 `json:"maxLng"`
	MaxLat float64 `json:"maxLat"`
}

// BBoxFromPoints 返回覆盖所有坐标的最小包围盒；空输入返回零值盒。
func BBoxFromPoints(points []Point) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	box := BBox{
		MinLng: points[0].Lng,
		MinLat: points[0].Lat,
		MaxLng: points[0].Lng,
		MaxLat: points[0].Lat,
	}
	for _, p := range points[1:] {
		box.MinLng = math.Min(box.MinLng, p.Lng)
		box.MinLat = math.Min(box.MinLat, p.Lat)
		box.MaxLng = math.Max(box.MaxLng, p.Lng)
		box.MaxLat = math.Max(box.MaxLat, p.Lat)
	}
	return box
}

// ExpandMeters 按米数向四周扩张包围盒。经度按盒中纬度的 cos 缩放，
// cos 下限 0.2 防止高纬处 dlng 发散。
func (b BBox) ExpandMeters(meters float64) BBox {
	dlat := meters / metersPerDegreeLat

	midLat := (b.MinLat + b.MaxLat) / 2.0
	cosv := math.Max(0.2, math.Cos(midLat*math.Pi/180.0))
	dlng := meters / (metersPerDegreeLat * cosv)

	return BBox{
		MinLng: b.MinLng - dlng,
		MinLat: b.MinLat - dlat,
		MaxLng: b.MaxLng + dlng,
		MaxLat: b.MaxLat + dlat,
	}
}

// Contains 判断坐标是否落在（闭区间）包围盒内。
func (b BBox) Contains(p Point) bool {
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Intersects 判断两个包围盒是否相交。
func (b BBox) Intersects(other BBox) bool {
	return b.MinLng <= other.MaxLng && b.MaxLng >= other.MinLng &&
		b.MinLat <= other.MaxLat && b.MaxLat >= other.MinLat
}
