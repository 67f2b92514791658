package geo

import "math"

const earthRadiusM = 6_371_000.0

// HaversineMeters 返回两点间的大圆距离（米）。
func HaversineMeters(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180.0
	latB := b.Lat * math.Pi / 180.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLng := (b.Lng - a.Lng) * math.Pi / 180.0

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLng*sinLng
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PointToSegmentMeters 返回点 p 到线段 ab 的最短距离（米）。
// 采用以线段中纬度为基准的 equirectangular 投影，在路网 buffer
// 量级（几十公里以内）的跨度下与球面距离的偏差可以忽略。
func PointToSegmentMeters(p, a, b Point) float64 {
	midLat := (a.Lat + b.Lat) / 2.0
	cosv := math.Cos(midLat * math.Pi / 180.0)

	// 投影到局部平面（米）
	ax, ay := 0.0, 0.0
	bx := (b.Lng - a.Lng) * metersPerDegreeLat * cosv
	by := (b.Lat - a.Lat) * metersPerDegreeLat
	px := (p.Lng - a.Lng) * metersPerDegreeLat * cosv
	py := (p.Lat - a.Lat) * metersPerDegreeLat

	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return HaversineMeters(p, a)
	}

	t := (px*dx + py*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx := ax + t*dx
	cy := ay + t*dy
	return math.Hypot(px-cx, py-cy)
}

// PointToPolylineMeters 返回点到折线的最短距离（米）。
// 单点折线退化为点距；空折线返回 +Inf。
func PointToPolylineMeters(p Point, line []Point) float64 {
	switch len(line) {
	case 0:
		return math.Inf(1)
	case 1:
		return HaversineMeters(p, line[0])
	}
	best := math.Inf(1)
	for i := 0; i+1 < len(line); i++ {
		if d := PointToSegmentMeters(p, line[i], line[i+1]); d < best {
			best = d
		}
	}
	return best
}
