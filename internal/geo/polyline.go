package geo

import "strings"

// Point 表示一个 WGS84 坐标（纬度在前，和路线几何的编码顺序一致）。
type Point struct {
	Lat float64
	Lng float64
}

const polylineScale = 1_000_000

// EncodePolyline6 将坐标序列编码为 1e6 精度的 Google polyline 字符串。
func EncodePolyline6(points []Point) string {
	var (
		b       strings.Builder
		lastLat int64
		lastLng int64
	)
	for _, p := range points {
		ilat := quantize(p.Lat)
		ilng := quantize(p.Lng)
		encodeValue(&b, ilat-lastLat)
		encodeValue(&b, ilng-lastLng)
		lastLat = ilat
		lastLng = ilng
	}
	return b.String()
}

// DecodePolyline6 解码 1e6 精度 polyline。输入非法（截断的 chunk）时返回 false。
func DecodePolyline6(encoded string) ([]Point, bool) {
	var (
		points []Point
		lat    int64
		lng    int64
		idx    int
	)
	for idx < len(encoded) {
		dlat, next, ok := decodeValue(encoded, idx)
		if !ok {
			return nil, false
		}
		dlng, after, ok := decodeValue(encoded, next)
		if !ok {
			return nil, false
		}
		lat += dlat
		lng += dlng
		points = append(points, Point{
			Lat: float64(lat) / polylineScale,
			Lng: float64(lng) / polylineScale,
		})
		idx = after
	}
	return points, true
}

// QuantizePoints 把坐标序列量化为 1e6 整数对，作为 key 指纹的输入，
// 保证同一几何在 encode/decode 往返后仍产生相同指纹。
func QuantizePoints(points []Point) []int64 {
	out := make([]int64, 0, len(points)*2)
	for _, p := range points {
		out = append(out, quantize(p.Lat), quantize(p.Lng))
	}
	return out
}

func quantize(v float64) int64 {
	if v >= 0 {
		return int64(v*polylineScale + 0.5)
	}
	return int64(v*polylineScale - 0.5)
}

func encodeValue(b *strings.Builder, v int64) {
	if v < 0 {
		v = ^(v << 1)
	} else {
		v <<= 1
	}
	for v >= 0x20 {
		b.WriteByte(byte((0x20 | (v & 0x1F)) + 63))
		v >>= 5
	}
	b.WriteByte(byte(v + 63))
}

func decodeValue(s string, idx int) (int64, int, bool) {
	var (
		result int64
		shift  uint
	)
	for {
		if idx >= len(s) {
			return 0, idx, false
		}
		chunk := int64(s[idx]) - 63
		idx++
		result |= (chunk & 0x1F) << shift
		shift += 5
		if chunk < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), idx, true
	}
	return result >> 1, idx, true
}
