// Package keying 负责派生缓存键。键由路线几何指纹、profile、
// buffer、边预算与算法版本共同决定：输入相同必然同键（哪怕
// route_key 标签不同），逻辑上不同的请求不会碰撞，algo_version
// 变更则自动把旧缓存整体隔离。
package keying

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/corridor-hub/corridor-hub/internal/geo"
)

// ErrBadGeometry 表示 polyline6 无法解码，无法派生指纹。
var ErrBadGeometry = errors.New("geometry is not valid polyline6")

// GeometryFingerprint 对坐标序列做顺序敏感的内容指纹。
// 坐标先量化为 1e6 整数再哈希，编码往返不会改变指纹。
func GeometryFingerprint(geometry string) (string, error) {
	points, ok := geo.DecodePolyline6(geometry)
	if !ok {
		return "", ErrBadGeometry
	}

	h := sha256.New()
	var buf [8]byte
	for _, v := range geo.QuantizePoints(points) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	return encodeDigest(h.Sum(nil)), nil
}

// CorridorKey 派生走廊缓存键。载荷用 map 序列化，
// encoding/json 对 map 键排序，保证字节级 canonical。
func CorridorKey(geometry, profile string, bufferM, maxEdges int, algoVersion string) (string, error) {
	fp, err := GeometryFingerprint(geometry)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"algo_version": algoVersion,
		"buffer_m":     bufferM,
		"geom_fp":      fp,
		"max_edges":    maxEdges,
		"profile":      profile,
	}
	blob, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("序列化键载荷失败: %w", err)
	}

	sum := sha256.Sum256(blob)
	return encodeDigest(sum[:]), nil
}

// encodeDigest 输出 URL 安全、无 padding 的 base64，可直接作路径段。
func encodeDigest(sum []byte) string {
	return base64.RawURLEncoding.EncodeToString(sum)
}
