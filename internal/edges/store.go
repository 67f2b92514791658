package edges

import (
	"context"
	"errors"

	"github.com/corridor-hub/corridor-hub/internal/geo"
)

// Store is the read-only query surface over the road-network edge table.
// Implementations must be safe for concurrent readers; ingestion happens
// elsewhere and must never be observable as a torn read here.
type Store interface {
	// QueryBBox 返回包围盒命中的候选边（按空间索引的粗过滤，结果是超集）。
	// limit > 0 时截断返回数量，limit <= 0 时完整返回命中集。
	// 结果内不允许出现重复 id。
	QueryBBox(ctx context.Context, box geo.BBox, limit int) ([]Edge, error)

	// GetByID 按主键取边；不存在时返回 ErrNotFound。
	GetByID(ctx context.Context, id int64) (*Edge, error)

	// Count 返回边总数，用于诊断端点与启动日志。
	Count(ctx context.Context) (int64, error)

	Close() error
}

// ErrNotFound 表示请求的边不存在。
var ErrNotFound = errors.New("edge not found")
