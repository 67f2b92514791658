package packcache

import (
	"context"
	"errors"

	"github.com/corridor-hub/corridor-hub/internal/corridor"
)

// Store 是持久化的 key→pack 缓存。pack 是不可变值对象，
// Put 幂等：同键重放覆盖等价内容是安全的。
type Store interface {
	// Get 按走廊键读取缓存；未命中返回 ErrNotFound。
	Get(ctx context.Context, corridorKey string) (*Record, error)

	// Put 序列化并写入 pack（upsert），返回写入的载荷字节数。
	Put(ctx context.Context, pack *corridor.Pack, bufferM, maxEdges int) (int, error)

	// PurgeOtherVersions 批量清除 algo_version 不等于 current 的行，
	// 返回删除数量。旧版本行即使不清也不会被命中（版本参与键派生），
	// 清除只是回收空间。
	PurgeOtherVersions(ctx context.Context, current string) (int64, error)

	// Stats 返回行数与载荷总字节数，供诊断端点使用。
	Stats(ctx context.Context) (Stats, error)

	Close() error
}

// Record 是一次缓存命中：反序列化后的 pack 与其持久化大小。
type Record struct {
	Pack  *corridor.Pack
	Bytes int
}

// Stats 汇总缓存占用。
type Stats struct {
	Rows  int64 `json:"rows"`
	Bytes int64 `json:"bytes"`
}

// ErrNotFound 表示走廊键没有对应的缓存行。
var ErrNotFound = errors.New("corridor pack not found")
