package edges

import (
	"context"
	"sort"
	"sync"

	"github.com/corridor-hub/corridor-hub/internal/geo"
)

// MemoryStore 把边表放在内存里，用网格索引回答 bbox 查询。
// 测试与本地开发用；读路径与持久化后端语义一致。
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[int64]Edge
	index *gridIndex
}

// NewMemoryStore 构建空的内存后端。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[int64]Edge),
		index: newGridIndex(),
	}
}

// Seed 批量载入边，重复 id 覆盖旧值并同步更新索引。
func (s *MemoryStore) Seed(list []Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range list {
		s.byID[e.ID] = e
		s.index.insert(e.ID, e.Bounds())
	}
}

func (s *MemoryStore) QueryBBox(ctx context.Context, box geo.BBox, limit int) ([]Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.index.query(box)
	// 固定顺序让 LIMIT 截断可复现
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Edge, 0, len(ids))
	for _, id := range ids {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
