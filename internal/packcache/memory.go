package packcache

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/corridor-hub/corridor-hub/internal/corridor"
)

// MemoryStore 把缓存行放在内存 map 里，语义与 SQLite 后端一致
//（包括序列化往返），测试用。
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]PackRow

	// FailPuts 为 true 时所有写入报错，用于验证"已算出但没缓存"的降级路径。
	FailPuts bool
}

// NewMemoryStore 构建空的内存缓存。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]PackRow)}
}

func (s *MemoryStore) Get(ctx context.Context, corridorKey string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	row, ok := s.rows[corridorKey]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var pack corridor.Pack
	if err := json.Unmarshal(row.PackJSON, &pack); err != nil {
		return nil, ErrNotFound
	}
	return &Record{Pack: &pack, Bytes: len(row.PackJSON)}, nil
}

func (s *MemoryStore) Put(ctx context.Context, pack *corridor.Pack, bufferM, maxEdges int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.FailPuts {
		return 0, errSimulatedWrite
	}

	blob, err := json.Marshal(pack)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.rows[pack.CorridorKey] = PackRow{
		CorridorKey: pack.CorridorKey,
		RouteKey:    pack.RouteKey,
		Profile:     pack.Profile,
		BufferM:     bufferM,
		MaxEdges:    maxEdges,
		AlgoVersion: pack.AlgoVersion,
		CreatedAt:   pack.CreatedAt,
		PackJSON:    blob,
	}
	s.mu.Unlock()
	return len(blob), nil
}

func (s *MemoryStore) PurgeOtherVersions(ctx context.Context, current string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, row := range s.rows {
		if row.AlgoVersion != current {
			delete(s.rows, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{Rows: int64(len(s.rows))}
	for _, row := range s.rows {
		stats.Bytes += int64(len(row.PackJSON))
	}
	return stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// errSimulatedWrite 只在测试注入写失败时出现。
var errSimulatedWrite = &simulatedWriteError{}

type simulatedWriteError struct{}

func (*simulatedWriteError) Error() string {
	return "simulated cache write failure"
}
