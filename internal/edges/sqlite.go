package edges

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corridor-hub/corridor-hub/internal/geo"
)

// sqliteStore 查询本地 SQLite 边库。优先走 edges_rtree 虚拟表
//（R-Tree 空间索引），缺失时退化为端点范围扫描。
// 连接以只读模式打开，摄取端的写入不会阻塞这里的读。
type sqliteStore struct {
	db       *gorm.DB
	hasRTree bool
}

const sqliteEdgeColumns = `e.id, e.from_id, e.to_id,
	e.from_lat, e.from_lng, e.to_lat, e.to_lng,
	e.dist_m, e.cost_s,
	e.toll, e.ferry, e.unsealed,
	e.highway, e.name, e.osm_way_id`

// NewSQLiteStore 打开只读 SQLite 边库并探测 R-Tree 索引。
func NewSQLiteStore(path string, logger *logrus.Logger) (Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("边库文件不可用: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_query_only=1", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 边库失败: %w", err)
	}

	store := &sqliteStore{db: db}
	store.hasRTree = store.probeRTree()

	count, err := store.Count(context.Background())
	if err != nil {
		return nil, fmt.Errorf("边库不可查询: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"action":  "edges_open",
		"backend": "sqlite",
		"path":    path,
		"rows":    count,
		"rtree":   store.hasRTree,
	}).Info("SQLite 边库已打开")

	return store, nil
}

func (s *sqliteStore) probeRTree() bool {
	var one int
	err := s.db.Raw("SELECT 1 FROM edges_rtree LIMIT 1").Scan(&one).Error
	return err == nil
}

func (s *sqliteStore) QueryBBox(ctx context.Context, box geo.BBox, limit int) ([]Edge, error) {
	var rows []Edge
	if s.hasRTree {
		sql := fmt.Sprintf(`SELECT %s
			FROM edges e
			JOIN edges_rtree r ON e.id = r.id
			WHERE r.min_lng <= ? AND r.max_lng >= ?
			  AND r.min_lat <= ? AND r.max_lat >= ?`, sqliteEdgeColumns)
		sql, args := applyLimit(sql, []any{box.MaxLng, box.MinLng, box.MaxLat, box.MinLat}, limit)
		err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("R-Tree 查询失败: %w", err)
		}
		return rows, nil
	}

	sql := fmt.Sprintf(`SELECT %s
		FROM edges e
		WHERE (e.from_lng BETWEEN ? AND ? AND e.from_lat BETWEEN ? AND ?)
		   OR (e.to_lng   BETWEEN ? AND ? AND e.to_lat   BETWEEN ? AND ?)`, sqliteEdgeColumns)
	sql, args := applyLimit(sql, []any{
		box.MinLng, box.MaxLng, box.MinLat, box.MaxLat,
		box.MinLng, box.MaxLng, box.MinLat, box.MaxLat,
	}, limit)
	err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("范围扫描失败: %w", err)
	}
	return rows, nil
}

func (s *sqliteStore) GetByID(ctx context.Context, id int64) (*Edge, error) {
	var e Edge
	err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *sqliteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Edge{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// applyLimit 仅在 limit > 0 时追加 LIMIT 子句。limit <= 0 表示完整返回
// bbox 命中集，截断只能由上层按预算显式执行并在结果里打标。
func applyLimit(sql string, args []any, limit int) (string, []any) {
	if limit <= 0 {
		return sql, args
	}
	return sql + " LIMIT ?", append(args, limit)
}
