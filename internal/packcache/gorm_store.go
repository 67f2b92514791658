package packcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corridor-hub/corridor-hub/internal/corridor"
)

// PackRow 是 corridor_packs 表的持久化形态。pack 本体是序列化的
// JSON blob，algo_version 单独成列以支持批量失效查询。
type PackRow struct {
	CorridorKey string `gorm:"column:corridor_key;primaryKey"`
	RouteKey    string `gorm:"column:route_key;not null"`
	Profile     string `gorm:"column:profile;not null"`
	BufferM     int    `gorm:"column:buffer_m;not null"`
	MaxEdges    int    `gorm:"column:max_edges;not null"`
	AlgoVersion string `gorm:"column:algo_version;not null;index"`
	CreatedAt   string `gorm:"column:created_at;not null"`
	PackJSON    []byte `gorm:"column:pack_json;not null"`
}

// TableName 固定表名。
func (PackRow) TableName() string {
	return "corridor_packs"
}

// sqliteStore 用本地 SQLite 承载缓存表。WAL 模式允许写入时并发读。
type sqliteStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewSQLiteStore 打开（必要时创建）缓存库并确保 schema。
// SQLite 不会自动创建父目录，这里先补上。
func NewSQLiteStore(path string, logger *logrus.Logger) (Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("创建缓存目录失败: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("打开缓存库失败: %w", err)
	}

	if err := db.AutoMigrate(&PackRow{}); err != nil {
		return nil, fmt.Errorf("初始化缓存表失败: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"action": "packcache_open",
		"path":   path,
	}).Info("走廊缓存库已打开")

	return &sqliteStore{db: db, logger: logger}, nil
}

func (s *sqliteStore) Get(ctx context.Context, corridorKey string) (*Record, error) {
	var row PackRow
	err := s.db.WithContext(ctx).First(&row, "corridor_key = ?", corridorKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var pack corridor.Pack
	if err := json.Unmarshal(row.PackJSON, &pack); err != nil {
		// 结构漂移只应该发生在 algo_version 变更之后；
		// 同版本行解不开按损坏处理，当未命中让上游重建覆盖
		s.logger.WithFields(logrus.Fields{
			"action":       "packcache_corrupt",
			"corridor_key": corridorKey,
		}).Warn("缓存行反序列化失败，按未命中处理")
		return nil, ErrNotFound
	}

	return &Record{Pack: &pack, Bytes: len(row.PackJSON)}, nil
}

func (s *sqliteStore) Put(ctx context.Context, pack *corridor.Pack, bufferM, maxEdges int) (int, error) {
	blob, err := json.Marshal(pack)
	if err != nil {
		return 0, fmt.Errorf("序列化 pack 失败: %w", err)
	}

	row := PackRow{
		CorridorKey: pack.CorridorKey,
		RouteKey:    pack.RouteKey,
		Profile:     pack.Profile,
		BufferM:     bufferM,
		MaxEdges:    maxEdges,
		AlgoVersion: pack.AlgoVersion,
		CreatedAt:   pack.CreatedAt,
		PackJSON:    blob,
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "corridor_key"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("写入缓存行失败: %w", err)
	}
	return len(blob), nil
}

func (s *sqliteStore) PurgeOtherVersions(ctx context.Context, current string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("algo_version <> ?", current).
		Delete(&PackRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("清除旧版本缓存失败: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.WithFields(logrus.Fields{
			"action":  "packcache_purge",
			"current": current,
			"removed": result.RowsAffected,
		}).Info("旧版本缓存已清除")
	}
	return result.RowsAffected, nil
}

func (s *sqliteStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.WithContext(ctx).
		Model(&PackRow{}).
		Select("COUNT(*) AS rows, COALESCE(SUM(LENGTH(pack_json)), 0) AS bytes").
		Row().
		Scan(&stats.Rows, &stats.Bytes)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
