package edges

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corridor-hub/corridor-hub/internal/geo"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// createEdgesDB 用写连接生成一个边库文件，供只读 store 打开。
func createEdgesDB(t *testing.T, list []Edge) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edges.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("打开写连接失败: %v", err)
	}
	if err := db.AutoMigrate(&Edge{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	if len(list) > 0 {
		if err := db.Create(&list).Error; err != nil {
			t.Fatalf("写入边失败: %v", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("取底层连接失败: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("关闭写连接失败: %v", err)
	}
	return path
}

func TestApplyLimit(t *testing.T) {
	sql, args := applyLimit("SELECT 1 FROM edges", []any{153.0}, 0)
	if strings.Contains(sql, "LIMIT") {
		t.Fatalf("limit <= 0 不应追加 LIMIT 子句: %s", sql)
	}
	if len(args) != 1 {
		t.Fatalf("limit <= 0 不应追加参数: %v", args)
	}

	sql, args = applyLimit("SELECT 1 FROM edges", []any{153.0}, 5)
	if !strings.HasSuffix(sql, "LIMIT ?") {
		t.Fatalf("limit > 0 应追加 LIMIT 子句: %s", sql)
	}
	if len(args) != 2 || args[1] != 5 {
		t.Fatalf("limit 参数未追加: %v", args)
	}
}

func TestSQLiteStoreQueryBBoxHonorsLimitContract(t *testing.T) {
	// 8 条边全部落在同一个 bbox 内。limit 0 必须完整返回，
	// 否则上层会在未打标的情况下丢候选。
	list := make([]Edge, 0, 8)
	for i := int64(1); i <= 8; i++ {
		lng := 153.000 + float64(i)*0.001
		list = append(list, Edge{
			ID: i, FromID: i * 10, ToID: i*10 + 1,
			FromLat: -27.500, FromLng: lng,
			ToLat: -27.500, ToLng: lng + 0.0004,
			DistM: 40, CostS: 4,
		})
	}
	path := createEdgesDB(t, list)

	store, err := NewSQLiteStore(path, discardLogger())
	if err != nil {
		t.Fatalf("打开只读边库失败: %v", err)
	}
	defer store.Close()

	box := geo.BBox{MinLng: 152.9, MinLat: -27.6, MaxLng: 153.1, MaxLat: -27.4}

	rows, err := store.QueryBBox(context.Background(), box, 0)
	if err != nil {
		t.Fatalf("QueryBBox 失败: %v", err)
	}
	if len(rows) != len(list) {
		t.Fatalf("limit 0 应完整返回 %d 条，实际 %d 条", len(list), len(rows))
	}

	rows, err = store.QueryBBox(context.Background(), box, 3)
	if err != nil {
		t.Fatalf("QueryBBox 失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("limit 3 应截断为 3 条，实际 %d 条", len(rows))
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count 失败: %v", err)
	}
	if count != int64(len(list)) {
		t.Fatalf("Count = %d, want %d", count, len(list))
	}
}

func TestSQLiteStoreMissingFile(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "absent.db"), discardLogger())
	if err == nil {
		t.Fatal("文件不存在时应返回错误")
	}
}
