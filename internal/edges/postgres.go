package edges

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corridor-hub/corridor-hub/internal/geo"
)

// postgresStore 查询 Postgres+PostGIS 边库，bbox 命中走 geom 列的
// GIST 索引。生产环境使用；连接池由 pgx 驱动管理。
type postgresStore struct {
	db *gorm.DB
}

const postgresEdgeColumns = `id, from_id, to_id,
	from_lat, from_lng, to_lat, to_lng,
	dist_m, cost_s,
	toll, ferry, unsealed,
	highway, name, osm_way_id`

// NewPostgresStore 连接 Postgres 边库并验证 PostGIS 可用。
func NewPostgresStore(databaseURL string, logger *logrus.Logger) (Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("连接 Postgres 边库失败: %w", err)
	}

	store := &postgresStore{db: db}

	var postgisVersion string
	if err := db.Raw("SELECT PostGIS_Version()").Scan(&postgisVersion).Error; err != nil {
		return nil, fmt.Errorf("PostGIS 不可用: %w", err)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		return nil, fmt.Errorf("边库不可查询: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"action":  "edges_open",
		"backend": "postgres",
		"postgis": postgisVersion,
		"rows":    count,
	}).Info("Postgres 边库已连接")

	return store, nil
}

func (s *postgresStore) QueryBBox(ctx context.Context, box geo.BBox, limit int) ([]Edge, error) {
	// ST_MakeEnvelope(xmin, ymin, xmax, ymax, srid)
	sql := fmt.Sprintf(`SELECT %s
		FROM edges
		WHERE geom && ST_MakeEnvelope(?, ?, ?, ?, 4326)`, postgresEdgeColumns)
	sql, args := applyLimit(sql, []any{box.MinLng, box.MinLat, box.MaxLng, box.MaxLat}, limit)

	var rows []Edge
	err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("GIST 查询失败: %w", err)
	}
	return rows, nil
}

func (s *postgresStore) GetByID(ctx context.Context, id int64) (*Edge, error) {
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

func (s *postgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Edge{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *postgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
