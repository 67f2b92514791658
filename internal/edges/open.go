package edges

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Open 根据配置自动选择边库后端：
//  1. DatabaseURL 非空 → Postgres+PostGIS
//  2. SQLitePath 非空 → 本地 SQLite
//
// 两者都缺失属于配置错误（正常情况下在 config.Validate 已拦截）。
func Open(databaseURL, sqlitePath string, logger *logrus.Logger) (Store, error) {
	if databaseURL != "" {
		return NewPostgresStore(databaseURL, logger)
	}
	if sqlitePath != "" {
		return NewSQLiteStore(sqlitePath, logger)
	}
	return nil, errors.New("未配置边库：Edges.DatabaseURL 与 Edges.DBPath 至少填一个")
}
