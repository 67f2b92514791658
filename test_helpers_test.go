package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfigFile 写入一份临时 TOML 配置并返回路径。
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}

// validConfigFile 生成指向临时 SQLite 文件的最小可用配置。
func validConfigFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return writeConfigFile(t, fmt.Sprintf(`
LogLevel = "info"

[Edges]
DBPath = "%s"

[Corridor]
CacheDBPath = "%s"
`, filepath.Join(dir, "edges.db"), filepath.Join(dir, "corridor_cache.db")))
}
