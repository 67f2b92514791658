package config

import (
	"path/filepath"
	"testing"
	"time"
)

const minimalConfig = `
LogLevel = "info"

[Edges]
DBPath = "./edges.db"
`

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 5000 {
		t.Fatalf("ListenPort 应填充默认值 5000, got %d", cfg.Global.ListenPort)
	}
	if cfg.Corridor.AlgoVersion != "v1" {
		t.Fatalf("AlgoVersion 默认应为 v1, got %q", cfg.Corridor.AlgoVersion)
	}
	if cfg.Corridor.DefaultBufferM != 15000 {
		t.Fatalf("DefaultBufferM 默认应为 15000, got %d", cfg.Corridor.DefaultBufferM)
	}
	if cfg.Corridor.DefaultMaxEdges != 350000 {
		t.Fatalf("DefaultMaxEdges 默认应为 350000, got %d", cfg.Corridor.DefaultMaxEdges)
	}
	if cfg.Corridor.BuildWaitTimeout.DurationValue() != 30*time.Second {
		t.Fatalf("BuildWaitTimeout 默认应为 30s, got %v", cfg.Corridor.BuildWaitTimeout.DurationValue())
	}
	if !filepath.IsAbs(cfg.Edges.DBPath) || !filepath.IsAbs(cfg.Corridor.CacheDBPath) {
		t.Fatalf("路径应被解析为绝对路径: %q %q", cfg.Edges.DBPath, cfg.Corridor.CacheDBPath)
	}
	if cfg.Edges.Backend() != "sqlite" {
		t.Fatalf("仅配置 DBPath 时 Backend 应为 sqlite")
	}
}

func TestLoadRequiresEdgesBackend(t *testing.T) {
	path := writeTempConfig(t, `LogLevel = "info"`)
	if _, err := Load(path); err == nil {
		t.Fatalf("未配置任何边表来源时应报错")
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Global.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("未知日志级别应当报错")
	}
}

func TestValidateDatabaseURL(t *testing.T) {
	testCases := []struct {
		name      string
		url       string
		shouldErr bool
	}{
		{"postgres ok", "postgres://user:pw@db.local:5432/roads", false},
		{"postgresql ok", "postgresql://db.local/roads", false},
		{"mysql rejected", "mysql://db.local/roads", true},
		{"no host", "postgres:///roads", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Edges = EdgesConfig{DatabaseURL: tc.url}
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for url %q", tc.url)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for url %q: %v", tc.url, err)
			}
		})
	}
}

func TestValidateDefaultsWithinCaps(t *testing.T) {
	cfg := validConfig()
	cfg.Corridor.DefaultBufferM = cfg.Corridor.MaxBufferM + 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("DefaultBufferM 超过 MaxBufferM 应当报错")
	}

	cfg = validConfig()
	cfg.Corridor.DefaultMaxEdges = cfg.Corridor.MaxEdgesCap + 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("DefaultMaxEdges 超过 MaxEdgesCap 应当报错")
	}
}

func TestValidateRejectsEmptyAlgoVersion(t *testing.T) {
	cfg := validConfig()
	cfg.Corridor.AlgoVersion = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("空 AlgoVersion 应当报错")
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort: 5000,
			LogLevel:   "info",
		},
		Edges: EdgesConfig{
			DBPath: "./edges.db",
		},
		Corridor: CorridorConfig{
			CacheDBPath:      "./corridor_cache.db",
			AlgoVersion:      "v1",
			DefaultBufferM:   15000,
			DefaultMaxEdges:  350000,
			MaxBufferM:       50000,
			MaxEdgesCap:      1000000,
			BuildWaitTimeout: Duration(30 * time.Second),
		},
	}
}
