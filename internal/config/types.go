package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述服务进程级行为：监听端口与日志输出。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
}

// EdgesConfig 指定路网边表的来源。SQLite 路径与 Postgres URL
// 二选一，两者都给时优先使用 URL。
type EdgesConfig struct {
	DBPath      string `mapstructure:"DBPath"`
	DatabaseURL string `mapstructure:"DatabaseURL"`
}

// CorridorConfig 控制走廊抽取与 pack 缓存的行为。
type CorridorConfig struct {
	CacheDBPath       string   `mapstructure:"CacheDBPath"`
	AlgoVersion       string   `mapstructure:"AlgoVersion"`
	DefaultBufferM    int      `mapstructure:"DefaultBufferM"`
	DefaultMaxEdges   int      `mapstructure:"DefaultMaxEdges"`
	MaxBufferM        int      `mapstructure:"MaxBufferM"`
	MaxEdgesCap       int      `mapstructure:"MaxEdgesCap"`
	BuildWaitTimeout  Duration `mapstructure:"BuildWaitTimeout"`
	PurgeStaleOnStart bool     `mapstructure:"PurgeStaleOnStart"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig   `mapstructure:",squash"`
	Edges    EdgesConfig    `mapstructure:"Edges"`
	Corridor CorridorConfig `mapstructure:"Corridor"`
}

// EdgesBackend 输出 `postgres` 或 `sqlite`，供启动日志标注数据来源。
func (e EdgesConfig) Backend() string {
	if e.DatabaseURL != "" {
		return "postgres"
	}
	return "sqlite"
}
