package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyCorridorDefaults(&cfg.Corridor)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Edges.DBPath != "" {
		absPath, err := filepath.Abs(cfg.Edges.DBPath)
		if err != nil {
			return nil, fmt.Errorf("无法解析边表路径: %w", err)
		}
		cfg.Edges.DBPath = absPath
	}
	absCache, err := filepath.Abs(cfg.Corridor.CacheDBPath)
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存路径: %w", err)
	}
	cfg.Corridor.CacheDBPath = absCache

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("Corridor.CacheDBPath", "./corridor_cache.db")
	v.SetDefault("Corridor.AlgoVersion", "v1")
	v.SetDefault("Corridor.DefaultBufferM", 15000)
	v.SetDefault("Corridor.DefaultMaxEdges", 350000)
	v.SetDefault("Corridor.MaxBufferM", 50000)
	v.SetDefault("Corridor.MaxEdgesCap", 1000000)
	v.SetDefault("Corridor.BuildWaitTimeout", "30s")
	v.SetDefault("Corridor.PurgeStaleOnStart", false)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if strings.TrimSpace(g.LogLevel) == "" {
		g.LogLevel = "info"
	}
}

func applyCorridorDefaults(c *CorridorConfig) {
	if strings.TrimSpace(c.AlgoVersion) == "" {
		c.AlgoVersion = "v1"
	}
	if c.CacheDBPath == "" {
		c.CacheDBPath = "./corridor_cache.db"
	}
	if c.DefaultBufferM == 0 {
		c.DefaultBufferM = 15000
	}
	if c.DefaultMaxEdges == 0 {
		c.DefaultMaxEdges = 350000
	}
	if c.MaxBufferM == 0 {
		c.MaxBufferM = 50000
	}
	if c.MaxEdgesCap == 0 {
		c.MaxEdgesCap = 1000000
	}
	if c.BuildWaitTimeout.DurationValue() == 0 {
		c.BuildWaitTimeout = Duration(30 * time.Second)
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
