package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	switch strings.ToLower(strings.TrimSpace(g.LogLevel)) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return newFieldError("Global.LogLevel", "仅支持 trace/debug/info/warn/error")
	}

	if c.Edges.DBPath == "" && c.Edges.DatabaseURL == "" {
		return newFieldError("Edges", "必须配置 DBPath 或 DatabaseURL 之一")
	}
	if c.Edges.DatabaseURL != "" {
		if err := validateDatabaseURL(c.Edges.DatabaseURL); err != nil {
			return fmt.Errorf("Edges.DatabaseURL: %w", err)
		}
	}

	cc := c.Corridor
	if cc.CacheDBPath == "" {
		return newFieldError("Corridor.CacheDBPath", "不能为空")
	}
	if strings.TrimSpace(cc.AlgoVersion) == "" {
		return newFieldError("Corridor.AlgoVersion", "不能为空")
	}
	if cc.DefaultBufferM <= 0 {
		return newFieldError("Corridor.DefaultBufferM", "必须大于 0")
	}
	if cc.DefaultMaxEdges <= 0 {
		return newFieldError("Corridor.DefaultMaxEdges", "必须大于 0")
	}
	if cc.MaxBufferM <= 0 {
		return newFieldError("Corridor.MaxBufferM", "必须大于 0")
	}
	if cc.MaxEdgesCap <= 0 {
		return newFieldError("Corridor.MaxEdgesCap", "必须大于 0")
	}
	if cc.DefaultBufferM > cc.MaxBufferM {
		return newFieldError("Corridor.DefaultBufferM", "不能超过 MaxBufferM")
	}
	if cc.DefaultMaxEdges > cc.MaxEdgesCap {
		return newFieldError("Corridor.DefaultMaxEdges", "不能超过 MaxEdgesCap")
	}
	if cc.BuildWaitTimeout.DurationValue() <= 0 {
		return newFieldError("Corridor.BuildWaitTimeout", "必须大于 0")
	}

	return nil
}

func validateDatabaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("仅支持 postgres:// 连接串: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("连接串缺少 Host: %s", raw)
	}
	return nil
}
