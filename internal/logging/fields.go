package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// CorridorFields 提供走廊请求的公共字段，供 ensure/get 日志复用。
func CorridorFields(corridorKey, routeKey, profile string, bufferM, maxEdges int, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"corridor_key": corridorKey,
		"route_key":    routeKey,
		"profile":      profile,
		"buffer_m":     bufferM,
		"max_edges":    maxEdges,
		"cache_hit":    cacheHit,
	}
}
