package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/corridor-hub/corridor-hub/internal/edges"
	"github.com/corridor-hub/corridor-hub/internal/server"
	"github.com/corridor-hub/corridor-hub/internal/service"
	"github.com/corridor-hub/corridor-hub/internal/version"
)

// RegisterDiagnosticsRoutes 暴露 /-/ 下的诊断接口，供 SRE 查询服务状态
// 与手动清理过期版本的缓存行。
func RegisterDiagnosticsRoutes(app *fiber.App, svc *service.Corridor, store edges.Store, logger *logrus.Logger) {
	if app == nil || svc == nil || store == nil {
		return
	}

	app.Get("/-/health", func(c fiber.Ctx) error {
		edgeCount, err := store.Count(c.Context())
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"action": "health_check",
			}).Error("边表不可用")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  "edges_unavailable",
			})
		}

		stats, err := svc.CacheStats(c.Context())
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"action": "health_check",
			}).Error("缓存不可用")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  "cache_unavailable",
			})
		}

		return c.JSON(fiber.Map{
			"status":       "ok",
			"version":      version.Full(),
			"algo_version": svc.AlgoVersion(),
			"edge_count":   edgeCount,
			"cache":        stats,
		})
	})

	app.Post("/-/cache/purge", func(c fiber.Ctx) error {
		removed, err := svc.PurgeStaleVersions(c.Context())
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"action":     "cache_purge",
				"request_id": server.RequestID(c),
			}).Error("清理缓存失败")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "purge_failed",
			})
		}

		logger.WithFields(logrus.Fields{
			"action":       "cache_purge",
			"request_id":   server.RequestID(c),
			"removed":      removed,
			"algo_version": svc.AlgoVersion(),
		}).Info("过期版本缓存已清理")

		return c.JSON(fiber.Map{
			"removed":      removed,
			"algo_version": svc.AlgoVersion(),
		})
	})
}
