package routes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/corridor-hub/corridor-hub/internal/corridor"
	"github.com/corridor-hub/corridor-hub/internal/logging"
	"github.com/corridor-hub/corridor-hub/internal/packcache"
	"github.com/corridor-hub/corridor-hub/internal/server"
	"github.com/corridor-hub/corridor-hub/internal/service"
)

// ensureRequest 是 POST /v1/corridor/ensure 的请求体。
// buffer_m/max_edges 省略时取配置默认值。
type ensureRequest struct {
	RouteKey string `json:"route_key"`
	Geometry string `json:"geometry"`
	Profile  string `json:"profile"`
	BufferM  *int   `json:"buffer_m"`
	MaxEdges *int   `json:"max_edges"`
}

type ensureResponse struct {
	Meta service.Meta   `json:"meta"`
	Pack *corridor.Pack `json:"pack"`
}

// RegisterCorridorRoutes 挂载走廊查询接口。
func RegisterCorridorRoutes(app *fiber.App, svc *service.Corridor, limits server.Limits, logger *logrus.Logger) {
	if app == nil || svc == nil {
		return
	}

	app.Post("/v1/corridor/ensure", func(c fiber.Ctx) error {
		var body ensureRequest
		if err := c.Bind().Body(&body); err != nil {
			return renderValidation(c, "body", "请求体不是合法 JSON")
		}

		if strings.TrimSpace(body.Geometry) == "" {
			return renderValidation(c, "geometry", "不能为空")
		}
		if strings.TrimSpace(body.Profile) == "" {
			return renderValidation(c, "profile", "不能为空")
		}

		bufferM := limits.DefaultBufferM
		if body.BufferM != nil {
			bufferM = *body.BufferM
		}
		maxEdges := limits.DefaultMaxEdges
		if body.MaxEdges != nil {
			maxEdges = *body.MaxEdges
		}
		if bufferM > limits.MaxBufferM {
			return renderValidation(c, "buffer_m", fmt.Sprintf("超出上限 %d", limits.MaxBufferM))
		}
		if maxEdges > limits.MaxEdgesCap {
			return renderValidation(c, "max_edges", fmt.Sprintf("超出上限 %d", limits.MaxEdgesCap))
		}

		result, err := svc.Ensure(c.Context(), service.EnsureRequest{
			RouteKey: body.RouteKey,
			Geometry: body.Geometry,
			Profile:  body.Profile,
			BufferM:  bufferM,
			MaxEdges: maxEdges,
		})
		if err != nil {
			return renderCorridorError(c, logger, err)
		}

		fields := logging.CorridorFields(result.Meta.CorridorKey, body.RouteKey, body.Profile, bufferM, maxEdges, result.Meta.CacheHit)
		fields["action"] = "corridor_ensure"
		fields["request_id"] = server.RequestID(c)
		fields["bytes"] = result.Meta.Bytes
		logger.WithFields(fields).Info("走廊请求完成")

		return c.JSON(ensureResponse{Meta: result.Meta, Pack: result.Pack})
	})

	app.Get("/v1/corridor/:key", func(c fiber.Ctx) error {
		key := strings.TrimSpace(c.Params("key"))
		if key == "" {
			return renderValidation(c, "key", "不能为空")
		}
		pack, err := svc.Get(c.Context(), key)
		if err != nil {
			if errors.Is(err, packcache.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "corridor_not_found",
				})
			}
			return renderCorridorError(c, logger, err)
		}
		return c.JSON(pack)
	})
}

func renderValidation(c fiber.Ctx, field, reason string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "validation_failed",
		"field":  field,
		"reason": reason,
	})
}

// renderCorridorError 按错误类别映射状态码：参数问题 400，底层存储故障 503。
func renderCorridorError(c fiber.Ctx, logger *logrus.Logger, err error) error {
	var verr *corridor.ValidationError
	if errors.As(err, &verr) {
		return renderValidation(c, verr.Field, verr.Reason)
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"action":     "corridor_error",
		"request_id": server.RequestID(c),
	}).Error("走廊请求失败")
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "corridor_unavailable",
	})
}
