package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/corridor-hub/corridor-hub/internal/edges"
	"github.com/corridor-hub/corridor-hub/internal/service"
)

// Limits 是请求参数的默认值与上限，来自配置，由各路由注册函数消费。
type Limits struct {
	DefaultBufferM  int
	DefaultMaxEdges int
	MaxBufferM      int
	MaxEdgesCap     int
}

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	Service    *service.Corridor
	Edges      edges.Store
	ListenPort int
}

const contextKeyRequestID = "_corridorhub_request_id"

// NewApp builds a Fiber application with request-id middleware and
// structured error handling. Route handlers live in the routes subpackage.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Service == nil {
		return nil, errors.New("corridor service is required")
	}
	if opts.Edges == nil {
		return nil, errors.New("edges store is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	return app, nil
}

// requestContextMiddleware 为每个请求生成 ID 并回写 X-Request-ID。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
