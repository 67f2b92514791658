package server

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/corridor-hub/corridor-hub/internal/edges"
	"github.com/corridor-hub/corridor-hub/internal/packcache"
	"github.com/corridor-hub/corridor-hub/internal/service"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := edges.NewMemoryStore()
	svc, err := service.New(service.Options{
		Edges:       store,
		Cache:       packcache.NewMemoryStore(),
		Logger:      testLogger(),
		AlgoVersion: "v1",
	})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}

	app, err := NewApp(AppOptions{
		Logger:     testLogger(),
		Service:    svc,
		Edges:      store,
		ListenPort: 5000,
	})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestNewAppRequiresDependencies(t *testing.T) {
	if _, err := NewApp(AppOptions{}); err == nil {
		t.Fatalf("缺少依赖时应返回错误")
	}

	store := edges.NewMemoryStore()
	svc, err := service.New(service.Options{
		Edges:       store,
		Cache:       packcache.NewMemoryStore(),
		Logger:      testLogger(),
		AlgoVersion: "v1",
	})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	if _, err := NewApp(AppOptions{Logger: testLogger(), Service: svc, Edges: store, ListenPort: 0}); err == nil {
		t.Fatalf("非法端口应返回错误")
	}
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	app := newTestApp(t)
	app.Get("/ping", func(c fiber.Ctx) error {
		if RequestID(c) == "" {
			t.Errorf("handler 内应能取到 request id")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "http://corridor.local/ping", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if reqID := resp.Header.Get("X-Request-ID"); reqID == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}
