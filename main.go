package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/corridor-hub/corridor-hub/internal/config"
	"github.com/corridor-hub/corridor-hub/internal/edges"
	"github.com/corridor-hub/corridor-hub/internal/logging"
	"github.com/corridor-hub/corridor-hub/internal/packcache"
	"github.com/corridor-hub/corridor-hub/internal/server"
	"github.com/corridor-hub/corridor-hub/internal/server/routes"
	"github.com/corridor-hub/corridor-hub/internal/service"
	"github.com/corridor-hub/corridor-hub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["edges_backend"] = cfg.Edges.Backend()
		fields["algo_version"] = cfg.Corridor.AlgoVersion
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// CLI 启动遵循"配置 → 边表 → pack 缓存 → 服务 → Fiber server"顺序，
	// 保证所有请求共享同一组存储句柄。
	edgeStore, err := edges.Open(cfg.Edges.DatabaseURL, cfg.Edges.DBPath, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "打开边表失败: %v\n", err)
		return 1
	}
	defer edgeStore.Close()

	cacheStore, err := packcache.NewSQLiteStore(cfg.Corridor.CacheDBPath, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "打开 pack 缓存失败: %v\n", err)
		return 1
	}
	defer cacheStore.Close()

	svc, err := service.New(service.Options{
		Edges:       edgeStore,
		Cache:       cacheStore,
		Logger:      logger,
		AlgoVersion: cfg.Corridor.AlgoVersion,
		BuildWait:   cfg.Corridor.BuildWaitTimeout.DurationValue(),
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化走廊服务失败: %v\n", err)
		return 1
	}

	if cfg.Corridor.PurgeStaleOnStart {
		removed, err := svc.PurgeStaleVersions(context.Background())
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_purge",
			}).Warn("启动清理过期版本失败")
		} else if removed > 0 {
			logger.WithFields(logrus.Fields{
				"action":       "cache_purge",
				"removed":      removed,
				"algo_version": cfg.Corridor.AlgoVersion,
			}).Info("启动时清理过期版本缓存")
		}
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["edges_backend"] = cfg.Edges.Backend()
	fields["algo_version"] = cfg.Corridor.AlgoVersion
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, svc, edgeStore, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("corridor-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 CORRIDOR_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("CORRIDOR_HUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, svc *service.Corridor, edgeStore edges.Store, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	limits := server.Limits{
		DefaultBufferM:  cfg.Corridor.DefaultBufferM,
		DefaultMaxEdges: cfg.Corridor.DefaultMaxEdges,
		MaxBufferM:      cfg.Corridor.MaxBufferM,
		MaxEdgesCap:     cfg.Corridor.MaxEdgesCap,
	}
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Service:    svc,
		Edges:      edgeStore,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterCorridorRoutes(app, svc, limits, logger)
	routes.RegisterDiagnosticsRoutes(app, svc, edgeStore, logger)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
