package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/corridor-hub/corridor-hub/internal/corridor"
	"github.com/corridor-hub/corridor-hub/internal/edges"
	"github.com/corridor-hub/corridor-hub/internal/keying"
	"github.com/corridor-hub/corridor-hub/internal/packcache"
)

// Corridor orchestrate 走廊的 read-through 流程：派生键 → 查缓存 →
// 未命中时构建并回写。同一个键同一时刻最多只有一次共享构建
//（singleflight）；等待超过 buildWait 的请求方退化为独立构建，
// 避免在慢构建后面无限排队。
type Corridor struct {
	builder     *corridor.Builder
	cache       packcache.Store
	logger      *logrus.Logger
	algoVersion string
	buildWait   time.Duration
	flight      singleflight.Group
}

// Options 汇总构建 Corridor 服务所需的依赖。
type Options struct {
	Edges       edges.Store
	Cache       packcache.Store
	Logger      *logrus.Logger
	AlgoVersion string

	// BuildWait 是共享构建的最长等待时间，零值取默认 30s。
	BuildWait time.Duration
}

const defaultBuildWait = 30 * time.Second

// New 校验依赖并构建服务实例。缓存句柄显式传入、不依赖全局状态，
// 方便在测试中独立替换。
func New(opts Options) (*Corridor, error) {
	if opts.Edges == nil {
		return nil, errors.New("edges store is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("pack cache is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.AlgoVersion == "" {
		return nil, errors.New("algo version is required")
	}

	buildWait := opts.BuildWait
	if buildWait <= 0 {
		buildWait = defaultBuildWait
	}

	return &Corridor{
		builder:     corridor.NewBuilder(opts.Edges, opts.Logger),
		cache:       opts.Cache,
		logger:      opts.Logger,
		algoVersion: opts.AlgoVersion,
		buildWait:   buildWait,
	}, nil
}

// EnsureRequest 是一次 ensure 调用的全部输入。
type EnsureRequest struct {
	RouteKey string
	Geometry string
	Profile  string
	BufferM  int
	MaxEdges int
}

// Meta 描述一次 ensure 的结果来源与体积。
type Meta struct {
	CorridorKey string `json:"corridor_key"`
	RouteKey    string `json:"route_key"`
	Profile     string `json:"profile"`
	BufferM     int    `json:"buffer_m"`
	MaxEdges    int    `json:"max_edges"`
	AlgoVersion string `json:"algo_version"`
	CreatedAt   string `json:"created_at"`
	Bytes       int    `json:"bytes"`
	CacheHit    bool   `json:"cache_hit"`
}

// EnsureResult 组合 meta 与 pack 本体。
type EnsureResult struct {
	Meta Meta
	Pack *corridor.Pack
}

// AlgoVersion 返回当前抽取算法版本。
func (s *Corridor) AlgoVersion() string {
	return s.algoVersion
}

// Ensure 命中即返回缓存 pack，未命中则构建并回写。
// 相同输入（含相同几何、即使 route_key 标签不同）必然得到同一个键，
// 第二次调用一定命中缓存。
func (s *Corridor) Ensure(ctx context.Context, req EnsureRequest) (*EnsureResult, error) {
	key, err := keying.CorridorKey(req.Geometry, req.Profile, req.BufferM, req.MaxEdges, s.algoVersion)
	if err != nil {
		if errors.Is(err, keying.ErrBadGeometry) {
			return nil, &corridor.ValidationError{Field: "geometry", Reason: "polyline6 解码失败"}
		}
		return nil, err
	}

	if rec, err := s.cache.Get(ctx, key); err == nil {
		return s.resultFromRecord(key, req, rec, true), nil
	} else if !errors.Is(err, packcache.ErrNotFound) {
		// 缓存读失败不终结请求，直接走构建
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":       "cache_get_failed",
			"corridor_key": key,
		}).Warn("缓存读取失败，回退到构建")
	}

	outcome, err := s.buildShared(ctx, key, req)
	if err != nil {
		return nil, err
	}
	return s.resultFromOutcome(key, req, outcome), nil
}

// Get 按键读取已缓存的 pack；不存在时返回 packcache.ErrNotFound。
func (s *Corridor) Get(ctx context.Context, corridorKey string) (*corridor.Pack, error) {
	rec, err := s.cache.Get(ctx, corridorKey)
	if err != nil {
		return nil, err
	}
	return rec.Pack, nil
}

// PurgeStaleVersions 批量清除 algo_version 不等于当前版本的缓存行。
func (s *Corridor) PurgeStaleVersions(ctx context.Context) (int64, error) {
	return s.cache.PurgeOtherVersions(ctx, s.algoVersion)
}

// CacheStats 透出缓存占用，供诊断端点使用。
func (s *Corridor) CacheStats(ctx context.Context) (packcache.Stats, error) {
	return s.cache.Stats(ctx)
}

type buildOutcome struct {
	pack  *corridor.Pack
	bytes int
}

// buildShared 通过 singleflight 合并同键并发构建。等待方在
// buildWait 之后退化为独立构建；调用方 ctx 到期则立即把超时
// 返回给调用方，共享构建继续完成并回写缓存（宁可浪费计算，
// 不留半成品缓存）。
func (s *Corridor) buildShared(ctx context.Context, key string, req EnsureRequest) (*buildOutcome, error) {
	ch := s.flight.DoChan(key, func() (any, error) {
		// 与任何调用方的取消解耦：构建一旦开始就做完并入缓存
		return s.buildOnce(context.WithoutCancel(ctx), key, req)
	})

	waitTimer := time.NewTimer(s.buildWait)
	defer waitTimer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*buildOutcome), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-waitTimer.C:
		// 等待超时：独立构建，Put 幂等，重复写同键是安全的
		s.logger.WithFields(logrus.Fields{
			"action":       "build_wait_timeout",
			"corridor_key": key,
			"wait":         s.buildWait.String(),
		}).Warn("共享构建等待超时，改为独立构建")
		return s.buildOnce(context.WithoutCancel(ctx), key, req)
	}
}

// buildOnce 执行一次构建并尽力回写缓存。缓存写失败降级为
// "已生成未缓存"：记日志、照常返回结果。
func (s *Corridor) buildOnce(ctx context.Context, key string, req EnsureRequest) (*buildOutcome, error) {
	route := corridor.Route{
		RouteKey: req.RouteKey,
		Geometry: req.Geometry,
		Profile:  req.Profile,
	}
	pack, err := s.builder.Build(ctx, route, req.BufferM, req.MaxEdges)
	if err != nil {
		return nil, err
	}
	pack.CorridorKey = key
	pack.AlgoVersion = s.algoVersion

	written, err := s.cache.Put(ctx, pack, req.BufferM, req.MaxEdges)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":       "cache_put_failed",
			"corridor_key": key,
		}).Warn("pack 回写失败，本次直接返回未缓存结果")
		written = 0
	}

	return &buildOutcome{pack: pack, bytes: written}, nil
}

func (s *Corridor) resultFromRecord(key string, req EnsureRequest, rec *packcache.Record, hit bool) *EnsureResult {
	return &EnsureResult{
		Meta: Meta{
			CorridorKey: key,
			RouteKey:    req.RouteKey,
			Profile:     req.Profile,
			BufferM:     req.BufferM,
			MaxEdges:    req.MaxEdges,
			AlgoVersion: s.algoVersion,
			CreatedAt:   rec.Pack.CreatedAt,
			Bytes:       rec.Bytes,
			CacheHit:    hit,
		},
		Pack: rec.Pack,
	}
}

func (s *Corridor) resultFromOutcome(key string, req EnsureRequest, outcome *buildOutcome) *EnsureResult {
	return &EnsureResult{
		Meta: Meta{
			CorridorKey: key,
			RouteKey:    req.RouteKey,
			Profile:     req.Profile,
			BufferM:     req.BufferM,
			MaxEdges:    req.MaxEdges,
			AlgoVersion: s.algoVersion,
			CreatedAt:   outcome.pack.CreatedAt,
			Bytes:       outcome.bytes,
			CacheHit:    false,
		},
		Pack: outcome.pack,
	}
}
