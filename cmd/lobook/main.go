package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"lobook.com/internal/config"
	"lobook.com/internal/engine"
	"lobook.com/internal/matching"
	pkgconfig "lobook.com/pkg/config"
	"lobook.com/pkg/logger"
	"lobook.com/pkg/metrics"
	"lobook.com/pkg/trace"
)

var (
	configFile = flag.String("f", "config/lobook.yaml", "the config file")
	watch      = flag.Bool("watch", false, "keep running after the scenario (metrics + config reload)")
)

func main() {
	flag.Parse()

	// 1. 加载配置
	var cfg config.Config
	v, err := pkgconfig.Load("lobook", *configFile, &cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// 2. 日志
	logger.InitWithFile(cfg.Name, cfg.Log.Level, cfg.Log.File)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 链路追踪，stdout exporter 写 stderr，不和盘口输出混在一起
	shutdownTrace, err := trace.InitTrace(ctx, cfg.Name, trace.Config{
		Exporter: cfg.Trace.Exporter,
		Endpoint: cfg.Trace.Endpoint,
		Writer:   os.Stderr,
	})
	if err != nil {
		logger.Error(ctx, "init trace", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = shutdownTrace(flushCtx)
	}()

	runCfg := cfg // 热更新会改写 cfg，场景用启动时的副本
	if *watch {
		// 只热更新日志级别，场景不会重放
		pkgconfig.Watch(v, cfg.Name, &cfg, func() {
			logger.SetLevel(cfg.Log.Level)
			logger.Info(ctx, "log level reloaded", zap.String("level", cfg.Log.Level))
		})
	}

	if err := run(ctx, &runCfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "lobook exited", zap.Error(err))
		os.Exit(1)
	}

	if *watch {
		<-ctx.Done()
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	book := matching.NewOrderBook(
		matching.WithLogger(logger.Named("book")),
		matching.WithObserver(metrics.NewBookMetrics(reg)),
	)
	actor := engine.NewBookActor(book, engine.ActorConfig{
		MailboxSize: cfg.Engine.MailboxSize,
		BatchMax:    cfg.Engine.BatchMax,
		RatePerSec:  cfg.Engine.RatePerSec,
		Burst:       cfg.Engine.Burst,
	})
	metrics.RegisterActor(reg, actor)

	g, gctx := errgroup.WithContext(ctx)
	actor.Start(gctx)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 3 * time.Second,
		}
		g.Go(func() error {
			logger.Info(gctx, "metrics listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		if err := replay(gctx, actor, cfg.Scenario); err != nil {
			return err
		}
		if err := printBook(gctx, actor); err != nil {
			return err
		}
		if !*watch {
			return context.Canceled // 跑完场景就退出，顺带关掉其他协程
		}
		return nil
	})

	err := g.Wait()
	<-actor.Done()
	return err
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

// replay 按顺序执行配置里的场景
func replay(ctx context.Context, actor *engine.BookActor, steps []config.Step) error {
	for i, s := range steps {
		p, err := s.Parse()
		if err != nil {
			return fmt.Errorf("scenario[%d]: %w", i, err)
		}
		order, err := matching.NewOrder(p.Qty, p.Side)
		if err != nil {
			return fmt.Errorf("scenario[%d]: %w", i, err)
		}

		cmd := engine.Command{ReqID: "step-" + strconv.Itoa(i), Order: order, Price: p.Price}
		switch p.Op {
		case config.OpLimit:
			cmd.Type = engine.CmdAddLimit
		case config.OpFillLimit:
			cmd.Type = engine.CmdFillLimit
		case config.OpMarket:
			cmd.Type = engine.CmdFillMarket
		}

		res, err := actor.Do(ctx, cmd)
		if err != nil {
			return fmt.Errorf("scenario[%d] %s: %w", i, p.Op, err)
		}
		logger.Info(logger.WithReqID(ctx, cmd.ReqID), "step applied",
			zap.String("op", p.Op),
			zap.Stringer("side", p.Side),
			zap.Stringer("price", p.Price),
			zap.Stringer("qty", p.Qty),
			zap.Int("trades", len(res.Trades)),
			zap.Stringer("remaining", res.Remaining))
	}
	return nil
}

func printBook(ctx context.Context, actor *engine.BookActor) error {
	text, err := actor.Render(ctx)
	if err != nil {
		return err
	}
	snap, err := actor.Snapshot(ctx)
	if err != nil {
		return err
	}
	raw, err := snap.MarshalIndent()
	if err != nil {
		return err
	}
	fmt.Println(text)
	fmt.Println(string(raw))
	return nil
}
