// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/consumer"
	"github.com/yeisme/mediavault/pkg/internal/jobs"
	"github.com/yeisme/mediavault/pkg/internal/router"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/storage"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/metrics"
	"github.com/yeisme/mediavault/pkg/middleware"
	"github.com/yeisme/mediavault/pkg/scheduler"
	"github.com/yeisme/mediavault/pkg/tracing"
)

// shutdownTimeout 优雅停机的总预算.
const shutdownTimeout = 15 * time.Second

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig

	manager   *storage.Manager
	lifecycle *service.LifecycleManager
	consumer  *consumer.Consumer
	sched     *scheduler.Scheduler

	cancelPipeline contextPkg.CancelFunc
}

// NewApp 装配整个应用：配置、追踪、指标、存储、消费者、生命周期、调度器与路由.
func NewApp(configPath string) *App {
	engine := gin.New()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	// 管线组件共享的根上下文，停机时取消
	pipelineCtx, cancel := contextPkg.WithCancel(contextPkg.Background())

	manager, err := storage.Init(pipelineCtx)
	if err != nil {
		cancel()
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	pipelineCtx = context.WithStorageManager(pipelineCtx, manager)

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	// 常驻组件：清理队列归实例所有，全局唯一
	lifecycle := service.NewLifecycleManager(pipelineCtx)
	lifecycle.Start(pipelineCtx)

	// 上传事件消费者
	cons := consumer.New(manager.GetMQClient(), service.NewProcessor(pipelineCtx))
	if err := cons.Start(pipelineCtx); err != nil {
		l.Error().Err(err).Msg("consumer start failed, processing relies on manual triggers")
	}

	// 定时任务
	sched, err := scheduler.NewScheduler()
	if err != nil {
		l.Error().Err(err).Msg("scheduler init failed")
	} else {
		if err := jobs.RegisterCronJobs(sched, manager); err != nil {
			l.Error().Err(err).Msg("register cron jobs failed")
		}

		sched.Start()
	}

	engine.Use(
		gin.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.CORSMiddleware(config.Server),
		middleware.GinLoggerMiddleware(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.AuthMiddleware(config.Auth),
		middleware.StorageMiddleware(manager),
		middleware.LifecycleMiddleware(lifecycle),
	)

	if sched != nil {
		engine.Use(middleware.SchedulerMiddleware(sched))
	}

	router.RegisterAll(engine)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:         engine,
		config:         config,
		manager:        manager,
		lifecycle:      lifecycle,
		consumer:       cons,
		sched:          sched,
		cancelPipeline: cancel,
	}
}

// Run 启动 HTTP 服务并阻塞到收到停机信号，随后优雅收尾.
func (a *App) Run() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-quit:
		log.Logger().Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Logger().Error().Err(err).Msg("http shutdown failed")
	}

	a.shutdown()

	return nil
}

// shutdown 按依赖顺序收尾：先停止入口，再排空队列，最后关存储.
func (a *App) shutdown() {
	if a.sched != nil {
		_ = a.sched.Stop()
	}

	// 取消管线上下文让消费者退出
	a.cancelPipeline()
	a.consumer.Wait()

	// 排空清理队列
	a.lifecycle.Stop()

	if err := a.manager.Close(); err != nil {
		log.Logger().Warn().Err(err).Msg("storage close failed")
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	if err := tracing.ShutdownTracer(ctx); err != nil {
		log.Logger().Warn().Err(err).Msg("tracer shutdown failed")
	}
}
