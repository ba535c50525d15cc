// Package app assembles the assistant from configuration and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"ambient-assistant/internal/api"
	grpcapi "ambient-assistant/internal/api/grpc"
	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/config"
	"ambient-assistant/internal/events"
	"ambient-assistant/internal/history"
	apphttp "ambient-assistant/internal/http"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
	"ambient-assistant/internal/platform"
	"ambient-assistant/internal/service/capture"
	"ambient-assistant/internal/service/detect"
	"ambient-assistant/internal/service/memory"
	"ambient-assistant/internal/service/ocr"
	"ambient-assistant/internal/service/orchestrator"
	"ambient-assistant/internal/service/pipeline"
	"ambient-assistant/internal/service/privacy"
)

// ErrWarming is reported by readiness checks until memory has been warmed.
var ErrWarming = errors.New("memory warming")

const shutdownTimeout = 10 * time.Second

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	loader *config.Loader
	ready  atomic.Bool

	bus       *bus.Bus
	state     *models.PipelineState
	detector  *detect.Detector
	guard     *privacy.Guard
	memory    *memory.Store
	orch      *orchestrator.Orchestrator
	pipeline  *pipeline.Pipeline
	control   *api.Control
	hub       *apphttp.Hub
	forwarder *events.Forwarder

	store       history.Store
	historySink *history.Sink

	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	obsServer  *observability.Server
	tracing    observability.ShutdownFunc
}

// New constructs the application from cfg. loader, when set, is used to
// reload configuration on SIGHUP or settings file changes.
func New(ctx context.Context, cfg *config.Config, loader *config.Loader) (*Application, error) {
	logging.Init(loggingConfig(cfg.Observability))

	a := &Application{
		Cfg:    cfg,
		loader: loader,
		Logger: logging.WithComponent("application"),
	}
	for _, err := range cfg.Invalid {
		a.Logger.Warn().Err(err).Msg("Configuration section disabled")
	}

	shutdown, err := observability.InitTracing(ctx, tracingConfig(cfg))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Telemetry unavailable")
		shutdown = func(context.Context) error { return nil }
	}
	a.tracing = shutdown

	a.bus = bus.New()
	a.state = models.NewPipelineState(cfg.LLM.Primary)

	runner := platform.ExecRunner{}
	var (
		source     capture.Source
		extractor  ocr.Extractor
		foreground *platform.ForegroundProbe
		// guardFG stays a nil interface when capture is off.
		guardFG privacy.ForegroundSource
	)
	if cfg.Capture.Enabled {
		source = capture.NewCommandSource(captureConfig(cfg.Capture), runner)
		foreground = platform.NewForegroundProbe(platform.Current(), runner)
		guardFG = foreground
	}
	if cfg.OCR.Enabled {
		extractor, err = ocr.New(ocrConfig(cfg.OCR), runner)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Text extraction unavailable")
		}
	}

	a.guard = privacy.NewGuard(privacyConfig(cfg.Privacy), platform.NewProcessProbe(runner), guardFG, a.bus, a.state)
	a.detector = detect.New(detectConfig(cfg.Detection), nil)
	a.memory = memory.New(memoryConfig(cfg.Memory), newEmbedder(cfg.Embedding))

	a.orch = orchestrator.New(orchestratorConfig(cfg.LLM), newRegistry(cfg.LLM), a.bus, a.state)
	a.orch.SetGate(a.guard.Allow)
	a.guard.OnSuspend(func(reasons []string) {
		if n := a.orch.CancelAll(); n > 0 {
			a.Logger.Info().Int("cancelled", n).Strs("reasons", reasons).Msg("Cancelled in-flight requests on suspend")
		}
	})

	deps := pipeline.Deps{
		Source:     source,
		Extractor:  extractor,
		Detector:   a.detector,
		Debouncer:  detect.NewDebouncer(cfg.Detection.RegionGrid, cfg.Detection.Cooldown),
		Guard:      a.guard,
		Memory:     a.memory,
		Dispatcher: a.orch,
		Bus:        a.bus,
	}
	if foreground != nil {
		deps.Foreground = foreground
	}

	if cfg.History.Enabled {
		store, err := history.Open(ctx, cfg.History)
		if err != nil {
			a.Logger.Warn().Err(err).Str("driver", cfg.History.Driver).Msg("History disabled")
		} else {
			a.store = store
			a.historySink = history.NewSink(store, cfg.History.Driver)
			deps.History = a.historySink
		}
	}

	a.pipeline = pipeline.New(pipelineConfig(cfg), deps)
	a.forwarder = events.NewForwarder(newSinks(cfg)...)

	a.control = api.NewControl(a.bus, a.state.Snapshot)
	a.hub = apphttp.NewHub(a.control)

	a.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(observability.StreamServerInterceptor(metrics.DefaultMetrics)),
	)
	a.health = health.NewServer()
	a.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	a.health.SetServingStatus(grpcapi.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(a.grpcServer, a.health)
	grpcapi.Register(a.grpcServer, grpcapi.New(a.control, a.bus, newVoiceFactory(cfg.Voice)))
	reflection.Register(a.grpcServer)

	a.httpServer = &http.Server{
		Addr: loopback(cfg.Service.HTTPPort),
		Handler: apphttp.NewRouter(apphttp.RouterDeps{
			Control: a.control,
			Hub:     a.hub,
			Ready:   a.Ready,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.obsServer = observability.NewServer(cfg.Observability.MetricsAddr, a.Ready)

	a.Logger.Info().
		Str("service", cfg.Service.Name).
		Str("primary", cfg.LLM.Primary).
		Str("secondary", cfg.LLM.Secondary).
		Bool("capture", cfg.Capture.Enabled).
		Bool("history", a.store != nil).
		Bool("voice", cfg.Voice.Enabled).
		Msg("Ambient assistant application created")
	return a, nil
}

func loopback(port string) string {
	return net.JoinHostPort("127.0.0.1", port)
}

// Ready reports nil once memory has been warmed.
func (a *Application) Ready() error {
	if !a.ready.Load() {
		return ErrWarming
	}
	return nil
}

// Run serves until ctx is done or a component fails, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().Time("startupTime", a.StartupTime).Msg("Ambient assistant starting")

	g, gctx := errgroup.WithContext(ctx)

	// Subscribers attach before the pipeline publishes anything.
	if a.historySink != nil {
		if err := a.historySink.Attach(gctx, a.bus); err != nil {
			return err
		}
	}
	if err := a.forwarder.Attach(gctx, a.bus); err != nil {
		return err
	}
	if err := a.hub.Attach(gctx, a.bus); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", loopback(a.Cfg.Service.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})
	g.Go(func() error { return a.guard.Run(gctx) })
	g.Go(func() error {
		a.pipeline.Warm(gctx)
		a.ready.Store(true)
		a.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		a.health.SetServingStatus(grpcapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
		return a.pipeline.Run(gctx)
	})
	g.Go(func() error {
		a.Logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC server started")
		if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.Logger.Info().Str("addr", a.httpServer.Addr).Msg("HTTP server started")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve failed: %w", err)
		}
		return nil
	})
	if a.loader != nil {
		g.Go(func() error {
			return config.NewWatcher(a.loader, a.Reload).Run(gctx)
		})
	}
	a.obsServer.Start()

	g.Go(func() error {
		<-gctx.Done()
		a.stopServers()
		return nil
	})

	err = g.Wait()
	a.Shutdown()
	return err
}

// Reload applies a freshly loaded configuration. Listener addresses, storage
// and forwarders keep their startup values.
func (a *Application) Reload(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Observability.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	a.guard.Reconfigure(privacyConfig(cfg.Privacy))
	a.detector.Reconfigure(detectConfig(cfg.Detection))
	a.orch.Reconfigure(orchestratorConfig(cfg.LLM))
	a.pipeline.Reconfigure(pipelineConfig(cfg))
	a.Cfg = cfg
	a.Logger.Info().Msg("Configuration reloaded")
}

func (a *Application) stopServers() {
	a.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("HTTP server shutdown")
	}
	if err := a.obsServer.Shutdown(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Observability server shutdown")
	}

	stopped := make(chan struct{})
	go func() {
		a.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		a.grpcServer.Stop()
	}
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Ambient assistant shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.orch.Close(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Orchestrator close")
	}
	if err := a.bus.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Bus close")
	}
	if err := a.forwarder.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Forwarder close")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("History close")
		}
	}
	if err := a.tracing(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Telemetry shutdown")
	}
}
