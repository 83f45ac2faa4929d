// Package app wires the webservice together: logger, metrics, connection
// executor, HTTP server and signal handling.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/threadpool/httpserver"
	"github.com/ygrebnov/threadpool/internal/config"
	"github.com/ygrebnov/threadpool/metrics"
)

const meterName = "github.com/ygrebnov/threadpool/webservice"

var (
	// ErrStartup wraps every failure that happens before the server is listening.
	ErrStartup = errors.New("app: startup failed")
	// ErrShutdownTimeout means in-flight connections outlived the shutdown timeout.
	ErrShutdownTimeout = errors.New("app: shutdown timed out")
)

// App is a configured webservice. Run it once.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	listener net.Listener
	signals  <-chan os.Signal
	sleep    time.Duration
}

// Option customizes an App.
type Option func(*App)

// WithListener serves on ln instead of binding 127.0.0.1:<port>.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// WithSignals replaces OS signal delivery with c.
func WithSignals(c <-chan os.Signal) Option {
	return func(a *App) { a.signals = c }
}

// WithSleep sets how long GET /sleep waits. Default: DefaultSleep.
func WithSleep(d time.Duration) Option {
	return func(a *App) { a.sleep = d }
}

// New validates cfg and returns an App ready to Run.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartup, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{cfg: cfg, logger: logger, sleep: DefaultSleep}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Run serves until ctx is done, a signal arrives or the listener fails, then
// drains accepted connections within the configured shutdown timeout.
//
// It returns nil when ctx was cancelled, a *SignalError when a signal stopped
// it, and an error wrapping ErrStartup when nothing could be served.
func (a *App) Run(ctx context.Context) error {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	exec, err := newExecutor(a.cfg, a.logger, metrics.NewOTelProvider(mp.Meter(meterName)))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}

	ln, err := a.listen()
	if err != nil {
		_ = exec.Shutdown(context.Background())
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}

	srv, err := httpserver.New(httpserver.WithLogger(a.logger), httpserver.WithExecutor(exec))
	if err == nil {
		err = registerRoutes(srv, a.cfg.Root, a.sleep)
	}
	if err != nil {
		_ = ln.Close()
		_ = exec.Shutdown(context.Background())
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}

	a.logger.Info("webservice starting",
		slog.String("addr", ln.Addr().String()),
		slog.String("handle", a.cfg.Handle),
		slog.Int("workers", a.cfg.Workers),
	)

	runErr := a.serve(ctx, srv, ln)

	a.logger.Info("shutting down", slog.Duration("timeout", a.cfg.ShutdownTimeout))
	sctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := exec.Shutdown(sctx); err != nil {
		a.logger.Warn("connections still running after shutdown timeout", slog.Any("error", err))
		runErr = errors.Join(runErr, fmt.Errorf("%w: %w", ErrShutdownTimeout, err))
	}

	a.logMetrics(reader)
	return runErr
}

func (a *App) listen() (net.Listener, error) {
	if a.listener != nil {
		return a.listener, nil
	}
	return net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(a.cfg.Port)))
}

// serve runs the server next to a signal listener until one of them stops.
func (a *App) serve(ctx context.Context, srv *httpserver.Server, ln net.Listener) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	g.Go(func() error {
		sigCh := a.signals
		if sigCh == nil {
			c := make(chan os.Signal, 1)
			signal.Notify(c, DefaultSignals()...)
			defer signal.Stop(c)
			sigCh = c
		}

		select {
		case sig := <-sigCh:
			a.logger.Info("received signal", slog.String("signal", sig.String()))
			cancel(&SignalError{Signal: sig})
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	var sigErr *SignalError
	if cause := context.Cause(ctx); errors.As(cause, &sigErr) {
		return sigErr
	}
	return nil
}

// logMetrics logs one record per collected instrument.
func (a *App) logMetrics(reader *sdkmetric.ManualReader) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		a.logger.Warn("failed to collect metrics", slog.Any("error", err))
		return
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				a.logger.Info("metric", slog.String("name", m.Name), slog.Int64("value", total))
			case metricdata.Histogram[float64]:
				var (
					count uint64
					sum   float64
				)
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				a.logger.Info("metric",
					slog.String("name", m.Name),
					slog.Uint64("count", count),
					slog.Float64("sum", sum),
				)
			}
		}
	}
}
