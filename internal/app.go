package internal

import (
	"barcodedrop/internal/clipboard"
	"barcodedrop/internal/console"
	"barcodedrop/internal/controllers"
	"barcodedrop/internal/persistence/interfaces"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/services"
	"barcodedrop/internal/structures"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	WebServer *http.Server

	conf      *structures.Config
	logger    providers.Logger
	session   services.SessionInterface
	scheduler interfaces.SchedulerInterface

	background sync.WaitGroup
}

// NewNotifier fans auto-copy notices out to the log and the console.
func NewNotifier(logger providers.Logger, renderer *console.Renderer) clipboard.Notifier {
	if !renderer.Enabled() {
		return clipboard.NewLogNotifier(logger)
	}
	return clipboard.MultiNotifier{clipboard.NewLogNotifier(logger), renderer}
}

func NewApp(
	conf *structures.Config,
	logger providers.Logger,
	session services.SessionInterface,
	engine *services.AutoCopyEngine,
	renderer *console.Renderer,
	scheduler interfaces.SchedulerInterface,
	healthController *controllers.HealthController,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) (*App, error) {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, router.GetRoutes(), apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	if renderer.Enabled() {
		session.Subscribe(renderer.OnCollectionChanged)
		engine.OnHighlight(renderer.OnHighlight)
	}

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:      conf,
		logger:    logger,
		session:   session,
		scheduler: scheduler,
	}, nil
}

// Run starts the session and the HTTP server and blocks until ctx is done,
// a shutdown signal arrives or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof(providers.TypeApp, "Starting %s for user %s", a.conf.AppName, a.conf.Username)
	if err := a.scheduler.Restore(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	a.scheduler.Init()

	if err := a.session.Start(ctx); err != nil {
		a.logger.Errorf(providers.TypeApp, "Initial load failed, waiting for the live channel: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, watchedSignals()...)
	defer signal.Stop(sigs)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			a.logger.Infof(providers.TypeApp, "Context cancelled")
			break loop
		case sig := <-sigs:
			if a.handleSignal(ctx, sig) {
				a.logger.Infof(providers.TypeApp, "Shutdown signal received")
				break loop
			}
		case err := <-serverErr:
			runErr = fmt.Errorf("server error: %w", err)
			break loop
		}
	}

	return multierr.Append(runErr, a.shutdown())
}

// handleSignal reacts to sig and reports whether it asks for shutdown.
func (a *App) handleSignal(ctx context.Context, sig os.Signal) bool {
	switch {
	case resumeSignal != nil && sig == resumeSignal:
		a.logger.Debugf(providers.TypeApp, "Resumed, treating as visible")
		a.session.SetVisible(true)
		return false
	case resyncSignal != nil && sig == resyncSignal:
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			if err := a.session.Resync(ctx); err != nil {
				a.logger.Errorf(providers.TypeApp, "Resync failed: %v", err)
			}
		}()
		return false
	default:
		return true
	}
}

// shutdown drains HTTP requests before the session goes away, so no request
// reaches a closed session.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	serverErr := a.WebServer.Shutdown(ctx)
	a.scheduler.Stop()
	a.session.Close()
	a.background.Wait()

	err := multierr.Combine(
		serverErr,
		a.scheduler.Persist(),
	)
	if err != nil {
		a.logger.Errorf(providers.TypeApp, "Shutdown finished with errors: %v", err)
	} else {
		a.logger.Infof(providers.TypeApp, "gracefully stopped")
	}
	a.logger.Close()
	return err
}
