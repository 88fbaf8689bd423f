package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"studyd/internal/admin"
	"studyd/internal/controllers"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/scheduler/interfaces"
	"studyd/internal/store"
	"studyd/internal/structures"
	"studyd/internal/tracker"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server
}

func NewApp(apiController *controllers.ApiController, healthController *controllers.HealthController, sched interfaces.SchedulerInterface, trk tracker.TrackerInterface, dispatcher admin.DispatcherInterface, stream platform.EventStream, ledger store.AccumulationStoreInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*App, error) {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)

	// A room change means a different community; all counters restart and
	// the posting marker must not carry over, or the scheduler would
	// backfill days from the old room onto empty boards.
	if reset, err := ledger.EnsureGroup(conf.Gateway.Room); err != nil {
		return nil, fmt.Errorf("group check: %w", err)
	} else if reset {
		logger.Warnf(providers.TypeApp, "Tracked room changed to %q, counters reset", conf.Gateway.Room)
		resetPostingState(conf, logger)
	}

	err := sched.Restore()
	if err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	sched.Init()

	pumpCtx, stopPump := context.WithCancel(context.Background())
	go pumpEvents(pumpCtx, stream, trk, dispatcher, conf, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		stopPump()
		return nil, fmt.Errorf("server error: %w", err)
	}

	stopPump()
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}

	// Settle open sessions before the ledger closes so shutdown never loses
	// already-earned time.
	trk.FinalizeAll(time.Now())
	if err = sched.Persist(); err != nil {
		return nil, err
	}
	if err = ledger.Close(); err != nil {
		logger.Errorf(providers.TypeApp, "Ledger close error: %s", err)
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}

// resetPostingState discards the persisted posting marker and backfill queue
// so a newly tracked room starts posting from scratch.
func resetPostingState(conf *structures.Config, logger providers.Logger) {
	if conf.Scheduler.StatePath == "" {
		return
	}
	if err := os.Remove(conf.Scheduler.StatePath); err != nil && !os.IsNotExist(err) {
		logger.Errorf(providers.TypeSched, "Posting state reset failed: %s", err)
	}
}

// pumpEvents feeds the live gateway stream into the tracker and the admin
// dispatcher. Stream errors back off briefly and retry; the roster poll
// covers any events lost in between.
func pumpEvents(ctx context.Context, stream platform.EventStream, trk tracker.TrackerInterface, dispatcher admin.DispatcherInterface, conf *structures.Config, logger providers.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}

		ev, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warnf(providers.TypeApp, "Event stream error: %s", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		if ev == nil {
			continue
		}

		switch ev.Kind {
		case platform.EventJoin, platform.EventLeave:
			trk.OnEvent(ev)
		case platform.EventMessage:
			if conf.Gateway.AdminChannel != "" && ev.Channel == conf.Gateway.AdminChannel {
				dispatcher.Handle(ctx, ev)
			}
		}
	}
}
