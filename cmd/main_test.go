package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	app "github.com/okian/valuematrix/internal/app"
	"github.com/okian/valuematrix/internal/config"
	"github.com/okian/valuematrix/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestConfigWiring(t *testing.T) {
	convey.Convey("Given VALUES_ environment overrides", t, func() {
		setEnv(t, map[string]string{
			"VALUES_ADDR":             ":8181",
			"VALUES_QUEUE_SIZE":       "64",
			"VALUES_WORKER_COUNT":     "2",
			"VALUES_DEFAULT_STRATEGY": "elo",
		})

		convey.Convey("When the configuration is loaded", func() {
			cfg, err := config.Load(context.Background())

			convey.Convey("Then the overrides are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8181")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
			})

			convey.Convey("Then the service options build a startable service", func() {
				opts, cleanup, err := serviceOptions(context.Background(), cfg, logger.Get())
				convey.So(err, convey.ShouldBeNil)
				defer cleanup()

				svc := app.New(opts...)
				convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
				defer func() { _ = svc.Stop(context.Background()) }()

				stats := svc.GetStats(context.Background())
				convey.So(stats["defaultStrategy"], convey.ShouldEqual, "elo")
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
			})
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		setEnv(t, map[string]string{"VALUES_ADDR": ""})

		convey.Convey("Then loading fails validation", func() {
			cfg, err := config.Load(context.Background())
			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unreachable redis address", t, func() {
		cfg := config.New(context.Background())
		cfg.RedisAddr = "127.0.0.1:1"

		convey.Convey("Then building the service options fails fast", func() {
			opts, cleanup, err := serviceOptions(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(opts, convey.ShouldBeNil)
			convey.So(cleanup, convey.ShouldBeNil)
		})
	})
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given a started service behind the HTTP server", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.CORSAllowedOrigins = []string{"https://app.example"}

		opts, cleanup, err := serviceOptions(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer cleanup()

		svc := app.New(opts...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := newHTTPServer(ctx, cfg, svc)

		convey.Convey("Then the server carries the configured address and timeouts", func() {
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
			convey.So(srv.ReadTimeout, convey.ShouldEqual, readTimeout)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})

		convey.Convey("Then stats are served", func() {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "activeSessions")
		})

		convey.Convey("Then allowed origins are echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set("Origin", "https://app.example")
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, req)
			convey.So(rec.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://app.example")
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		convey.Convey("Then a system metrics update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the updaters return once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, app.New())
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("updaters did not stop")
			}
		})
	})
}

func TestMain(m *testing.M) {
	os.Unsetenv("VALUES_CONFIG")
	os.Exit(m.Run())
}
