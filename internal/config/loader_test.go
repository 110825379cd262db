package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/valuematrix/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.DefaultStrategy, convey.ShouldEqual, "merge")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("VALUES_ADDR", ":8080")
			_ = os.Setenv("VALUES_QUEUE_SIZE", "500")
			_ = os.Setenv("VALUES_WORKER_COUNT", "16")
			_ = os.Setenv("VALUES_DEFAULT_STRATEGY", "elo")
			_ = os.Setenv("VALUES_ELO_K_FACTOR", "16")
			_ = os.Setenv("VALUES_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
			_ = os.Setenv("VALUES_METRICS_NAMESPACE", "survey")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.DefaultStrategy, convey.ShouldEqual, "elo")
				convey.So(cfg.EloKFactor, convey.ShouldEqual, 16)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble,
					[]string{"https://a.example", "https://b.example"})
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "survey")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "ranking")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
queue_size: 300
min_items: 3
max_items: 12
refinement_size: 6
cors_allowed_origins:
  - "https://app.example"
`)
			_ = os.Setenv("VALUES_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep defaults for the rest", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.MinItems, convey.ShouldEqual, 3)
				convey.So(cfg.MaxItems, convey.ShouldEqual, 12)
				convey.So(cfg.RefinementSize, convey.ShouldEqual, 6)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://app.example"})
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile(t, `
addr: ":9090"
worker_count: 24
`)
			_ = os.Setenv("VALUES_CONFIG", path)
			_ = os.Setenv("VALUES_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			path := writeConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("VALUES_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("VALUES_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("VALUES_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When loading config with an unknown strategy", func() {
			_ = os.Setenv("VALUES_DEFAULT_STRATEGY", "quicksort")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("VALUES_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"VALUES_CONFIG",
		"VALUES_ADDR",
		"VALUES_QUEUE_SIZE",
		"VALUES_WORKER_COUNT",
		"VALUES_DEFAULT_STRATEGY",
		"VALUES_ELO_K_FACTOR",
		"VALUES_CORS_ALLOWED_ORIGINS",
		"VALUES_METRICS_NAMESPACE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
