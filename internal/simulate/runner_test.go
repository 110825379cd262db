package simulate_test

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/valuematrix/internal/adapters/http/api"
	app "github.com/okian/valuematrix/internal/app"
	"github.com/okian/valuematrix/internal/domain/ranking"
	"github.com/okian/valuematrix/internal/simulate"
	"github.com/okian/valuematrix/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startService(t *testing.T) *app.Service {
	t.Helper()
	svc := app.New(app.WithScenarioLatencyRange(0, 0), app.WithItemLimits(2, 50))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
	})
	return svc
}

func TestRun(t *testing.T) {
	convey.Convey("Given an in-process service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		convey.Convey("When noiseless respondents rank with every strategy", func() {
			cfg := simulate.DefaultConfig()
			cfg.Sessions = 3
			cfg.Items = 8
			cfg.Noise = 0

			report, err := simulate.Run(ctx, svc, cfg)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then each strategy reports its sessions", func() {
				convey.So(len(report.Results), convey.ShouldEqual, len(ranking.Kinds()))
				for _, res := range report.Results {
					convey.So(res.Sessions, convey.ShouldEqual, 3)
					convey.So(res.MinComparisons, convey.ShouldBeGreaterThan, 0)
					convey.So(res.MinComparisons, convey.ShouldBeLessThanOrEqualTo, res.MaxComparisons)
				}
			})

			convey.Convey("Then the full tournament recovers the true leaders", func() {
				res, ok := report.Result(ranking.KindPairwise)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.MinComparisons, convey.ShouldEqual, 28)
				convey.So(res.MaxComparisons, convey.ShouldEqual, 28)
				convey.So(res.MeanOverlap, convey.ShouldEqual, 1.0)
				convey.So(res.TopAccuracy, convey.ShouldEqual, 1.0)
			})

			convey.Convey("Then the report prints one row per strategy", func() {
				var buf bytes.Buffer
				convey.So(report.Write(&buf), convey.ShouldBeNil)
				for _, k := range ranking.Kinds() {
					convey.So(buf.String(), convey.ShouldContainSubstring, string(k))
				}
			})
		})

		convey.Convey("When the config is out of range", func() {
			cfg := simulate.DefaultConfig()
			cfg.TopK = cfg.Items + 1

			_, err := simulate.Run(ctx, svc, cfg)
			convey.So(errors.Is(err, simulate.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestHTTPTarget(t *testing.T) {
	convey.Convey("Given a service behind the HTTP API", t, func() {
		svc := startService(t)
		ctx := context.Background()

		r := mux.NewRouter()
		api.NewServer(svc, svc).Register(ctx, r)
		ts := httptest.NewServer(r)
		defer ts.Close()

		target := simulate.NewHTTPTarget(ts.URL, 5*time.Second)

		convey.Convey("When sessions are driven over HTTP", func() {
			cfg := simulate.DefaultConfig()
			cfg.BaseURL = ts.URL
			cfg.Sessions = 2
			cfg.Items = 6
			cfg.Noise = 0
			cfg.Strategies = []ranking.Kind{ranking.KindPairwise, ranking.KindMerge}

			report, err := simulate.Run(ctx, target, cfg)

			convey.Convey("Then both strategies complete", func() {
				convey.So(err, convey.ShouldBeNil)
				res, ok := report.Result(ranking.KindPairwise)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.MaxComparisons, convey.ShouldEqual, 15)
				convey.So(res.TopAccuracy, convey.ShouldEqual, 1.0)
				_, ok = report.Result(ranking.KindMerge)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a session does not exist", func() {
			_, _, err := target.NextComparison(ctx, "missing")

			convey.Convey("Then the status is reported", func() {
				convey.So(errors.Is(err, simulate.ErrUnexpectedStatus), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "404")
			})
		})
	})
}

func TestCommand(t *testing.T) {
	convey.Convey("Given the simulate command", t, func() {
		convey.Convey("When it runs in process", func() {
			cmd := simulate.NewCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"--sessions", "2", "--items", "6", "--strategy", "pairwise,elo", "--k", "2"})

			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then it prints the report", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "items=6 k=2")
				convey.So(out.String(), convey.ShouldContainSubstring, "pairwise")
				convey.So(out.String(), convey.ShouldContainSubstring, "elo")
			})
		})

		convey.Convey("When a strategy is unknown", func() {
			cmd := simulate.NewCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"--strategy", "bogus"})

			err := cmd.ExecuteContext(context.Background())
			convey.So(errors.Is(err, ranking.ErrUnknownStrategy), convey.ShouldBeTrue)
		})
	})
}
