package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/valuematrix/internal/app"
	"github.com/okian/valuematrix/internal/domain/ranking"
	"github.com/okian/valuematrix/pkg/logger"
)

const stopTimeout = 10 * time.Second

// NewCommand builds the simulate command.
func NewCommand() *cobra.Command {
	cfg := DefaultConfig()
	var strategies []string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compare ranking strategies against simulated respondents",
		Long: `simulate ranks synthetic values whose true order is known, answering every
comparison from that order with an optional error rate. It reports how many
comparisons each strategy needed and how much of the true top-K it recovered.

Without --url the service runs in process.`,
		Example: `  simulate --sessions 50 --items 12 --noise 0.15
  simulate --strategy merge,elo --k 5
  simulate --url http://localhost:9080 --sessions 5`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds, err := parseStrategies(strategies)
			if err != nil {
				return err
			}
			cfg.Strategies = kinds
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}
			return execute(cmd.Context(), cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "", "base URL of a running service (default: in process)")
	f.IntVar(&cfg.Sessions, "sessions", DefaultSessions, "sessions per strategy")
	f.IntVar(&cfg.Items, "items", DefaultItems, "values per session")
	f.Float64Var(&cfg.Noise, "noise", DefaultNoise, "probability a respondent answers against the true order")
	f.StringSliceVar(&strategies, "strategy", kindNames(ranking.Kinds()), "strategies to compare")
	f.Int64Var(&cfg.Seed, "seed", 1, "base random seed")
	f.IntVar(&cfg.TopK, "k", DefaultTopK, "leader set size scored against the truth")
	f.IntVar(&cfg.Concurrency, "concurrency", DefaultConcurrency, "sessions running at once")
	f.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "HTTP request timeout")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every finished session")

	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var target Target
	if cfg.BaseURL != "" {
		target = NewHTTPTarget(cfg.BaseURL, cfg.Timeout)
	} else {
		svc := app.New(
			app.WithLogger(logger.Named("service")),
			app.WithItemLimits(2, cfg.Items),
			app.WithMaxTopLimit(cfg.Items),
			app.WithScenarioLatencyRange(0, 0),
			app.WithIdleTimeout(0),
		)
		if err := svc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start service: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
			defer cancel()
			_ = svc.Stop(stopCtx)
		}()
		target = svc
	}

	report, err := Run(ctx, target, cfg)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout())
}

func parseStrategies(names []string) ([]ranking.Kind, error) {
	out := make([]ranking.Kind, 0, len(names))
	seen := make(map[ranking.Kind]bool, len(names))
	for _, name := range names {
		k, err := ranking.ParseKind(name)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

func kindNames(kinds []ranking.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
