package simulate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/valuematrix/internal/domain/ranking"
	"github.com/okian/valuematrix/internal/domain/types"
	"github.com/okian/valuematrix/pkg/logger"
)

// Outcome is the result of one simulated session.
type Outcome struct {
	Strategy    ranking.Kind
	SessionID   string
	Comparisons int
	Overlap     int  // leaders shared with the true top-K
	TopCorrect  bool // the winner is the true best value
}

// Run drives cfg.Sessions sessions per strategy against target and
// aggregates the outcomes. It fails on the first session error.
func Run(ctx context.Context, target Target, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Named("simulate")
	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("items", cfg.Items),
		logger.Float64("noise", cfg.Noise),
		logger.Int("k", cfg.TopK),
		logger.Int("concurrency", cfg.Concurrency))

	start := time.Now()

	var (
		mu       sync.Mutex
		outcomes []Outcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for _, kind := range cfg.Strategies {
		kind := kind
		for i := 0; i < cfg.Sessions; i++ {
			i := i
			seed := cfg.Seed + int64(i)
			g.Go(func() error {
				out, err := runSession(gctx, target, cfg, kind, seed)
				if err != nil {
					return fmt.Errorf("%s session %d: %w", kind, i, err)
				}
				if cfg.Verbose {
					log.Debug(gctx, "session finished",
						logger.String("strategy", string(kind)),
						logger.String("session", out.SessionID),
						logger.Int("comparisons", out.Comparisons),
						logger.Int("overlap", out.Overlap))
				}
				mu.Lock()
				outcomes = append(outcomes, out)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := newReport(cfg, outcomes, time.Since(start))
	log.Info(ctx, "simulation completed",
		logger.Int("sessions", len(outcomes)),
		logger.Duration("duration", report.Duration))
	return report, nil
}

// runSession ranks one hidden order with one strategy.
func runSession(ctx context.Context, target Target, cfg Config, kind ranking.Kind, seed int64) (Outcome, error) {
	t := newTruth(cfg.Items, seed)
	who := newRespondent(t, cfg.Noise, seed)

	engineSeed := seed
	view, err := target.CreateSession(ctx, types.CreateSessionInput{
		Strategy: string(kind),
		Items:    t.items,
		Seed:     &engineSeed,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("create session: %w", err)
	}
	defer func() { _ = target.DeleteSession(context.WithoutCancel(ctx), view.ID) }()

	out := Outcome{Strategy: kind, SessionID: view.ID}
	for {
		c, done, err := target.NextComparison(ctx, view.ID)
		if err != nil {
			return out, fmt.Errorf("next comparison: %w", err)
		}
		if done {
			break
		}
		_, err = target.RecordDecision(ctx, view.ID, types.DecisionInput{
			Item1ID:        c.Item1.ID,
			Item2ID:        c.Item2.ID,
			WinnerID:       who.choose(c.Item1.ID, c.Item2.ID),
			Sequence:       c.Sequence,
			IdempotencyKey: fmt.Sprintf("answer-%d", c.Sequence),
		})
		if err != nil {
			return out, fmt.Errorf("record decision %d: %w", c.Sequence, err)
		}
		out.Comparisons++
	}

	all, err := target.TopK(ctx, view.ID, cfg.Items)
	if err != nil {
		return out, fmt.Errorf("top: %w", err)
	}
	if err := checkCoverage(all, cfg.Items); err != nil {
		return out, err
	}

	leaders := make([]string, 0, cfg.TopK)
	for _, e := range all[:cfg.TopK] {
		leaders = append(leaders, e.ItemID)
	}
	want := t.top(cfg.TopK)
	out.Overlap = overlap(want, leaders)
	out.TopCorrect = leaders[0] == want[0]
	return out, nil
}

// checkCoverage verifies a full listing holds n distinct values ranked 1..n.
func checkCoverage(entries []types.Entry, n int) error {
	if len(entries) != n {
		return fmt.Errorf("%w: got %d entries, want %d", ErrCoverage, len(entries), n)
	}
	seen := make(map[string]struct{}, n)
	for i, e := range entries {
		if _, ok := seen[e.ItemID]; ok {
			return fmt.Errorf("%w: %s listed twice", ErrCoverage, e.ItemID)
		}
		seen[e.ItemID] = struct{}{}
		if e.Rank != i+1 {
			return fmt.Errorf("%w: entry %d has rank %d", ErrCoverage, i, e.Rank)
		}
	}
	return nil
}
