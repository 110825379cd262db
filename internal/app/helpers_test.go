package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/valuematrix/internal/app"
	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/internal/domain/types"
	"github.com/okian/valuematrix/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func makeItems(n int) []types.ItemView {
	items := make([]types.ItemView, n)
	for i := range items {
		items[i] = types.ItemView{ID: fmt.Sprintf("v%02d", i), Name: fmt.Sprintf("Value %d", i)}
	}
	return items
}

// startService starts a service with fast scenario generation and stops it
// when the test ends.
func startService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{service.WithScenarioLatencyRange(0, 0)}, opts...)
	svc := service.New(opts...)
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

// lowestIDWins answers every comparison with the lexicographically smaller
// id, which makes v00 the best value.
func lowestIDWins(a, b string) string {
	if a < b {
		return a
	}
	return b
}

func firstWins(a, _ string) string { return a }

// finish answers comparisons until the session is done and returns how many
// were answered.
func finish(ctx context.Context, svc *service.Service, id string, pick func(a, b string) string) (int, error) {
	n := 0
	for {
		c, done, err := svc.NextComparison(ctx, id)
		if err != nil {
			return n, err
		}
		if done {
			return n, nil
		}
		_, err = svc.RecordDecision(ctx, id, service.DecisionInput{
			Item1ID:  c.Item1.ID,
			Item2ID:  c.Item2.ID,
			WinnerID: pick(c.Item1.ID, c.Item2.ID),
			Sequence: c.Sequence,
		})
		if err != nil {
			return n, err
		}
		n++
	}
}

// manualClock is a concurrency safe clock tests can move forward.
type manualClock struct {
	nanos atomic.Int64
}

func newManualClock() *manualClock {
	c := &manualClock{}
	c.nanos.Store(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	return c
}

func (c *manualClock) Now() time.Time { return time.Unix(0, c.nanos.Load()) }

func (c *manualClock) Advance(d time.Duration) { c.nanos.Add(int64(d)) }

// gatedLog is a decision log whose writes block until the gate opens.
type gatedLog struct {
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once

	mu     sync.Mutex
	events []model.DecisionEvent
}

func newGatedLog() *gatedLog {
	return &gatedLog{gate: make(chan struct{}), entered: make(chan struct{})}
}

func (l *gatedLog) Append(_ context.Context, events ...model.DecisionEvent) error {
	l.once.Do(func() { close(l.entered) })
	<-l.gate
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
	return nil
}

func (l *gatedLog) List(_ context.Context, sessionID string) ([]model.DecisionEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.DecisionEvent
	for _, ev := range l.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (l *gatedLog) Delete(context.Context, string) error { return nil }

func (l *gatedLog) Close() error { return nil }

func (l *gatedLog) open() {
	select {
	case <-l.gate:
	default:
		close(l.gate)
	}
}

// forgetfulDeduper never remembers a key.
type forgetfulDeduper struct{}

func (forgetfulDeduper) Reserve(_ context.Context, _ string, sequence int) (int, bool, error) {
	return sequence, false, nil
}

func (forgetfulDeduper) Unrecord(context.Context, string) error { return nil }

func (forgetfulDeduper) Size() int64 { return 0 }
