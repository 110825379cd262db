// Package scenario provides the dilemma text shown with refinement stage
// comparisons.
package scenario

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/valuematrix/internal/domain/model"
)

// Default generator configuration constants.
const (
	defaultMinLatency = 20 * time.Millisecond
	defaultMaxLatency = 60 * time.Millisecond
	defaultRandomSeed = 42
)

// Request describes the comparison a scenario is written for.
type Request struct {
	SessionID string
	Sequence  int
	Item1     model.Item
	Item2     model.Item
}

// Scenario is a short dilemma forcing a choice between two values.
type Scenario struct {
	Text    string
	Item1ID string
	Item2ID string
}

// Generator writes scenarios. Implementations may call a slow external
// service, so Generate honors ctx.
type Generator interface {
	Generate(ctx context.Context, req Request) (Scenario, error)
}

var defaultTemplates = []string{
	"You are offered a role that rewards %[1]s but leaves little room for %[2]s. Do you take it?",
	"A close friend asks for help that would cost you %[2]s, yet refusing would betray %[1]s. Which do you protect?",
	"Your team can finish early by bending a rule. One path honors %[1]s, the other %[2]s. Which do you follow?",
	"You have one free weekend. It can go to %[1]s or to %[2]s. Where does it go?",
	"A decision at work pits %[2]s against %[1]s and someone will be disappointed. Which side do you stand on?",
}

// InMemoryGenerator fills fixed templates after a simulated service delay.
type InMemoryGenerator struct {
	templates  []string
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewInMemoryGenerator creates a template based generator.
func NewInMemoryGenerator(opts ...Option) *InMemoryGenerator {
	g := &InMemoryGenerator{
		templates:  defaultTemplates,
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // latency jitter only
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a scenario for the pair. The template is chosen from the
// pair identity, so the same pair always reads the same way.
func (g *InMemoryGenerator) Generate(ctx context.Context, req Request) (Scenario, error) {
	if req.Item1.ID == "" || req.Item2.ID == "" {
		return Scenario{}, ErrIncompletePair
	}

	if err := g.wait(ctx); err != nil {
		return Scenario{}, err
	}

	p := model.NewPair(req.Item1.ID, req.Item2.ID)
	h := fnv.New32a()
	_, _ = h.Write([]byte(p.A + "|" + p.B))
	tmpl := g.templates[int(h.Sum32()%uint32(len(g.templates)))]

	return Scenario{
		Text:    fmt.Sprintf(tmpl, label(req.Item1), label(req.Item2)),
		Item1ID: req.Item1.ID,
		Item2ID: req.Item2.ID,
	}, nil
}

func (g *InMemoryGenerator) wait(ctx context.Context) error {
	latency := g.minLatency
	if span := g.maxLatency - g.minLatency; span > 0 {
		g.mu.Lock()
		latency += time.Duration(g.rng.Int63n(int64(span)))
		g.mu.Unlock()
	}
	if latency <= 0 {
		return nil
	}
	t := time.NewTimer(latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

func label(it model.Item) string {
	name := strings.TrimSpace(it.Name)
	if name == "" {
		name = it.ID
	}
	return strings.ToLower(name)
}
