// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/valuematrix/internal/adapters/mq/queue"
	workerpool "github.com/okian/valuematrix/internal/adapters/mq/worker"
	"github.com/okian/valuematrix/internal/adapters/repository"
	"github.com/okian/valuematrix/internal/domain/dedupe"
	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/internal/domain/ranking"
	"github.com/okian/valuematrix/internal/domain/scenario"
	"github.com/okian/valuematrix/internal/domain/session"
	"github.com/okian/valuematrix/internal/domain/types"
	"github.com/okian/valuematrix/pkg/logger"
	"github.com/okian/valuematrix/pkg/metrics"
)

const (
	defaultWorkerCount    = 4
	defaultQueueSize      = 10_000
	defaultWriteRetries   = 3
	defaultDedupeSize     = 100_000
	defaultMinItems       = 5
	defaultMaxItems       = 50
	defaultRefinementSize = 10
	defaultFinalTop       = 3
	defaultMaxTopLimit    = 50
	defaultIdleTimeout    = time.Hour
	defaultSweepInterval  = time.Minute
	defaultShutdownWait   = 10 * time.Second
)

// CreateSessionInput describes a new ranking session.
type CreateSessionInput = types.CreateSessionInput

// DecisionInput is one answer to the active comparison.
type DecisionInput = types.DecisionInput

// Service implements the API dependencies for the values ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions    repository.SessionStore
	decisionLog repository.DecisionLog
	deduper     dedupe.Deduper
	scenarios   scenario.Generator
	queue       *eventqueue.InMemoryQueue
	pool        *workerpool.Pool

	// Configuration
	workerCount        int
	queueSize          int
	writeRetries       int
	dedupeSize         int
	shardCount         int
	minItems           int
	maxItems           int
	defaultStrategy    ranking.Kind
	engineOpts         []ranking.Option
	refinementSize     int
	finalTop           int
	maxTopLimit        int
	idleTimeout        time.Duration
	sweepInterval      time.Duration
	scenarioMinLatency time.Duration
	scenarioMaxLatency time.Duration

	// State
	started     bool
	workerStop  context.CancelFunc
	sweeperStop context.CancelFunc
	sweeperDone chan struct{}
	now         func() time.Time

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        defaultWorkerCount,
		queueSize:          defaultQueueSize,
		writeRetries:       defaultWriteRetries,
		dedupeSize:         defaultDedupeSize,
		minItems:           defaultMinItems,
		maxItems:           defaultMaxItems,
		defaultStrategy:    ranking.KindMerge,
		refinementSize:     defaultRefinementSize,
		finalTop:           defaultFinalTop,
		maxTopLimit:        defaultMaxTopLimit,
		idleTimeout:        defaultIdleTimeout,
		sweepInterval:      defaultSweepInterval,
		scenarioMinLatency: 20 * time.Millisecond,
		scenarioMaxLatency: 60 * time.Millisecond,
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the components that were not injected and starts the
// persistence workers and the idle session sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting values service...")

	// Background loops outlive the caller's cancellation and end in Stop.
	sweepCtx, sweeperStop := context.WithCancel(context.WithoutCancel(ctx))
	s.sweeperStop = sweeperStop

	if s.sessions == nil {
		s.sessions = repository.NewShardedStore(sweepCtx, repository.WithShardCount(s.shardCount))
	}
	if s.decisionLog == nil {
		s.decisionLog = repository.NewMemoryDecisionLog()
		s.logger.Info(ctx, "using in-memory decision log")
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	if s.scenarios == nil {
		s.scenarios = scenario.NewInMemoryGenerator(
			scenario.WithLatencyRange(s.scenarioMinLatency, s.scenarioMaxLatency),
		)
	}

	workerCtx, workerStop := context.WithCancel(context.WithoutCancel(ctx))
	s.workerStop = workerStop
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.decisionLog,
		workerpool.WithRetries(s.writeRetries),
	)
	s.pool.Start(workerCtx)

	s.sweeperDone = make(chan struct{})
	go s.sweepLoop(sweepCtx, s.sweeperDone)

	s.started = true
	s.logger.Info(ctx, "values service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("defaultStrategy", string(s.defaultStrategy)),
	)

	return nil
}

// Stop drains pending decisions into the log and shuts the service down.
// ctx bounds how long draining may take.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping values service...")

	s.sweeperStop()
	<-s.sweeperDone

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultShutdownWait)
		defer cancel()
	}
	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain decisions: %w", err))
	}
	s.workerStop()

	if err := s.decisionLog.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close decision log: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "values service stopped",
		logger.Int("persisted", int(s.pool.Processed())),
		logger.Int("failed", int(s.pool.Failed())),
	)
	return errors.Join(errs...)
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// lookup returns a live session or ErrSessionNotFound.
func (s *Service) lookup(ctx context.Context, id string) (*session.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// CreateSession validates the selected values and starts a ranking session.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (types.SessionView, error) {
	if err := s.ready(); err != nil {
		return types.SessionView{}, err
	}

	kind := s.defaultStrategy
	if in.Strategy != "" {
		k, err := ranking.ParseKind(in.Strategy)
		if err != nil {
			return types.SessionView{}, fmt.Errorf("create session: %w", err)
		}
		kind = k
	}

	switch {
	case len(in.Items) < s.minItems:
		return types.SessionView{}, fmt.Errorf("%w: got %d, need at least %d", ErrTooFewItems, len(in.Items), s.minItems)
	case len(in.Items) > s.maxItems:
		return types.SessionView{}, fmt.Errorf("%w: got %d, allowed at most %d", ErrTooManyItems, len(in.Items), s.maxItems)
	}
	items, err := normalizeItems(in.Items)
	if err != nil {
		return types.SessionView{}, err
	}

	return s.open(ctx, kind, items, session.StageRanking, "", in.TargetComparisons, in.Seed)
}

func normalizeItems(in []types.ItemView) ([]model.Item, error) {
	seen := make(map[string]struct{}, len(in))
	items := make([]model.Item, len(in))
	for i, it := range in {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: item %d has no id", ErrInvalidInput, i)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, it.ID)
		}
		seen[it.ID] = struct{}{}
		name := it.Name
		if name == "" {
			name = it.ID
		}
		items[i] = model.Item{ID: it.ID, Name: name, Definition: it.Definition}
	}
	return items, nil
}

func (s *Service) open(ctx context.Context, kind ranking.Kind, items []model.Item, stage session.Stage, parentID string, target int, seed *int64) (types.SessionView, error) {
	sd := s.now().UnixNano()
	if seed != nil {
		sd = *seed
	}
	opts := append([]ranking.Option{}, s.engineOpts...)
	opts = append(opts, ranking.WithSeed(sd))
	if target > 0 {
		opts = append(opts, ranking.WithTargetComparisons(target))
	}

	engine, err := ranking.New(kind, items, opts...)
	if errors.Is(err, ranking.ErrDuplicateItem) {
		return types.SessionView{}, fmt.Errorf("%w: %w", ErrDuplicateItem, err)
	}
	if err != nil {
		return types.SessionView{}, fmt.Errorf("create session: %w", err)
	}

	sess := session.New(uuid.NewString(), engine,
		session.WithStage(stage),
		session.WithParent(parentID),
		session.WithSeed(sd),
		session.WithClock(s.now),
	)
	if err := s.sessions.Put(ctx, sess); err != nil {
		return types.SessionView{}, fmt.Errorf("store session: %w", err)
	}

	metrics.RecordSessionCreated(string(kind), string(stage))
	s.logger.Info(ctx, "session created",
		logger.String("session_id", sess.ID),
		logger.String("strategy", string(kind)),
		logger.String("stage", string(stage)),
		logger.Int("items", len(items)),
	)
	return s.view(sess), nil
}

func (s *Service) view(sess *session.Session) types.SessionView {
	v := types.SessionView{
		ID:        sess.ID,
		Strategy:  string(sess.Kind),
		Stage:     string(sess.Stage),
		ParentID:  sess.ParentID,
		Seed:      sess.Seed,
		CreatedAt: sess.CreatedAt,
	}
	_ = sess.Do(func(e ranking.Strategy) error {
		v.ItemCount = len(e.Items())
		v.Progress = progressView(e)
		return nil
	})
	return v
}

func progressView(e ranking.Strategy) types.ProgressView {
	p := e.Progress()
	return types.ProgressView{
		Completed: p.Completed,
		Total:     p.Total,
		Percent:   p.Percent(),
		Complete:  e.Complete(),
	}
}

// Session returns a summary of the session.
func (s *Service) Session(ctx context.Context, id string) (types.SessionView, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.SessionView{}, err
	}
	return s.view(sess), nil
}

// NextComparison returns the active comparison. done is true once the
// session needs no more answers. Refinement comparisons carry a dilemma
// scenario; a failing provider leaves it empty.
func (s *Service) NextComparison(ctx context.Context, id string) (types.ComparisonView, bool, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.ComparisonView{}, false, err
	}

	var (
		c  model.Comparison
		ok bool
	)
	_ = sess.Do(func(e ranking.Strategy) error {
		c, ok = e.Next()
		return nil
	})
	if !ok {
		return types.ComparisonView{}, true, nil
	}

	v := types.ComparisonView{
		SessionID: sess.ID,
		Sequence:  c.Sequence,
		Item1:     itemView(c.Item1),
		Item2:     itemView(c.Item2),
	}
	if sess.Stage == session.StageRefinement {
		v.Scenario = s.scenarioFor(ctx, sess.ID, c)
	}
	return v, false, nil
}

func (s *Service) scenarioFor(ctx context.Context, sessionID string, c model.Comparison) string {
	start := time.Now()
	sc, err := s.scenarios.Generate(ctx, scenario.Request{
		SessionID: sessionID,
		Sequence:  c.Sequence,
		Item1:     c.Item1,
		Item2:     c.Item2,
	})
	metrics.RecordScenario(float64(time.Since(start).Milliseconds()), err != nil)
	if err != nil {
		s.logger.Warn(ctx, "scenario generation failed",
			logger.String("session_id", sessionID),
			logger.Int("sequence", c.Sequence),
			logger.Error(err),
		)
		return ""
	}
	return sc.Text
}

func itemView(it model.Item) types.ItemView {
	return types.ItemView{ID: it.ID, Name: it.Name, Definition: it.Definition}
}

// RecordDecision applies an answer. Resubmitting an already recorded
// (session, sequence), or reusing the idempotency key of an applied answer,
// returns the stored decision with Duplicate set.
// Accepted decisions are queued for the decision log; a queue that fills
// after the engine accepted the answer is logged and never rolls it back.
func (s *Service) RecordDecision(ctx context.Context, id string, in DecisionInput) (types.DecisionAck, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.DecisionAck{}, err
	}
	if in.Item1ID == "" || in.Item2ID == "" || in.WinnerID == "" {
		return types.DecisionAck{}, fmt.Errorf("%w: item1_id, item2_id and winner_id are required", ErrInvalidInput)
	}
	if in.Sequence < 0 {
		return types.DecisionAck{}, fmt.Errorf("%w: negative sequence", ErrInvalidInput)
	}

	var (
		ack      types.DecisionAck
		accepted *model.Decision
	)
	err = sess.Do(func(e ranking.Strategy) error {
		recorded := e.Decisions()
		expected := len(recorded) + 1
		seq := in.Sequence
		if seq == 0 {
			seq = expected
		}

		var (
			key      string
			reserved bool
		)
		if in.IdempotencyKey != "" {
			key = dedupe.RequestKey(sess.ID, in.IdempotencyKey)
			prior, seen, derr := s.deduper.Reserve(ctx, key, seq)
			switch {
			case derr != nil:
				metrics.RecordErrorByComponent("dedupe", "reserve")
				s.logger.Warn(ctx, "dedupe unavailable, relying on sequence check",
					logger.String("session_id", sess.ID), logger.Error(derr))
			case seen && prior >= 1 && prior <= len(recorded):
				prev := recorded[prior-1]
				if !sameDecision(prev, in) {
					metrics.RecordDecisionRejected("idempotency_conflict")
					return fmt.Errorf("%w: idempotency key %q already answered sequence %d differently",
						ranking.ErrInvalidDecision, in.IdempotencyKey, prior)
				}
				metrics.RecordDecisionDuplicate()
				ack = types.DecisionAck{Decision: decisionView(prev, time.Time{}), Duplicate: true, Progress: progressView(e)}
				return nil
			case seen:
				// Bound to an answer that never landed; bind it to this one.
				reserved = s.rebind(ctx, key, seq)
			default:
				reserved = true
			}
		}
		release := func() {
			if !reserved {
				return
			}
			if uerr := s.deduper.Unrecord(ctx, key); uerr != nil {
				s.logger.Warn(ctx, "failed to release idempotency key",
					logger.String("key", key), logger.Error(uerr))
			}
		}

		if seq < expected {
			release()
			prev := recorded[seq-1]
			if !sameDecision(prev, in) {
				metrics.RecordDecisionRejected("conflict")
				return fmt.Errorf("%w: sequence %d already decided differently", ranking.ErrInvalidDecision, seq)
			}
			metrics.RecordDecisionDuplicate()
			ack = types.DecisionAck{Decision: decisionView(prev, time.Time{}), Duplicate: true, Progress: progressView(e)}
			return nil
		}
		if seq > expected {
			release()
			metrics.RecordDecisionRejected("sequence")
			return fmt.Errorf("%w: sequence %d is ahead of active comparison %d", ranking.ErrInvalidDecision, seq, expected)
		}
		if !e.Complete() && s.queue.Len() >= s.queue.Cap() {
			release()
			metrics.RecordDecisionRejected("backpressure")
			return ErrBackpressure
		}

		before := e.Progress()
		d, rerr := e.Record(in.Item1ID, in.Item2ID, in.WinnerID)
		if rerr != nil {
			release()
			metrics.RecordDecisionRejected(rejectReason(rerr))
			return rerr
		}
		after := e.Progress()
		metrics.RecordDecision(string(sess.Kind))

		if after.Total > before.Total {
			metrics.RecordTieBreakRound(string(sess.Kind))
			s.logger.Debug(ctx, "tie-break round scheduled",
				logger.String("session_id", sess.ID),
				logger.Int("added", after.Total-before.Total),
			)
		}
		if e.Complete() {
			metrics.RecordSessionCompleted(string(sess.Kind), after.Completed)
			s.logger.Info(ctx, "session complete",
				logger.String("session_id", sess.ID),
				logger.Int("comparisons", after.Completed),
			)
		}

		accepted = &d
		ack = types.DecisionAck{Decision: decisionView(d, s.now()), Progress: progressView(e)}
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "decision rejected",
			logger.String("session_id", sess.ID),
			logger.Int("sequence", in.Sequence),
			logger.Error(err),
		)
		return types.DecisionAck{}, fmt.Errorf("record decision: %w", err)
	}

	if accepted != nil {
		s.enqueue(ctx, model.DecisionEvent{
			SessionID:  sess.ID,
			Strategy:   string(sess.Kind),
			Decision:   *accepted,
			RecordedAt: ack.Decision.RecordedAt,
		})
	}
	return ack, nil
}

func (s *Service) enqueue(ctx context.Context, ev model.DecisionEvent) { //nolint:gocritic // hugeParam: copied into the queue
	if err := s.queue.Enqueue(ctx, ev); err != nil {
		s.logger.Error(ctx, "decision not queued for persistence",
			logger.String("session_id", ev.SessionID),
			logger.Int("sequence", ev.Decision.Sequence),
			logger.Error(err),
		)
	}
}

// rebind moves key to sequence and reports whether it now holds it.
func (s *Service) rebind(ctx context.Context, key string, sequence int) bool {
	if err := s.deduper.Unrecord(ctx, key); err != nil {
		s.logger.Warn(ctx, "failed to release stale idempotency key", logger.String("key", key), logger.Error(err))
		return false
	}
	_, seen, err := s.deduper.Reserve(ctx, key, sequence)
	return err == nil && !seen
}

func sameDecision(d model.Decision, in DecisionInput) bool {
	return model.NewPair(d.Item1ID, d.Item2ID) == model.NewPair(in.Item1ID, in.Item2ID) &&
		d.WinnerID == in.WinnerID
}

func rejectReason(err error) string {
	if errors.Is(err, ranking.ErrNoActiveComparison) {
		return "no_active_comparison"
	}
	return "invalid_decision"
}

func decisionView(d model.Decision, at time.Time) types.DecisionView {
	return types.DecisionView{
		Sequence:   d.Sequence,
		Item1ID:    d.Item1ID,
		Item2ID:    d.Item2ID,
		WinnerID:   d.WinnerID,
		RecordedAt: at,
	}
}

// TopK returns the best k values of the session. k is capped by the
// configured limit; k <= 0 yields an empty list.
func (s *Service) TopK(ctx context.Context, id string, k int) ([]types.Entry, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if k > s.maxTopLimit {
		k = s.maxTopLimit
	}
	var items []model.Item
	_ = sess.Do(func(e ranking.Strategy) error {
		items = e.TopK(k)
		return nil
	})
	return entries(items), nil
}

func entries(items []model.Item) []types.Entry {
	out := make([]types.Entry, len(items))
	for i, it := range items {
		out[i] = types.Entry{
			Rank:       it.Rank,
			ItemID:     it.ID,
			Name:       it.Name,
			Definition: it.Definition,
			Score:      it.Score,
		}
	}
	return out
}

// Progress reports how far the session has come.
func (s *Service) Progress(ctx context.Context, id string) (types.ProgressView, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.ProgressView{}, err
	}
	var p types.ProgressView
	_ = sess.Do(func(e ranking.Strategy) error {
		p = progressView(e)
		return nil
	})
	return p, nil
}

// Decisions returns the in-engine audit log of the session.
func (s *Service) Decisions(ctx context.Context, id string) ([]types.DecisionView, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	var ds []model.Decision
	_ = sess.Do(func(e ranking.Strategy) error {
		ds = e.Decisions()
		return nil
	})
	out := make([]types.DecisionView, len(ds))
	for i, d := range ds {
		out[i] = decisionView(d, time.Time{})
	}
	return out, nil
}

// PersistedDecisions returns what the decision log holds for the session.
// Persistence is asynchronous, so it may trail Decisions.
func (s *Service) PersistedDecisions(ctx context.Context, id string) ([]types.DecisionView, error) {
	if _, err := s.lookup(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.decisionLog.List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	out := make([]types.DecisionView, len(events))
	for i, ev := range events {
		out[i] = decisionView(ev.Decision, ev.RecordedAt)
	}
	return out, nil
}

// StartRefinement opens an exhaustive pairwise session over the leaders of
// a completed ranking session.
func (s *Service) StartRefinement(ctx context.Context, parentID string) (types.SessionView, error) {
	parent, err := s.lookup(ctx, parentID)
	if err != nil {
		return types.SessionView{}, err
	}
	if parent.Stage == session.StageRefinement {
		return types.SessionView{}, fmt.Errorf("%w: session %s is already a refinement", ErrInvalidInput, parentID)
	}

	var (
		leaders  []model.Item
		complete bool
	)
	_ = parent.Do(func(e ranking.Strategy) error {
		complete = e.Complete()
		leaders = e.TopK(s.refinementSize)
		return nil
	})
	if !complete {
		return types.SessionView{}, fmt.Errorf("%w: %s", ErrSessionIncomplete, parentID)
	}

	items := make([]model.Item, len(leaders))
	for i, it := range leaders {
		items[i] = model.Item{ID: it.ID, Name: it.Name, Definition: it.Definition}
	}
	seed := parent.Seed
	return s.open(ctx, ranking.KindPairwise, items, session.StageRefinement, parentID, 0, &seed)
}

// GoverningValues returns the final top values of a completed refinement
// session.
func (s *Service) GoverningValues(ctx context.Context, id string) ([]types.Entry, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Stage != session.StageRefinement {
		return nil, fmt.Errorf("%w: session %s is not a refinement", ErrInvalidInput, id)
	}
	var (
		items    []model.Item
		complete bool
	)
	_ = sess.Do(func(e ranking.Strategy) error {
		complete = e.Complete()
		items = e.TopK(s.finalTop)
		return nil
	})
	if !complete {
		return nil, fmt.Errorf("%w: %s", ErrSessionIncomplete, id)
	}
	return entries(items), nil
}

// DeleteSession drops the session and its persisted decisions.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := s.sessions.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.decisionLog.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete decisions: %w", err)
	}
	metrics.RecordSessionDeleted("client")
	s.logger.Info(ctx, "session deleted", logger.String("session_id", id))
	return nil
}

func (s *Service) sweepLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep removes abandoned sessions. Their decision logs are kept.
func (s *Service) sweep(ctx context.Context) {
	if s.idleTimeout > 0 {
		for _, id := range s.sessions.Sweep(ctx, s.now(), s.idleTimeout) {
			metrics.RecordSessionDeleted("idle")
			s.logger.Info(ctx, "idle session swept", logger.String("session_id", id))
		}
	}
	metrics.UpdateActiveSessions(s.sessions.Count(ctx))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueCapacity":   s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"defaultStrategy": string(s.defaultStrategy),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["activeSessions"] = s.sessions.Count(ctx)
		stats["dedupeKeys"] = s.deduper.Size()
		stats["persisted"] = s.pool.Processed()
		stats["persistFailed"] = s.pool.Failed()
		stats["dependencies"] = s.health(ctx)

		metrics.UpdateActiveSessions(s.sessions.Count(ctx))
		metrics.UpdateWorkerActiveCount(s.pool.Size())
	}

	return stats
}

type pinger interface {
	Ping(ctx context.Context) error
}

// health pings the external components that support it.
func (s *Service) health(ctx context.Context) map[string]string {
	out := make(map[string]string)
	check := func(name string, c any) {
		p, ok := c.(pinger)
		if !ok {
			return
		}
		if err := p.Ping(ctx); err != nil {
			out[name] = err.Error()
			return
		}
		out[name] = "ok"
	}
	check("decision_log", s.decisionLog)
	check("deduper", s.deduper)
	return out
}
