package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/okian/valuematrix/internal/domain/session"
	"github.com/okian/valuematrix/pkg/metrics"
)

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// ShardedStore is an in-memory SessionStore split into independently locked
// shards.
type ShardedStore struct {
	shards          []*shard
	shardCount      int
	metricsInterval time.Duration
}

// NewShardedStore creates a store and, when ctx is non-nil, starts a loop that
// refreshes the active session gauge until ctx is done.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:      defaultShardCount,
		metricsInterval: defaultMetricsInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*session.Session)}
	}
	if ctx != nil {
		go s.metricsLoop(ctx)
	}
	return s
}

func (s *ShardedStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *ShardedStore) Put(_ context.Context, sess *session.Session) error {
	sh := s.shardFor(sess.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.sessions[sess.ID]; ok {
		return ErrExists
	}
	sh.sessions[sess.ID] = sess
	return nil
}

func (s *ShardedStore) Get(_ context.Context, id string) (*session.Session, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	sess, ok := sh.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *ShardedStore) Delete(_ context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(sh.sessions, id)
	return nil
}

func (s *ShardedStore) Sweep(_ context.Context, now time.Time, maxIdle time.Duration) []string {
	var removed []string
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if sess.IdleFor(now) > maxIdle {
				delete(sh.sessions, id)
				removed = append(removed, id)
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (s *ShardedStore) Count(_ context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

func (s *ShardedStore) metricsLoop(ctx context.Context) {
	ticker := time.NewTicker(s.metricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateActiveSessions(s.Count(ctx))
		}
	}
}
