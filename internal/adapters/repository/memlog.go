package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/pkg/metrics"
)

// MemoryDecisionLog is a DecisionLog kept in process memory.
type MemoryDecisionLog struct {
	mu   sync.RWMutex
	logs map[string]map[int]model.DecisionEvent
}

// NewMemoryDecisionLog creates an empty log.
func NewMemoryDecisionLog() *MemoryDecisionLog {
	return &MemoryDecisionLog{logs: make(map[string]map[int]model.DecisionEvent)}
}

func (l *MemoryDecisionLog) Append(_ context.Context, events ...model.DecisionEvent) error {
	start := time.Now()
	for _, ev := range events {
		if ev.SessionID == "" {
			metrics.RecordDecisionLogWrite(float64(time.Since(start).Milliseconds()), true)
			return ErrMissingData
		}
	}

	l.mu.Lock()
	for _, ev := range events {
		bySeq, ok := l.logs[ev.SessionID]
		if !ok {
			bySeq = make(map[int]model.DecisionEvent)
			l.logs[ev.SessionID] = bySeq
		}
		if _, dup := bySeq[ev.Decision.Sequence]; !dup {
			bySeq[ev.Decision.Sequence] = ev
		}
	}
	l.mu.Unlock()

	metrics.RecordDecisionLogWrite(float64(time.Since(start).Milliseconds()), false)
	return nil
}

func (l *MemoryDecisionLog) List(_ context.Context, sessionID string) ([]model.DecisionEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bySeq := l.logs[sessionID]
	out := make([]model.DecisionEvent, 0, len(bySeq))
	for _, ev := range bySeq {
		out = append(out, ev)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Decision.Sequence < out[b].Decision.Sequence })
	return out, nil
}

func (l *MemoryDecisionLog) Delete(_ context.Context, sessionID string) error {
	l.mu.Lock()
	delete(l.logs, sessionID)
	l.mu.Unlock()
	return nil
}

func (l *MemoryDecisionLog) Close() error { return nil }
