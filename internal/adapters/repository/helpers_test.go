package repository_test

import (
	"fmt"
	"time"

	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/internal/domain/ranking"
	"github.com/okian/valuematrix/internal/domain/session"
)

func newSession(id string, now func() time.Time) *session.Session {
	items := make([]model.Item, 5)
	for i := range items {
		items[i] = model.Item{ID: fmt.Sprintf("v%d", i), Name: fmt.Sprintf("Value %d", i)}
	}
	engine, err := ranking.New(ranking.KindPairwise, items)
	if err != nil {
		panic(err)
	}
	return session.New(id, engine, session.WithClock(now))
}

func event(sessionID string, seq int) model.DecisionEvent {
	return model.DecisionEvent{
		SessionID: sessionID,
		Strategy:  "pairwise",
		Decision: model.Decision{
			Item1ID:  "v0",
			Item2ID:  "v1",
			WinnerID: "v0",
			Sequence: seq,
		},
		RecordedAt: time.Date(2026, 3, 1, 10, 0, seq, 0, time.UTC),
	}
}
