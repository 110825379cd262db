// Package types contains the shapes exchanged with API callers.
package types

import "time"

// Entry is one ranked value.
type Entry struct {
	Rank       int     `json:"rank"`
	ItemID     string  `json:"item_id"`
	Name       string  `json:"name"`
	Definition string  `json:"definition,omitempty"`
	Score      float64 `json:"score"`
}

// ItemView is a value as shown inside a comparison.
type ItemView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
}

// ProgressView reports how far a session has come.
type ProgressView struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	Complete  bool    `json:"complete"`
}

// SessionView summarises a session.
type SessionView struct {
	ID        string       `json:"id"`
	Strategy  string       `json:"strategy"`
	Stage     string       `json:"stage"`
	ParentID  string       `json:"parent_id,omitempty"`
	Seed      int64        `json:"seed"`
	ItemCount int          `json:"item_count"`
	Progress  ProgressView `json:"progress"`
	CreatedAt time.Time    `json:"created_at"`
}

// ComparisonView is the question to present next.
type ComparisonView struct {
	SessionID string   `json:"session_id"`
	Sequence  int      `json:"sequence"`
	Item1     ItemView `json:"item1"`
	Item2     ItemView `json:"item2"`
	Scenario  string   `json:"scenario,omitempty"`
}

// DecisionView is one recorded answer.
type DecisionView struct {
	Sequence   int       `json:"sequence"`
	Item1ID    string    `json:"item1_id"`
	Item2ID    string    `json:"item2_id"`
	WinnerID   string    `json:"winner_id"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// DecisionAck acknowledges a submitted answer.
type DecisionAck struct {
	Decision  DecisionView `json:"decision"`
	Duplicate bool         `json:"duplicate"`
	Progress  ProgressView `json:"progress"`
}

// CreateSessionInput is the request to start ranking a set of values.
type CreateSessionInput struct {
	// Strategy names the ranking strategy. Empty selects the default.
	Strategy string     `json:"strategy,omitempty"`
	Items    []ItemView `json:"items"`
	// TargetComparisons overrides the Elo budget when positive.
	TargetComparisons int `json:"target_comparisons,omitempty"`
	// Seed fixes the strategy random source. Nil picks one from the clock.
	Seed *int64 `json:"seed,omitempty"`
}

// DecisionInput is one answer to the active comparison.
type DecisionInput struct {
	Item1ID  string `json:"item1_id"`
	Item2ID  string `json:"item2_id"`
	WinnerID string `json:"winner_id"`
	// Sequence is the comparison number being answered. Zero means the
	// active one.
	Sequence int `json:"sequence,omitempty"`
	// IdempotencyKey makes a retried submission return the first answer's
	// ack instead of being applied to a later comparison.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}
