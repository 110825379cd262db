package model

import "time"

// Comparison is a pending question for the respondent.
type Comparison struct {
	Item1    Item
	Item2    Item
	Sequence int // 1-based position in the session
}

// Pair returns the unordered identity of the compared items.
func (c Comparison) Pair() Pair {
	return NewPair(c.Item1.ID, c.Item2.ID)
}

// Decision is the outcome of one comparison. WinnerID is always one of the
// two compared ids.
type Decision struct {
	Item1ID  string
	Item2ID  string
	WinnerID string
	Sequence int
}

// LoserID returns the id of the item that did not win.
func (d Decision) LoserID() string {
	if d.WinnerID == d.Item1ID {
		return d.Item2ID
	}
	return d.Item1ID
}

// DecisionEvent carries an accepted decision to durable storage.
type DecisionEvent struct {
	SessionID  string
	Strategy   string
	Decision   Decision
	RecordedAt time.Time
}

// Pair is an unordered pair of item ids, normalised so A <= B.
type Pair struct {
	A string
	B string
}

// NewPair builds a normalised pair.
func NewPair(id1, id2 string) Pair {
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return Pair{A: id1, B: id2}
}

// Has reports whether id is one side of the pair.
func (p Pair) Has(id string) bool {
	return p.A == id || p.B == id
}
