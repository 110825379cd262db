// Package model contains domain models passed between layers.
package model

// Item is a candidate value being ranked. Identity is ID; Name and Definition
// are descriptive and never take part in comparison logic.
type Item struct {
	ID         string  // opaque unique identifier
	Name       string  // display label, may collide across items
	Definition string  // optional user definition, empty when unset
	Score      float64 // win tally or rating depending on strategy
	Rank       int     // 1-based position, zero until ranked
}

// Same reports whether two items share an identity.
func (i Item) Same(other Item) bool {
	return i.ID == other.ID
}

// Progress reports how many comparisons were answered out of the current total.
type Progress struct {
	Completed int
	Total     int
}

// Percent returns completion in the 0-100 range.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	pct := float64(p.Completed) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
