package ranking

import (
	"fmt"
	"sort"

	"github.com/okian/valuematrix/internal/domain/model"
)

// pair is a comparison expressed as input indexes.
type pair struct {
	i, j int
}

// roster holds the items of a session in input order together with their
// running scores, the outstanding comparison, and the decision log.
type roster struct {
	items     []model.Item
	index     map[string]int
	scores    []float64
	decisions []model.Decision
	pending   *pair
}

func newRoster(items []model.Item, initial float64) (roster, error) {
	r := roster{
		items:  make([]model.Item, len(items)),
		index:  make(map[string]int, len(items)),
		scores: make([]float64, len(items)),
	}
	for k, it := range items {
		if _, dup := r.index[it.ID]; dup {
			return roster{}, fmt.Errorf("%w: %q", ErrDuplicateItem, it.ID)
		}
		it.Score = initial
		it.Rank = 0
		r.items[k] = it
		r.index[it.ID] = k
		r.scores[k] = initial
	}
	return r, nil
}

// comparison renders p with current scores and the sequence it will take.
func (r *roster) comparison(p pair) model.Comparison {
	a, b := r.items[p.i], r.items[p.j]
	a.Score, b.Score = r.scores[p.i], r.scores[p.j]
	return model.Comparison{Item1: a, Item2: b, Sequence: len(r.decisions) + 1}
}

// offer makes p the active comparison.
func (r *roster) offer(p pair) model.Comparison {
	r.pending = &p
	return r.comparison(p)
}

// accept validates a decision against the active comparison without
// mutating state. It returns the active pair and the winner's index.
func (r *roster) accept(item1ID, item2ID, winnerID string) (pair, int, error) {
	if r.pending == nil {
		return pair{}, 0, ErrNoActiveComparison
	}
	a, ok1 := r.index[item1ID]
	b, ok2 := r.index[item2ID]
	if !ok1 || !ok2 {
		return pair{}, 0, fmt.Errorf("%w: unknown item in pair (%q, %q)", ErrInvalidDecision, item1ID, item2ID)
	}
	if winnerID != item1ID && winnerID != item2ID {
		return pair{}, 0, fmt.Errorf("%w: winner %q is not part of the pair", ErrInvalidDecision, winnerID)
	}
	p := *r.pending
	if !(a == p.i && b == p.j) && !(a == p.j && b == p.i) {
		return pair{}, 0, fmt.Errorf("%w: pair (%q, %q) is not the active comparison", ErrInvalidDecision, item1ID, item2ID)
	}
	return p, r.index[winnerID], nil
}

// commit appends the decision for p in presentation order and clears the
// active comparison.
func (r *roster) commit(p pair, winner int) model.Decision {
	d := model.Decision{
		Item1ID:  r.items[p.i].ID,
		Item2ID:  r.items[p.j].ID,
		WinnerID: r.items[winner].ID,
		Sequence: len(r.decisions) + 1,
	}
	r.decisions = append(r.decisions, d)
	r.pending = nil
	return d
}

// order returns input indexes sorted by score descending. Equal scores keep
// input order.
func (r *roster) order() []int {
	idx := make([]int, len(r.items))
	for k := range idx {
		idx[k] = k
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return r.scores[idx[a]] > r.scores[idx[b]]
	})
	return idx
}

// TopK returns copies of the k best items with Score and a 1-based Rank.
func (r *roster) TopK(k int) []model.Item {
	if k <= 0 {
		return []model.Item{}
	}
	if k > len(r.items) {
		k = len(r.items)
	}
	order := r.order()
	out := make([]model.Item, 0, k)
	for rank, idx := range order[:k] {
		it := r.items[idx]
		it.Score = r.scores[idx]
		it.Rank = rank + 1
		out = append(out, it)
	}
	return out
}

// Decisions returns a copy of the decision log in recording order.
func (r *roster) Decisions() []model.Decision {
	out := make([]model.Decision, len(r.decisions))
	copy(out, r.decisions)
	return out
}

// Items returns the session items in input order with current scores.
func (r *roster) Items() []model.Item {
	out := make([]model.Item, len(r.items))
	for k, it := range r.items {
		it.Score = r.scores[k]
		out[k] = it
	}
	return out
}
