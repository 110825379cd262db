package ranking

import "github.com/okian/valuematrix/internal/domain/model"

// tieBreaker extends a finished merge schedule with extra questions when
// items straddling the top-K boundary have equal scores.
type tieBreaker struct {
	cutoff    int
	maxRounds int
	rounds    int
	asked     map[model.Pair]struct{}
	done      bool
}

func newTieBreaker(o options) tieBreaker {
	return tieBreaker{
		cutoff:    o.tieBreakCutoff,
		maxRounds: o.maxTieBreakRounds,
		asked:     make(map[model.Pair]struct{}),
	}
}

// round returns the next batch of pairs, or nil when the ranking is final.
// The first round asks every pair of the tied group in input order; later
// rounds only ask pairs no earlier round has asked.
func (t *tieBreaker) round(r *roster) []pair {
	n := len(r.items)
	if t.done || t.cutoff <= 0 || n <= t.cutoff || t.rounds >= t.maxRounds {
		t.done = true
		return nil
	}
	order := r.order()
	boundary := r.scores[order[t.cutoff-1]]
	if r.scores[order[t.cutoff]] != boundary {
		t.done = true
		return nil
	}

	var tied []int
	for k := range r.items {
		if r.scores[k] == boundary {
			tied = append(tied, k)
		}
	}

	var fresh []pair
	for a := 0; a < len(tied); a++ {
		for b := a + 1; b < len(tied); b++ {
			key := model.NewPair(r.items[tied[a]].ID, r.items[tied[b]].ID)
			if _, seen := t.asked[key]; seen {
				continue
			}
			t.asked[key] = struct{}{}
			fresh = append(fresh, pair{tied[a], tied[b]})
		}
	}
	if len(fresh) == 0 {
		t.done = true
		return nil
	}
	t.rounds++
	return fresh
}
