package simulate

import (
	"fmt"
	"math/rand"

	"github.com/okian/valuematrix/internal/domain/types"
)

// truth is a hidden preference order over synthetic values.
type truth struct {
	items []types.ItemView
	rank  map[string]int // 0 is the most important
}

// newTruth builds n values and shuffles them into a hidden order.
func newTruth(n int, seed int64) truth {
	items := make([]types.ItemView, n)
	for i := range items {
		items[i] = types.ItemView{
			ID:   fmt.Sprintf("value-%02d", i),
			Name: fmt.Sprintf("Value %d", i),
		}
	}
	rnd := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation only
	order := rnd.Perm(n)
	rank := make(map[string]int, n)
	for pos, idx := range order {
		rank[items[idx].ID] = pos
	}
	return truth{items: items, rank: rank}
}

// top returns the ids of the k most important values, best first.
func (t truth) top(k int) []string {
	out := make([]string, len(t.items))
	for id, pos := range t.rank {
		out[pos] = id
	}
	return out[:k]
}

// respondent answers comparisons from the truth, flipping with probability noise.
type respondent struct {
	truth truth
	noise float64
	rnd   *rand.Rand
}

func newRespondent(t truth, noise float64, seed int64) *respondent {
	return &respondent{truth: t, noise: noise, rnd: rand.New(rand.NewSource(seed))} //nolint:gosec // simulation only
}

func (r *respondent) choose(a, b string) string {
	better, worse := a, b
	if r.truth.rank[b] < r.truth.rank[a] {
		better, worse = b, a
	}
	if r.noise > 0 && r.rnd.Float64() < r.noise {
		return worse
	}
	return better
}

// overlap counts how many of got appear in want.
func overlap(want, got []string) int {
	set := make(map[string]struct{}, len(want))
	for _, id := range want {
		set[id] = struct{}{}
	}
	n := 0
	for _, id := range got {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n
}
