package ranking

import (
	"math"
	"math/rand"

	"github.com/okian/valuematrix/internal/domain/model"
)

// elo runs a fixed budget of comparisons. The first half samples random
// unseen pairs to spread ratings; the second half samples within the top
// rated pool to sharpen the leaders.
type elo struct {
	roster
	o      options
	target int
	rng    *rand.Rand
	asked  map[model.Pair]struct{}
}

func newElo(items []model.Item, o options) (*elo, error) {
	r, err := newRoster(items, o.initialRating)
	if err != nil {
		return nil, err
	}
	return &elo{
		roster: r,
		o:      o,
		target: eloTarget(len(items), o),
		rng:    rand.New(rand.NewSource(o.seed)),
		asked:  make(map[model.Pair]struct{}),
	}, nil
}

// eloTarget is min(3n, floor(n(n-1)/4)) unless overridden, capped by the
// configured maximum.
func eloTarget(n int, o options) int {
	if n < 2 {
		return 0
	}
	t := o.target
	if t == 0 {
		t = min(3*n, n*(n-1)/4)
	}
	return min(t, o.maxTarget)
}

// expectedScore is the Elo win expectation of a rating ra against rb.
func expectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

func (s *elo) Kind() Kind { return KindElo }

func (s *elo) Next() (model.Comparison, bool) {
	if s.Complete() {
		return model.Comparison{}, false
	}
	if s.pending != nil {
		return s.comparison(*s.pending), true
	}
	if 2*len(s.decisions) < s.target {
		return s.offer(s.randomPair()), true
	}
	return s.offer(s.topPair()), true
}

// randomPair draws unseen pairs from all items. The fallback pair is not
// remembered, so it can repeat.
func (s *elo) randomPair() pair {
	all := make([]int, len(s.items))
	for k := range all {
		all[k] = k
	}
	if p, ok := s.draw(all, s.o.randomAttempts); ok {
		return p
	}
	return pair{0, 1}
}

// topPair draws unseen pairs from the highest rated pool, falling back to
// the two leaders.
func (s *elo) topPair() pair {
	pool := s.order()
	if len(pool) > s.o.topPoolSize {
		pool = pool[:s.o.topPoolSize]
	}
	if p, ok := s.draw(pool, s.o.topAttempts); ok {
		return p
	}
	return pair{pool[0], pool[1]}
}

func (s *elo) draw(pool []int, attempts int) (pair, bool) {
	for a := 0; a < attempts; a++ {
		x := s.rng.Intn(len(pool))
		y := s.rng.Intn(len(pool))
		for y == x {
			y = s.rng.Intn(len(pool))
		}
		p := pair{pool[x], pool[y]}
		key := model.NewPair(s.items[p.i].ID, s.items[p.j].ID)
		if _, seen := s.asked[key]; seen {
			continue
		}
		s.asked[key] = struct{}{}
		return p, true
	}
	return pair{}, false
}

func (s *elo) Record(item1ID, item2ID, winnerID string) (model.Decision, error) {
	p, winner, err := s.accept(item1ID, item2ID, winnerID)
	if err != nil {
		return model.Decision{}, err
	}
	r1, r2 := s.scores[p.i], s.scores[p.j]
	e1 := expectedScore(r1, r2)
	e2 := 1 - e1
	var a1, a2 float64
	if winner == p.i {
		a1 = 1
	} else {
		a2 = 1
	}
	s.scores[p.i] = math.Round(r1 + s.o.kFactor*(a1-e1))
	s.scores[p.j] = math.Round(r2 + s.o.kFactor*(a2-e2))
	return s.commit(p, winner), nil
}

func (s *elo) Complete() bool { return len(s.decisions) >= s.target }

func (s *elo) Progress() model.Progress {
	return model.Progress{Completed: len(s.decisions), Total: s.target}
}
