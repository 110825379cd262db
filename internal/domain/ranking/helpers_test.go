package ranking_test

import (
	"fmt"
	"strconv"

	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/internal/domain/ranking"
)

func makeItems(n int) []model.Item {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:         fmt.Sprintf("v%02d", i),
			Name:       fmt.Sprintf("Value %d", i),
			Definition: "test value",
		}
	}
	return items
}

func index(id string) int {
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		panic(err)
	}
	return n
}

func ids(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// drive answers every comparison with pick until the strategy completes and
// returns the comparisons in the order they were asked.
func drive(s ranking.Strategy, pick func(model.Comparison) string) []model.Comparison {
	var asked []model.Comparison
	for guard := 0; guard < 100000; guard++ {
		c, ok := s.Next()
		if !ok {
			return asked
		}
		asked = append(asked, c)
		if _, err := s.Record(c.Item1.ID, c.Item2.ID, pick(c)); err != nil {
			panic(err)
		}
	}
	panic("strategy did not complete")
}

func firstWins(c model.Comparison) string { return c.Item1.ID }

// evenWins prefers even indexes and breaks same-parity pairs for item1.
func evenWins(c model.Comparison) string {
	a, b := index(c.Item1.ID), index(c.Item2.ID)
	if a%2 != b%2 && b%2 == 0 {
		return c.Item2.ID
	}
	return c.Item1.ID
}
