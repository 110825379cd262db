package ranking

import (
	"fmt"

	"github.com/okian/valuematrix/internal/domain/model"
)

// Replay feeds a recorded decision log into a fresh strategy. The strategy
// must have been built with the same kind, items and options as the one
// that produced the log.
func Replay(s Strategy, decisions []model.Decision) error {
	for _, d := range decisions {
		if _, ok := s.Next(); !ok {
			return fmt.Errorf("%w: decision %d arrives after completion", ErrReplayMismatch, d.Sequence)
		}
		if _, err := s.Record(d.Item1ID, d.Item2ID, d.WinnerID); err != nil {
			return fmt.Errorf("%w: decision %d: %w", ErrReplayMismatch, d.Sequence, err)
		}
	}
	return nil
}
