package ranking

// Default engine configuration constants.
const (
	defaultMaxTarget         = 150
	defaultSeed              = 42
	defaultRandomAttempts    = 100
	defaultTopAttempts       = 50
	defaultTopPoolSize       = 15
	defaultKFactor           = 32
	defaultInitialRating     = 1000
	defaultTieBreakCutoff    = 10
	defaultMaxTieBreakRounds = 5
)

// options holds the tunables shared by all strategies. Each strategy reads
// only the fields that apply to it.
type options struct {
	target            int
	maxTarget         int
	seed              int64
	randomAttempts    int
	topAttempts       int
	topPoolSize       int
	kFactor           float64
	initialRating     float64
	tieBreakCutoff    int
	maxTieBreakRounds int
}

func defaultOptions() options {
	return options{
		maxTarget:         defaultMaxTarget,
		seed:              defaultSeed,
		randomAttempts:    defaultRandomAttempts,
		topAttempts:       defaultTopAttempts,
		topPoolSize:       defaultTopPoolSize,
		kFactor:           defaultKFactor,
		initialRating:     defaultInitialRating,
		tieBreakCutoff:    defaultTieBreakCutoff,
		maxTieBreakRounds: defaultMaxTieBreakRounds,
	}
}

// Option applies a configuration option to a strategy.
type Option func(*options)

// WithTargetComparisons overrides the Elo comparison budget formula.
// The override is still capped by WithMaxTargetComparisons.
func WithTargetComparisons(target int) Option {
	return func(o *options) {
		if target > 0 {
			o.target = target
		}
	}
}

// WithMaxTargetComparisons sets the application cap on the Elo budget.
func WithMaxTargetComparisons(maxTarget int) Option {
	return func(o *options) {
		if maxTarget > 0 {
			o.maxTarget = maxTarget
		}
	}
}

// WithSeed seeds pair sampling so sessions can be reproduced.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithRandomAttempts sets how many draws the random phase makes before
// falling back to the pinned first pair.
func WithRandomAttempts(attempts int) Option {
	return func(o *options) {
		if attempts > 0 {
			o.randomAttempts = attempts
		}
	}
}

// WithTopAttempts sets how many draws the top phase makes before falling
// back to the two highest rated items.
func WithTopAttempts(attempts int) Option {
	return func(o *options) {
		if attempts > 0 {
			o.topAttempts = attempts
		}
	}
}

// WithTopPoolSize sets how many leading items the top phase samples from.
func WithTopPoolSize(size int) Option {
	return func(o *options) {
		if size >= 2 {
			o.topPoolSize = size
		}
	}
}

// WithKFactor sets the Elo K factor.
func WithKFactor(k float64) Option {
	return func(o *options) {
		if k > 0 {
			o.kFactor = k
		}
	}
}

// WithInitialRating sets the starting Elo rating.
func WithInitialRating(rating float64) Option {
	return func(o *options) {
		o.initialRating = rating
	}
}

// WithTieBreakCutoff sets the rank boundary checked for ties by the merge
// strategies. Zero disables tie-breaking.
func WithTieBreakCutoff(cutoff int) Option {
	return func(o *options) {
		if cutoff >= 0 {
			o.tieBreakCutoff = cutoff
		}
	}
}

// WithMaxTieBreakRounds caps the number of tie-break rounds.
func WithMaxTieBreakRounds(rounds int) Option {
	return func(o *options) {
		if rounds >= 0 {
			o.maxTieBreakRounds = rounds
		}
	}
}
