package engine

// RoundLimiter counts completed rounds and reports when the configured
// maximum is reached.
//
// A limit of 0 means unlimited. Reaching the limit is a normal, successful
// end of the run, not an error: the final round is still reported before
// the engine stops.
type RoundLimiter struct {
	max       int // Maximum rounds, 0 for unlimited
	completed int // Rounds completed so far
}

// NewRoundLimiter creates a limiter. Negative limits are treated as 0.
func NewRoundLimiter(max int) *RoundLimiter {
	if max < 0 {
		max = 0
	}
	return &RoundLimiter{max: max}
}

// Complete records one finished round and returns its 1-based number and
// whether the limit has now been reached.
func (l *RoundLimiter) Complete() (round int, reached bool) {
	l.completed++
	return l.completed, l.max > 0 && l.completed >= l.max
}

// Completed returns the number of finished rounds.
func (l *RoundLimiter) Completed() int {
	return l.completed
}

// Max returns the configured limit, 0 when unlimited.
func (l *RoundLimiter) Max() int {
	return l.max
}

// Unlimited reports whether no limit is set.
func (l *RoundLimiter) Unlimited() bool {
	return l.max == 0
}
