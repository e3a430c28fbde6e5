package engine

// Timer is a pure countdown state machine. A limit of zero minutes makes the
// timer inert: it never expires and Remaining reports zero. The expired state
// is terminal; once reached, further ticks are no-ops.
//
// The Timer itself carries no wall clock and no cancellation. The Controller
// drives Tick once per second and tags its ticker goroutine with the session
// epoch so a stale ticker from a replaced session can never expire a new one.
type Timer struct {
	limitMinutes int
	remaining    int
	expired      bool
}

// NewTimer starts a countdown from limitMinutes*60 seconds.
func NewTimer(limitMinutes int) *Timer {
	t := &Timer{limitMinutes: limitMinutes}
	if limitMinutes > 0 {
		t.remaining = limitMinutes * 60
	}
	return t
}

// Unlimited reports whether the timer was created without a limit.
func (t *Timer) Unlimited() bool {
	return t.limitMinutes <= 0
}

// Expired reports whether the countdown has reached zero.
func (t *Timer) Expired() bool {
	return t.expired
}

// LimitMinutes returns the original limit the timer was started with.
func (t *Timer) LimitMinutes() int {
	return t.limitMinutes
}

// Tick consumes one second and reports true exactly once, on the tick that
// crosses zero. The remaining time never goes negative.
func (t *Timer) Tick() bool {
	if t.Unlimited() || t.expired {
		return false
	}
	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.expired = true
		return true
	}
	return false
}

// Remaining returns the countdown as floor-divided minutes and seconds.
func (t *Timer) Remaining() (minutes, seconds int) {
	return t.remaining / 60, t.remaining % 60
}
