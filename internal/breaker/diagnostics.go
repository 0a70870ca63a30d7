package breaker

import "time"

// Diagnostics composes a Metrics snapshot with two predictive fields a
// dashboard or alert rule can act on before the breaker actually trips:
// whether the very next counted failure would open it, and — while
// Open — how much longer until a HalfOpen probe is allowed through.
func (b *Breaker) Diagnostics() Diagnostics {
	b.mu.RLock()
	defer b.mu.RUnlock()

	d := Diagnostics{
		Metrics:               b.inner.metrics,
		Config:                b.config,
		WillTripOnNextFailure: b.wouldTripOnNextFailureLocked(),
	}

	if b.inner.state == StateOpen && b.inner.openedAt != nil {
		remaining := b.config.ResetTimeout - time.Since(*b.inner.openedAt)
		if remaining < 0 {
			remaining = 0
		}
		d.TimeUntilHalfOpen = remaining
	}

	return d
}
