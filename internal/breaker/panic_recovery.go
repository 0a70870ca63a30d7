package breaker

import (
	"time"

	"go.uber.org/zap"
)

// snapshotObservers copies the observer slice under its own lock so
// notification can iterate without holding observersMu (and, critically,
// without ever holding b.mu) for the duration of arbitrary user code.
func (b *Breaker) snapshotObservers() []Observer {
	b.observersMu.Lock()
	defer b.observersMu.Unlock()
	if len(b.observers) == 0 {
		return nil
	}
	out := make([]Observer, len(b.observers))
	copy(out, b.observers)
	return out
}

// safeNotify calls fn and recovers any panic it raises, logging it
// instead of letting it escape. An observer is third-party code from the
// breaker's point of view; one bad implementation must never take down
// the caller driving the breaker, and must never be allowed to panic
// while any internal lock is held — safeNotify is always called after
// snapshotObservers, with no lock held at all.
func (b *Breaker) safeNotify(method string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("circuit breaker observer panicked",
				zap.String("breaker", b.name),
				zap.String("method", method),
				zap.Any("recovered", r),
			)
		}
	}()
	fn()
}

func (b *Breaker) notifyStateChange(event TransitionEvent) {
	b.logger.Info("circuit breaker state change",
		zap.String("breaker", b.name),
		zap.String("from", event.From.String()),
		zap.String("to", event.To.String()),
		zap.String("reason", event.Reason),
	)
	for _, o := range b.snapshotObservers() {
		o := o
		b.safeNotify("OnStateChange", func() { o.OnStateChange(b.name, event) })
	}
}

func (b *Breaker) notifyOperationAttempt(state State) {
	for _, o := range b.snapshotObservers() {
		o := o
		b.safeNotify("OnOperationAttempt", func() { o.OnOperationAttempt(b.name, state) })
	}
}

func (b *Breaker) notifyOperationResult(kind OutcomeKind, duration time.Duration, err error) {
	for _, o := range b.snapshotObservers() {
		o := o
		b.safeNotify("OnOperationResult", func() { o.OnOperationResult(b.name, kind, duration, err) })
	}
}

func (b *Breaker) notifyReset() {
	for _, o := range b.snapshotObservers() {
		o := o
		b.safeNotify("OnReset", func() { o.OnReset(b.name) })
	}
}
