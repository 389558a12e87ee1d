package audit

// Outcome is the result of a best-effort step. A degraded outcome still
// carries the best value that could be produced (a fallback identity, a nil
// backup) together with the reason the preferred value is missing.
type Outcome[T any] struct {
	value    T
	reason   string
	degraded bool
}

func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

func Degraded[T any](fallback T, reason string) Outcome[T] {
	return Outcome[T]{value: fallback, reason: reason, degraded: true}
}

func (o Outcome[T]) Value() T { return o.value }

func (o Outcome[T]) IsDegraded() bool { return o.degraded }

// Reason is empty for Ok outcomes.
func (o Outcome[T]) Reason() string { return o.reason }
