package heap

// InvariantViolation reports a broken heap invariant observed during a
// collection pause. There is no recovery path: a pause that has observed an
// inconsistent heap cannot safely continue, so the violation unwinds the
// whole pause.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return e.Msg
}

// Abort terminates the current pause with a fatal invariant violation.
func Abort(msg string) {
	panic(&InvariantViolation{Msg: msg})
}
