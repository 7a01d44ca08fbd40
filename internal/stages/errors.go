package stages

// PreconditionError marks a missing required input or session key. Handlers
// surface it as a 400-class response; no side effects were attempted.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

func precondition(reason string) error {
	return &PreconditionError{Reason: reason}
}
