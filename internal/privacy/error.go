package privacy

// SanitizedError reports a scrubbed message while keeping the original
// error reachable through Unwrap for errors.Is and errors.As.
type SanitizedError struct {
	err error
	msg string
}

func (e *SanitizedError) Error() string { return e.msg }

func (e *SanitizedError) Unwrap() error { return e.err }

// WrapError scrubs URLs, hosts and DSN credentials from err's message. It
// returns nil for a nil err.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &SanitizedError{err: err, msg: ScrubMessage(err.Error())}
}
