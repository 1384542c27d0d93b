package viewmodel

// ValidationError is a form input rejected before any backend call.
type ValidationError struct {
	// Field is the offending input, empty when the error concerns the
	// form as a whole.
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
