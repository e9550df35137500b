package loader

// Error describes a loader error. All loader errors are defined as global
// variables that are pointers to the Error structure so that fatal paths can
// compare them by identity before the system halts.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
