package remote

import "fmt"

// Error is a typed remote API error carrying the HTTP status and the message
// parsed from the error body.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote error (status %d): %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	remoteErr, ok := err.(*Error)
	return ok && remoteErr.Status == 404
}
