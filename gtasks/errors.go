package gtasks

import "fmt"

// AuthError signals a missing or rejected credential. It is never retried;
// the session layer is expected to log the user out.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}

// RemoteError is any other non-2xx outcome from the remote store.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote store error: status %d", e.Status)
	}
	return fmt.Sprintf("remote store error: status %d: %s", e.Status, e.Message)
}
