package ntfy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// StatusError reports a non-2xx response from the ntfy server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ntfy returned %d", e.Code)
	}
	return fmt.Sprintf("ntfy returned %d: %s", e.Code, e.Body)
}

// IsRetryable reports whether a send failure is worth retrying. Network
// errors, timeouts, and server-side failures are transient; client errors
// other than 408 and 429 mean the request itself is bad and will not
// improve on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code >= 500:
			return true
		case statusErr.Code == http.StatusTooManyRequests:
			return true
		case statusErr.Code == http.StatusRequestTimeout:
			return true
		default:
			return false
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// URL and transport errors wrap the underlying cause; anything that is
	// not a definitive HTTP rejection is assumed transient.
	return true
}
