package youtube

import (
	"errors"
	"fmt"
	"net"
)

// ErrQuotaExceeded signals that the credential used for the request has no
// remaining call budget. The caller rotates credentials and retries the
// same unit of work.
var ErrQuotaExceeded = errors.New("API quota exceeded for credential")

// StatusError is a non-200 response that is neither a quota signal nor a
// malformed payload.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API request failed with status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("API request failed with status %d", e.Code)
}

// IsTransient reports whether an error is worth retrying with backoff:
// network-level failures and server-side or rate-limit statuses.
func IsTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
