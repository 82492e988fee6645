package arr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnection marks a remote application as unreachable. The current
	// phase aborts and the next scheduled cycle is the retry.
	ErrConnection = errors.New("connection error")
	// ErrAuth marks an invalid credential. The instance is quarantined
	// until its configuration changes.
	ErrAuth = errors.New("authentication error")
	// ErrMalformed marks a response body that could not be decoded.
	ErrMalformed = errors.New("malformed response")
	// ErrNotFound marks a missing remote resource, e.g. an unknown command id.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes instance context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, instance, operation, message string, err error) error {
	detail := buildDetail(instance, operation, message)
	if marker == nil {
		marker = ErrConnection
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }

// IsConnection reports whether err is a transport-level failure.
func IsConnection(err error) bool { return errors.Is(err, ErrConnection) }

func buildDetail(instance, operation, message string) string {
	parts := make([]string, 0, 3)
	if instance = strings.TrimSpace(instance); instance != "" {
		parts = append(parts, instance)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "api failure"
	}
	return strings.Join(parts, ": ")
}
