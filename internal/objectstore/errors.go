package objectstore

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify failures. Callers wrap errors with one of
// these via Wrap and branch with errors.Is; the manager maps them onto retry
// versus terminal transitions.
var (
	ErrValidation         = errors.New("validation error")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrTransient          = errors.New("transient failure")
)

// Kind is the stable string classification persisted on failed upload records.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindPermissionDenied   Kind = "permission_denied"
	KindNotFound           Kind = "not_found"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindUnknown            Kind = "unknown"
)

// KindOf maps an error onto its classification. Unclassified errors report
// KindUnknown, which the manager treats as retryable with backoff.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNetworkUnavailable):
		return KindNetworkUnavailable
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether the manager may retry after this failure.
// Validation and permission failures are final; everything else is worth
// another attempt (network loss pauses rather than consuming attempts).
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindPermissionDenied, KindNotFound:
		return false
	default:
		return true
	}
}

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HumanMessage reduces a classified error to the short text surfaced to users.
// Raw transport detail stays in logs.
func HumanMessage(err error) string {
	switch KindOf(err) {
	case KindValidation:
		return "The file was rejected by the upload policy."
	case KindPermissionDenied:
		return "You do not have permission to upload to this destination."
	case KindNotFound:
		return "The upload destination no longer exists."
	case KindNetworkUnavailable:
		return "The network is unavailable. The upload will resume when connectivity returns."
	default:
		return "The upload failed after repeated attempts."
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "object store failure"
	}
	return strings.Join(parts, ": ")
}
