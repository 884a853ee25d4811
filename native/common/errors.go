package common

import "errors"

// Error kinds. Package-specific sentinels wrap exactly one of these so callers
// can match either the precise failure or its class with errors.Is.
var (
	ErrPreconditionViolation = errors.New("precondition violation")
	ErrRangeViolation        = errors.New("range violation")
	ErrStateConflict         = errors.New("state conflict")
	ErrResourceUnavailable   = errors.New("resource unavailable")
)

// Kind names reported by KindOf.
const (
	KindPrecondition = "precondition_violation"
	KindRange        = "range_violation"
	KindConflict     = "state_conflict"
	KindResource     = "resource_unavailable"
	KindUnknown      = "unknown"
)

// KindOf classifies err into one of the error kinds.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPreconditionViolation):
		return KindPrecondition
	case errors.Is(err, ErrRangeViolation):
		return KindRange
	case errors.Is(err, ErrStateConflict):
		return KindConflict
	case errors.Is(err, ErrResourceUnavailable):
		return KindResource
	default:
		return KindUnknown
	}
}
