package replication

import "fmt"

// Status is the signed result code every World API returns. Zero is
// success; positive values carry a soft warning or an accumulated count
// (shortfall, residual); negative values enumerate an error kind.
type Status int32

const (
	// OK means the call completed with nothing left to report.
	OK Status = 0

	// Identity errors.
	ErrInvalidWorld    Status = -1
	ErrInvalidOwner    Status = -2
	ErrInvalidChunk    Status = -3
	ErrInvalidEntity   Status = -4
	ErrEntityForeign   Status = -5
	ErrInvalidEvent    Status = -6
	ErrNullReference   Status = -7

	// State errors.
	ErrEntityUntracked      Status = -8
	ErrEntityAlreadyTracked Status = -9
	ErrVisibilityIgnored    Status = -10

	// Protocol errors.
	ErrWriteReject Status = -11
	ErrReadInvalid Status = -12

	// Soft warnings: the call still succeeded.
	WarnHandlerReplaced Status = 1
	WarnHandlerEmpty    Status = 2
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case ErrInvalidWorld:
		return "invalid world"
	case ErrInvalidOwner:
		return "invalid owner"
	case ErrInvalidChunk:
		return "invalid chunk"
	case ErrInvalidEntity:
		return "invalid entity"
	case ErrEntityForeign:
		return "entity is foreign"
	case ErrInvalidEvent:
		return "invalid event kind"
	case ErrNullReference:
		return "null reference"
	case ErrEntityUntracked:
		return "entity untracked"
	case ErrEntityAlreadyTracked:
		return "entity already tracked"
	case ErrVisibilityIgnored:
		return "visibility setting ignored"
	case ErrWriteReject:
		return "write rejected by callback"
	case ErrReadInvalid:
		return "invalid read framing"
	case WarnHandlerReplaced:
		return "handler replaced"
	case WarnHandlerEmpty:
		return "handler was empty"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Err adapts a negative Status to the error interface; OK and positive
// (warning) statuses return nil, matching the donor's sentinel-error
// style of returning nil for anything that isn't a true failure.
func (s Status) Err() error {
	if s >= 0 {
		return nil
	}
	return statusError{s}
}

// IsError reports whether s is a negative (failure) status code.
func (s Status) IsError() bool { return s < 0 }

type statusError struct{ s Status }

func (e statusError) Error() string { return e.s.String() }
