package cachewrapper

import (
	"errors"
	"fmt"
)

// Stable error taxonomy. Store errors never cross the Wrapper boundary; they
// are logged and replaced by one of these.
var (
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrPolicyNotFound   = errors.New("policy not found for segment")
	ErrOperationFailed  = errors.New("operation failed")
	ErrScanFailed       = errors.New("scan failed")
	ErrReconnectFailed  = errors.New("reconnect failed")
	ErrConnectFailed    = errors.New("connect failed")
	ErrNotInitialised   = errors.New("cache not initialised")
)

// Op names an operation kind.
type Op string

const (
	OpStash    Op = "stash"
	OpRetrieve Op = "retrieve"
	OpDrop     Op = "drop"
	OpScan     Op = "scan"
	OpDelete   Op = "delete"
	OpConnect  Op = "connect"
)

// OpError is returned by every Wrapper operation. Err is one of the sentinel
// errors above; errors.Is works against it.
type OpError struct {
	Op      Op
	Segment string
	Key     string // user key, or prefix for scans
	Err     error

	ctxErr error // caller context error, if that is what ended the call
}

func (e *OpError) Error() string {
	switch {
	case e.Segment == "" && e.Key == "":
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	case e.ctxErr != nil:
		return fmt.Sprintf("%s failed: segment %q key %q: %v: %v", e.Op, e.Segment, e.Key, e.Err, e.ctxErr)
	default:
		return fmt.Sprintf("%s failed: segment %q key %q: %v", e.Op, e.Segment, e.Key, e.Err)
	}
}

func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.ctxErr != nil {
		errs = append(errs, e.ctxErr)
	}
	return errs
}
