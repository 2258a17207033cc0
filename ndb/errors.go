package ndb

import (
	"errors"
	"fmt"

	"github.com/roach88/ndb/internal/boundary"
	"github.com/roach88/ndb/internal/handle"
)

// ErrorCode categorizes binding errors.
type ErrorCode string

const (
	// CodeOpenFailure indicates the database could not be opened.
	CodeOpenFailure ErrorCode = "OPEN_FAILURE"

	// CodeProcessFailure indicates ingestion failed hard. Records rejected by
	// validation are dropped silently and do not produce this error.
	CodeProcessFailure ErrorCode = "PROCESS_FAILURE"

	// CodeTransactionFailure indicates a transaction could not be opened.
	CodeTransactionFailure ErrorCode = "TRANSACTION_FAILURE"

	// CodeQueryFailure indicates a read failed inside the engine.
	CodeQueryFailure ErrorCode = "QUERY_FAILURE"

	// CodeFilterBuildFailure indicates the engine rejected filter criteria.
	CodeFilterBuildFailure ErrorCode = "FILTER_BUILD_FAILURE"

	// CodeBuilderTerminal indicates use of a filter builder after Build.
	CodeBuilderTerminal ErrorCode = "BUILDER_TERMINAL"

	// CodeSubscriptionFailure indicates a subscribe or poll failed.
	CodeSubscriptionFailure ErrorCode = "SUBSCRIPTION_FAILURE"

	// CodeInvalidArgument indicates an argument was rejected before any
	// engine call was made.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeClosedHandleUse indicates use of a closed resource.
	CodeClosedHandleUse ErrorCode = "CLOSED_HANDLE_USE"

	// CodeNativeFault indicates the engine aborted inside a call. The fault
	// was contained; the *boundary.Fault is available through errors.As.
	CodeNativeFault ErrorCode = "NATIVE_FAULT"
)

// Error is the error type returned by every operation in this package.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the engine operation involved, e.g. "query".
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrOpenFailure         = &Error{Code: CodeOpenFailure}
	ErrProcessFailure      = &Error{Code: CodeProcessFailure}
	ErrTransactionFailure  = &Error{Code: CodeTransactionFailure}
	ErrQueryFailure        = &Error{Code: CodeQueryFailure}
	ErrFilterBuildFailure  = &Error{Code: CodeFilterBuildFailure}
	ErrBuilderTerminal     = &Error{Code: CodeBuilderTerminal}
	ErrSubscriptionFailure = &Error{Code: CodeSubscriptionFailure}
	ErrInvalidArgument     = &Error{Code: CodeInvalidArgument}
	ErrClosedHandleUse     = &Error{Code: CodeClosedHandleUse}
	ErrNativeFault         = &Error{Code: CodeNativeFault}
)

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// IsClosedHandleUse reports whether err is a CLOSED_HANDLE_USE error.
// Uses errors.As to handle wrapped errors.
func IsClosedHandleUse(err error) bool {
	return hasCode(err, CodeClosedHandleUse)
}

// IsInvalidArgument reports whether err is an INVALID_ARGUMENT error.
func IsInvalidArgument(err error) bool {
	return hasCode(err, CodeInvalidArgument)
}

// IsNativeFault reports whether err is a NATIVE_FAULT error.
func IsNativeFault(err error) bool {
	return hasCode(err, CodeNativeFault)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func invalidArgument(op, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Op: op, Message: fmt.Sprintf(format, args...)}
}

func failure(code ErrorCode, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// translate converts errors raised while crossing the boundary. Binding
// errors pass through; contained faults become NATIVE_FAULT; closed guards
// become CLOSED_HANDLE_USE; anything else gets code.
func translate(op string, code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case boundary.IsFault(err):
		return &Error{Code: CodeNativeFault, Op: op, Message: err.Error(), Err: err}
	case errors.Is(err, handle.ErrClosed):
		return &Error{Code: CodeClosedHandleUse, Op: op, Message: err.Error(), Err: err}
	}
	return &Error{Code: code, Op: op, Message: err.Error(), Err: err}
}
