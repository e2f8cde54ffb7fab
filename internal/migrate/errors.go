package migrate

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/servlist-migrate/internal/model"
)

// Kind classifies terminal migration failures.
type Kind int

const (
	KindUnknown Kind = iota
	// PreconditionFailure: the destination account file already exists.
	PreconditionFailure
	// InputReadFailure: the legacy file is missing, unreadable or not text.
	InputReadFailure
	// OutputWriteFailure: writing accounts.cfg or the settings value failed.
	OutputWriteFailure
)

func (k Kind) String() string {
	switch k {
	case PreconditionFailure:
		return "precondition"
	case InputReadFailure:
		return "input_read"
	case OutputWriteFailure:
		return "output_write"
	default:
		return "unknown"
	}
}

const (
	CodeOutputExists       = "OUTPUT_EXISTS"
	CodePrecheckFailed     = "PRECHECK_FAILED"
	CodeInputReadError     = "INPUT_READ_ERROR"
	CodeAccountsWriteError = "ACCOUNTS_WRITE_ERROR"
	CodeSettingsWriteError = "SETTINGS_WRITE_ERROR"
)

type Error struct {
	Kind     Kind
	AppError model.AppError
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the failure kind of err, or KindUnknown when err did not
// come from Run.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUnknown
}

func newError(kind Kind, code, message, stage, path string, cause error) error {
	return &Error{
		Kind: kind,
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   stage,
			Path:    path,
		},
		Cause: cause,
	}
}
