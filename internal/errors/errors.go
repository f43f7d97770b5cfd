package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeConfig        ErrorCode = "CONFIG_ERROR"
	CodeParse         ErrorCode = "PARSE_ERROR"
	CodeLookupFailure ErrorCode = "LOOKUP_FAILURE"
	CodeIO            ErrorCode = "IO_ERROR"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported  ErrorCode = "NOT_SUPPORTED"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath    = "path"
	CtxLine    = "line"
	CtxModule  = "module"
	CtxPackage = "package"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsFatal reports whether an error must abort the run rather than be
// collected into the failure surface. Only configuration errors qualify:
// every per-file and per-lookup failure degrades locally.
func IsFatal(err error) bool {
	return IsCode(err, CodeConfig)
}
