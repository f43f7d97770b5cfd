package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CodeParse, "unexpected token")
	if got := err.Error(); got != "[PARSE_ERROR] unexpected token" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Wrap(fs.ErrNotExist, CodeIO, "read source file")
	if !strings.Contains(wrapped.Error(), "[IO_ERROR]") || !strings.Contains(wrapped.Error(), "file does not exist") {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestWrap_Unwraps(t *testing.T) {
	wrapped := Wrap(fs.ErrNotExist, CodeIO, "read source file")
	if !stderrors.Is(wrapped, fs.ErrNotExist) {
		t.Error("wrapped cause must survive errors.Is")
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeLookupFailure, "index unreachable")
	if !IsCode(err, CodeLookupFailure) {
		t.Error("IsCode must match the error's own code")
	}
	if IsCode(err, CodeConfig) {
		t.Error("IsCode must not match a different code")
	}
	if IsCode(nil, CodeConfig) {
		t.Error("IsCode(nil) must be false")
	}
	if IsCode(stderrors.New("plain"), CodeConfig) {
		t.Error("plain errors carry no code")
	}

	// Codes survive fmt wrapping.
	deep := fmt.Errorf("outer: %w", err)
	if !IsCode(deep, CodeLookupFailure) {
		t.Error("IsCode must unwrap fmt-wrapped errors")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(New(CodeConfig, "bad config")) {
		t.Error("config errors are fatal")
	}
	for _, code := range []ErrorCode{CodeParse, CodeLookupFailure, CodeIO, CodeInternal, CodeNotSupported} {
		if IsFatal(New(code, "x")) {
			t.Errorf("%s must not be fatal", code)
		}
	}
}

func TestWithContext(t *testing.T) {
	err := &DomainError{Code: CodeParse, Message: "syntax error"}
	err.WithContext(CtxPath, "app.py").WithContext(CtxLine, 12)

	msg := err.Error()
	if !strings.Contains(msg, "app.py") {
		t.Errorf("Error() = %q, expected context in message", msg)
	}
	if err.Context[CtxLine] != 12 {
		t.Errorf("Context = %v", err.Context)
	}
}
