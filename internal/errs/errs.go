// Package errs defines coded errors for the pipeline stages and the mapping
// from errors to process exit codes.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies which stage of the pipeline an error belongs to. Codes
// double as process exit codes so a shell driving the pipeline can tell
// stages apart.
type Code int

const (
	// CodeConfig covers configuration, usage, and validation failures.
	CodeConfig Code = 1
	// CodeExport covers failures of the external Discord export tool.
	CodeExport Code = 2
	// CodeParse covers missing or malformed export input during gathering.
	CodeParse Code = 3
	// CodeCurate covers AI curation failures.
	CodeCurate Code = 4
	// CodeTemplate covers newsletter template and rendering failures.
	CodeTemplate Code = 5
	// CodeSend covers campaign service failures.
	CodeSend Code = 6
)

func (c Code) String() string {
	switch c {
	case CodeConfig:
		return "config"
	case CodeExport:
		return "export"
	case CodeParse:
		return "parse"
	case CodeCurate:
		return "curate"
	case CodeTemplate:
		return "template"
	case CodeSend:
		return "send"
	}
	return "unknown"
}

// Error is an error tagged with a stage code. It wraps an underlying cause
// when there is one.
type Error struct {
	code Code
	msg  string
	err  error
}

// New creates a coded error without an underlying cause.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a stage code and message to an existing error.
func Wrap(code Code, msg string, err error) *Error {
	return &Error{code: code, msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the stage code of the error.
func (e *Error) Code() Code {
	return e.code
}

// ExitCode maps an error to a process exit code. A nil error maps to 0,
// an uncoded error to CodeConfig.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return int(appErr.code)
	}
	return int(CodeConfig)
}

// HasCode reports whether err carries the given stage code.
func HasCode(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.code == code
}
