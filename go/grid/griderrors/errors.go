/*
Copyright 2026 The GridSQL Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package griderrors provides the error types used across the coordinator.
//
// Errors carry a Code so that callers can distinguish user-facing
// "feature not supported" diagnostics from internal invariant violations
// without string matching. The package also provides DeferredError, a
// structured unsupported-feature value that is threaded up through the
// recursive planner instead of being raised at the point of detection.
package griderrors

import (
	"errors"
	"fmt"
)

// Code classifies an error.
type Code int

const (
	// Undefined is the zero Code. Errors created outside this package
	// report it.
	Undefined Code = iota

	// FeatureNotSupported marks user-facing diagnostics for SQL shapes the
	// distributed planner cannot handle.
	FeatureNotSupported

	// InvalidArgument marks errors caused by bad caller input.
	InvalidArgument

	// Internal marks programmer-invariant violations. An Internal error is
	// a bug, not a user input problem.
	Internal
)

func (c Code) String() string {
	switch c {
	case FeatureNotSupported:
		return "feature not supported"
	case InvalidArgument:
		return "invalid argument"
	case Internal:
		return "internal"
	default:
		return "undefined"
	}
}

// gridError is the concrete error type created by this package.
type gridError struct {
	code Code
	msg  string
	err  error
}

func (e *gridError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *gridError) Unwrap() error { return e.err }

// New returns an error with the given code and message.
func New(code Code, msg string) error {
	return &gridError{code: code, msg: msg}
}

// Errorf returns an error with the given code and a formatted message.
func Errorf(code Code, format string, args ...any) error {
	return &gridError{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with an additional message, preserving err's code.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &gridError{code: ErrCode(err), msg: msg, err: err}
}

// Wrapf wraps err with an additional formatted message, preserving err's
// code.
func Wrapf(err error, format string, args ...any) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Bugf returns an Internal error with a "BUG:" prefixed message. Used for
// programmer-invariant violations, typically as a panic value.
func Bugf(format string, args ...any) error {
	return &gridError{code: Internal, msg: "BUG: " + fmt.Sprintf(format, args...)}
}

// ErrCode returns the Code attached to err, or Undefined if err carries
// none.
func ErrCode(err error) Code {
	var ge *gridError
	if errors.As(err, &ge) {
		return ge.code
	}
	return Undefined
}
