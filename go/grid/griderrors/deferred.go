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

package griderrors

import "fmt"

// DeferredError is an unsupported-feature diagnostic that is passed back up
// the planner recursion instead of being raised where it is detected. A
// caller several levels up can add context or choose a fallback strategy
// before deciding to surface it. A nil *DeferredError means success.
type DeferredError struct {
	Code    Code
	Message string
	Detail  string
	Hint    string
}

// Deferred returns a DeferredError with the given code and message.
func Deferred(code Code, msg string) *DeferredError {
	return &DeferredError{Code: code, Message: msg}
}

// Deferredf returns a DeferredError with the given code and a formatted
// message.
func Deferredf(code Code, format string, args ...any) *DeferredError {
	return &DeferredError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail attaches detail text and returns the receiver.
func (d *DeferredError) WithDetail(detail string) *DeferredError {
	d.Detail = detail
	return d
}

// WithHint attaches hint text and returns the receiver.
func (d *DeferredError) WithHint(hint string) *DeferredError {
	d.Hint = hint
	return d
}

// Raise converts the deferred error into a regular error. Callers invoke it
// once no fallback strategy applies.
func (d *DeferredError) Raise() error {
	if d == nil {
		return nil
	}
	return &gridError{code: d.Code, msg: d.Message}
}

func (d *DeferredError) Error() string {
	return d.Message
}
