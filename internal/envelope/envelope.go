// Package envelope wraps the outcome of a single agent invocation in a
// tagged result: Success, Skipped or Failed.
//
// Invoke is the failure-isolation boundary between one agent and the rest
// of a debug run. Errors and panics raised by the wrapped call are turned
// into a Failed result and never escape.
package envelope

import (
	"context"
	"encoding/json"
	"fmt"
)

// Status tags a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is an immutable tagged outcome. The zero value is not meaningful;
// build one with Success, Skipped or Failed.
type Result[T any] struct {
	status  Status
	payload T
	message string
}

// Success wraps a payload.
func Success[T any](payload T) Result[T] {
	return Result[T]{status: StatusSuccess, payload: payload}
}

// Skipped records that the call was deliberately not made.
func Skipped[T any](reason string) Result[T] {
	return Result[T]{status: StatusSkipped, message: reason}
}

// Failed records an error message.
func Failed[T any](msg string) Result[T] {
	return Result[T]{status: StatusFailed, message: msg}
}

// Status returns the tag.
func (r Result[T]) Status() Status { return r.status }

// Payload returns the wrapped value; ok is false unless the result is a Success.
func (r Result[T]) Payload() (payload T, ok bool) {
	return r.payload, r.status == StatusSuccess
}

// Message returns the skip reason or the failure message.
func (r Result[T]) Message() string { return r.message }

func (r Result[T]) IsSuccess() bool { return r.status == StatusSuccess }
func (r Result[T]) IsSkipped() bool { return r.status == StatusSkipped }
func (r Result[T]) IsFailed() bool  { return r.status == StatusFailed }

// String renders non-success results as a marker plus message.
func (r Result[T]) String() string {
	switch r.status {
	case StatusSuccess:
		return fmt.Sprintf("%v", r.payload)
	case StatusSkipped:
		return "[skipped] " + r.message
	case StatusFailed:
		return "[failed] " + r.message
	default:
		return "[unknown]"
	}
}

// MarshalJSON encodes a Success as its payload and any other outcome as a
// plain JSON string carrying the status marker and message.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.status == StatusSuccess {
		return json.Marshal(r.payload)
	}
	return json.Marshal(r.String())
}

// Invoke runs call and wraps its outcome. A returned error or a panic
// becomes Failed. A context that is already done yields Failed without
// calling the function.
func Invoke[T any](ctx context.Context, call func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Failed[T](fmt.Sprintf("panic: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		return Failed[T](err.Error())
	}

	payload, err := call(ctx)
	if err != nil {
		return Failed[T](err.Error())
	}
	return Success(payload)
}
