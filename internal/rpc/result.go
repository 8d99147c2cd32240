package rpc

import "errors"

var (
	// ErrUnknownOperation is returned for names with no registered handler.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrBadPayload is returned when a payload does not decode.
	ErrBadPayload = errors.New("bad payload")
)

// Result is the envelope returned for every operation.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a successful result.
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail turns err into a failed result.
func Fail(err error) Result {
	return Result{Success: false, Message: err.Error()}
}
