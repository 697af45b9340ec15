package models

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrAlreadyMember          = errors.New("already a member")
	ErrAlreadyInTerminalState = errors.New("already in a terminal state")
	ErrCannotRemoveCreator    = errors.New("the group creator cannot be removed")
	ErrInvalidTarget          = errors.New("invalid target")
	ErrNoPendingRequest       = errors.New("no pending join request")
	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrInvalidInput           = errors.New("invalid input")
)

var errorKinds = []struct {
	err    error
	kind   string
	status int
}{
	{ErrNotFound, "NotFound", http.StatusNotFound},
	{ErrUnauthorized, "Unauthorized", http.StatusForbidden},
	{ErrAlreadyMember, "AlreadyMember", http.StatusConflict},
	{ErrAlreadyInTerminalState, "AlreadyInTerminalState", http.StatusConflict},
	{ErrCannotRemoveCreator, "CannotRemoveCreator", http.StatusConflict},
	{ErrInvalidTarget, "InvalidTarget", http.StatusBadRequest},
	{ErrNoPendingRequest, "NoPendingRequest", http.StatusNotFound},
	{ErrInvalidInput, "InvalidInput", http.StatusBadRequest},
	{ErrStoreUnavailable, "StoreUnavailable", http.StatusServiceUnavailable},
}

// ErrorKind names the error kind carried by err. Unknown errors are reported as StoreUnavailable.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "StoreUnavailable"
}

// HTTPStatus maps err onto the status code the API responds with.
func HTTPStatus(err error) int {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Result is the envelope every operation returns to API callers.
type Result struct {
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// OK wraps data in a successful Result.
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Failed builds a failed Result from err.
func Failed(err error) Result {
	return Result{Success: false, ErrorKind: ErrorKind(err), Error: err.Error()}
}
