package domain

import "errors"

var (
	// ErrNetwork covers connection failures, client timeouts and non-2xx responses.
	ErrNetwork = errors.New("gateway network failure")
	// ErrDecode indicates a response body that could not be decoded into the expected shape.
	ErrDecode = errors.New("gateway response decode failure")
	// ErrTimeout indicates a bounded race that ran out of budget.
	ErrTimeout = errors.New("operation timed out")
	// ErrRequest indicates the outgoing request could not be built (payload encode, bad URL).
	ErrRequest = errors.New("gateway request build failure")
)
