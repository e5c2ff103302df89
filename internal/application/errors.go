// Package application composes the domain packages, persistence, and the
// model provider into the use cases the HTTP layer exposes.
package application

import "errors"

var (
	// ErrInvalidInput flags caller mistakes; the HTTP layer maps it to 400.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited flags a user exceeding their chat allowance; maps to 429.
	ErrRateLimited = errors.New("rate limited")
)
