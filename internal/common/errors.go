// Package common defines shared constants and sentinel errors used across
// the boardsync client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Remote API errors, mapped from response status codes.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrUnavailable      = errors.New("server unavailable")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Load/decode errors (document open aborts on these).
	ErrDecodeFailed = errors.New("content decode failed")
)
