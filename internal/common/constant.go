// Package common contains shared constants and the error taxonomy used
// across myplanner components.
package common

const (
	// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
	AccessTokenHeaderName = "authorization"

	// RefreshTokenCookieName is the HTTP cookie holding the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RequestIDHeaderName correlates a request across logs and responses.
	RequestIDHeaderName = "X-Request-ID"
)
