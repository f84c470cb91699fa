// Package common contains shared constants and sentinel errors used across
// giftdesk components.
package common

const (
	// AuthorizationHeaderName is the HTTP header carrying the session token.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the opaque token inside the Authorization header.
	BearerPrefix = "Bearer "
)
