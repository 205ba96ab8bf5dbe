// Package common contains shared constants and sentinel errors used across
// FinWise components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the token type reported at login and expected in the
// Authorization header.
const BearerScheme = "bearer"
