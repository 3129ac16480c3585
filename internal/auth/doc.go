// Package auth issues and validates the bearer tokens that guard the REST API.
//
// Tokens are HS256-signed JWTs carrying a subject and a Role. Each role maps
// to a fixed set of permissions:
//
//	viewer    device:read
//	operator  device:read, device:operate
//
// Tokens are validated by signature and expiry only; there is no revocation
// list. Rotate the secret to invalidate every outstanding token.
package auth
