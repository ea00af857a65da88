// ABOUTME: Package documentation for session authentication
// ABOUTME: Describes token verification, context propagation, and middleware

// Package auth verifies platform session tokens and propagates the
// authenticated identity through request contexts.
//
// Sessions are HS256 JWTs issued by the platform identity service and
// carried in a cookie (or a bearer header for non-browser clients).
// This package only verifies; Generate exists for tests and tooling.
package auth
