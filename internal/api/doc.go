// ABOUTME: Package documentation for the REST API layer
// ABOUTME: Describes routing, the response envelope, and error mapping

// Package api exposes the lease engine over REST.
//
// Every response uses the {success, message, data} envelope. Domain
// failures carry their error kind and map to HTTP statuses: not found
// 404, authorization 403, transition and precondition conflicts 409,
// validation 400, upstream failures 502. The session middleware guards
// everything except /health; /api/admin adds an admin role gate.
package api
