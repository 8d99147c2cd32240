// Package rpc is the message boundary of the application. Every request
// names an operation such as "project.create" or "finance.summary" and
// carries a JSON payload; every answer is a Result envelope:
//
//	{"success": true, "data": ...}
//	{"success": false, "message": "..."}
//
// The Registry maps operation names to handlers and performs dispatch. The
// Service binds the repository, the supervisor and the session to the
// operation set. Transports (HTTP in internal/server, the CLI) only move
// bytes to Dispatch and back.
package rpc
