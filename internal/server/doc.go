// Package server exposes the operation registry over HTTP on loopback.
//
// # Endpoints
//
//   - POST /rpc/{operation}: dispatch one operation; the body is its JSON
//     payload and the answer is always the {success, data?, message?}
//     envelope with status 200. A body that cannot be read or is not JSON
//     is rejected with 400 and an ErrorResponse.
//   - GET /rpc: the sorted list of operation names.
//   - GET /event: Server-Sent Events for pushes such as database.switched.
//   - GET /health: liveness and the supervisor status.
//   - GET /metrics: Prometheus metrics, when enabled.
//
// # Middleware
//
// Every request gets a request id, a zerolog access log line, panic
// recovery and, when enabled, permissive CORS for the local client.
package server
