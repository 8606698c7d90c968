// Package middleware provides HTTP middleware for the audio merger service.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with the merge job ID column
//   - Prometheus request metrics labeled by route template
//   - Bearer token authentication against a bcrypt hash
//   - A shared token bucket rate limiter for job admission
package middleware
