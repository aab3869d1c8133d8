// Package middleware provides the HTTP middleware chain of the web server:
// request IDs, structured request logging with HTTP metrics, panic
// recovery, rate limiting, tracing, CORS, security headers and request
// validation. Failures are answered with RFC 7807 problem documents.
package middleware
