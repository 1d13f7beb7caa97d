// Package middleware provides HTTP middleware for pair-viewer.
//
// It includes:
//   - Request IDs propagated through X-Request-ID
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - gzip compression for text responses
package middleware
