// Package server hosts the video service API behind a single HTTP server.
//
// The server builds a consistent middleware chain of request IDs, CORS,
// security headers, metrics, and logging so handlers all share common
// protections and instrumentation.
package server
