// Package server exposes the HTTP API: call analysis, client configuration
// endpoints, health reporting, and Prometheus metrics.
package server
