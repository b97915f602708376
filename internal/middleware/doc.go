// Package middleware provides the HTTP middleware stack: access
// logging, Prometheus request metrics and gzip compression for JSON
// responses. Video blobs are already compressed and pass through
// untouched.
package middleware
