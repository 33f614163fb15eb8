// Package middleware holds the gin middleware of the ops server: CORS,
// per-IP and global rate limiting, and panic recovery.
package middleware
