// Package middleware wraps a ports.TrajectoryStore with at-rest protections: AES-GCM
// encryption with key rotation, and field redaction for exported copies.
package middleware
