// Package redis stores trajectories in Redis and provides a Redis-backed distributed lock,
// letting several rewind processes share trajectories safely.
package redis
