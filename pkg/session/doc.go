/*
Package session owns trajectories on behalf of concurrent callers.

A Manager serializes every operation on one trajectory id behind a reference-counted local
mutex and, optionally, a ports.DistributedLocker, and runs each step as
load, validate, step, save against a ports.TrajectoryStore.
*/
package session
