// Package file persists trajectories as JSON files on the local filesystem.
package file
