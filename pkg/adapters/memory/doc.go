// Package memory provides an in-memory trajectory store, for tests and single-process use.
package memory
