package domain

import "errors"

// ErrTrajectoryNotFound is returned when a trajectory ID cannot be found in the store.
var ErrTrajectoryNotFound = errors.New("trajectory not found")

// ErrInvalidConfig is returned when rule files cannot be normalized into a Config.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrTrajectoryExists is returned when creating a trajectory whose ID is already taken.
var ErrTrajectoryExists = errors.New("trajectory already exists")
