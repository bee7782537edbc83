package domain

import "errors"

var (
	// ErrInsufficientData is returned when fewer users qualify for sampling than requested.
	ErrInsufficientData = errors.New("insufficient data for sampling")
	// ErrEmptyGraph is returned when a density report is requested over zero vertices.
	ErrEmptyGraph = errors.New("graph has no vertices")
	// ErrUserNotFound is returned by lookups for unknown user ids.
	ErrUserNotFound = errors.New("user not found")
)
