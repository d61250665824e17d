package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Identity errors
	ErrUnauthenticated = fmt.Errorf("not authenticated")
	ErrForbidden       = fmt.Errorf("forbidden")

	// Canvas creation errors
	ErrInvalidDimensions = fmt.Errorf("invalid dimensions")
	ErrEmptyPalette      = fmt.Errorf("no colors in palette")
	ErrTooManyCells      = fmt.Errorf("too many cells")

	// Canvas write errors
	ErrInvalidColor = fmt.Errorf("color not in palette")
	ErrOutOfBounds  = fmt.Errorf("coordinates out of bounds")
	ErrRateLimited  = fmt.Errorf("rate limited")

	// Lookup errors
	ErrNotFound = fmt.Errorf("not found")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
