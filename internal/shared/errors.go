package shared

import "fmt"

var (
	// Repository errors
	ErrSchema       = fmt.Errorf("schema error")
	ErrInvalidState = fmt.Errorf("invalid state")
	ErrNotFound     = fmt.Errorf("record not found")
	ErrStore        = fmt.Errorf("store error")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
