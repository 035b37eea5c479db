package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrUserNotFound     = fmt.Errorf("user not found")

	// Task errors
	ErrTaskNotFound     = fmt.Errorf("task not found")
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrValidation       = fmt.Errorf("validation failed")
	ErrStoreWrite       = fmt.Errorf("store write failed")
	ErrModalClosed      = fmt.Errorf("task form is not open")
	ErrUnknownField     = fmt.Errorf("unknown form field")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
