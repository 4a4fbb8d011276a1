package packages

import "fmt"

// ErrInvalidPackage is returned when a package is built without one of its
// required identity fields. It indicates a caller bug.
type ErrInvalidPackage struct {
	Field string
}

func (e *ErrInvalidPackage) Error() string {
	return fmt.Sprintf("invalid package: %s is required", e.Field)
}
