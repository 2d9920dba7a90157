package split

import "fmt"

// NameCountMismatchError is returned when the supplied name list does not
// cover the expected number of output units. It is raised before any file
// is written.
type NameCountMismatchError struct {
	Expected int
	Actual   int
}

func (e *NameCountMismatchError) Error() string {
	return fmt.Sprintf("name count mismatch: expected %d names, got %d", e.Expected, e.Actual)
}

// ValidationError represents invalid planner input (non-positive page or
// chunk counts, empty names).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}
