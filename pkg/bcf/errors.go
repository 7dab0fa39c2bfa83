package bcf

import (
	"errors"
	"fmt"

	"github.com/jra3/bcf-go/internal/writer"
)

var (
	// ErrClosed reports an operation on a closed project.
	ErrClosed = errors.New("project is closed")
	// ErrNotInProject reports an entity that does not belong to the
	// currently open project.
	ErrNotInProject = errors.New("entity is not part of this project")
)

// UpdateError carries the update record that could not be flushed so the
// caller can inspect it, fix the model and retry; the archive on disk is
// unchanged.
type UpdateError struct {
	Update *writer.Update
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update could not be applied: %v", e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }
