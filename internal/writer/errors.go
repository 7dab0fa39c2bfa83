package writer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means no XML element corresponds to the entity; the
	// on-disk document has drifted from the in-memory model.
	ErrNotFound = errors.New("element not found in document")
	// ErrAmbiguous means more than one element survived disambiguation.
	// The writer never mutates on ambiguity.
	ErrAmbiguous = errors.New("element is ambiguous in document")
)

// LocateError decorates a locate failure with the back-chain of XML names
// leading to the target.
type LocateError struct {
	Chain []string
	Err   error
}

func (e *LocateError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Chain, "/"), e.Err)
}

func (e *LocateError) Unwrap() error { return e.Err }
