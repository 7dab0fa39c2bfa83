package reader

import (
	"errors"
	"fmt"
)

// ErrMissingVersion reports an archive without a bcf.version member.
var ErrMissingVersion = errors.New("bcf.version not found in archive")

// UnsupportedVersionError reports a VersionId other than 2.1.
type UnsupportedVersionError struct {
	Found string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported bcf version %q (only 2.1 is supported)", e.Found)
}

// InvalidMarkupError aborts the read when a topic's markup.bcf is broken.
type InvalidMarkupError struct {
	TopicDir string
	Err      error
}

func (e *InvalidMarkupError) Error() string {
	return fmt.Sprintf("invalid markup.bcf in topic %s: %v", e.TopicDir, e.Err)
}

func (e *InvalidMarkupError) Unwrap() error { return e.Err }

// MissingFieldError reports a required field absent from a validated
// document. Path names the element chain, e.g. Markup/Topic/Title.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Path)
}
