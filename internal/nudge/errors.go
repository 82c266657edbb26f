package nudge

import (
	"errors"
	"fmt"
)

// ErrUnknownTrigger is returned when a trigger type is absent from the catalog.
var ErrUnknownTrigger = errors.New("unknown trigger type")

// CatalogFileError describes an invalid catalog override file.
type CatalogFileError struct {
	Path string
	Err  error
}

func (e *CatalogFileError) Error() string {
	return fmt.Sprintf("catalog file %s: %v", e.Path, e.Err)
}

func (e *CatalogFileError) Unwrap() error { return e.Err }
