package ftl

import (
	"errors"
	"fmt"
)

// Device errors. Callers should check for these with errors.Is and map them
// to their own status codes.
var (
	// ErrOutOfSpace indicates no free block could be opened for a write,
	// including a GC cycle that found nothing to reclaim.
	//
	// Mapping:
	//   - HTTP: 507 Insufficient Storage
	ErrOutOfSpace = errors.New("out of space")

	// ErrCapacityExceeded indicates a write or format would grow the logical
	// size beyond the device capacity. Nothing is modified.
	//
	// Mapping:
	//   - HTTP: 413 Payload Too Large
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrMediaUnavailable indicates a page could not be read or programmed
	// because the backing block store failed.
	//
	// Mapping:
	//   - HTTP: 503 Service Unavailable
	ErrMediaUnavailable = errors.New("media unavailable")

	// ErrInvalidGeometry indicates the device layout was rejected at construction.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrClosed indicates the device has been closed.
	ErrClosed = errors.New("device closed")
)

// OpError wraps a device error with the addresses involved.
//
//	err := &OpError{Op: "write", LBA: 3, PCA: makePCA(1, 4), Err: ErrMediaUnavailable}
//	errors.Is(err, ErrMediaUnavailable) // true
type OpError struct {
	// Op is the failing step: read, write, read_page, write_page, allocate, gc, format.
	Op string

	// LBA is the logical page involved, or InvalidLBA.
	LBA LBA

	// PCA is the physical page involved, or InvalidPCA.
	PCA PCA

	// Err is the wrapped cause.
	Err error
}

func (e *OpError) Error() string {
	msg := fmt.Sprintf("ftl %s: %v", e.Op, e.Err)
	if e.LBA.Valid() {
		msg += fmt.Sprintf(" (lba=%d", e.LBA)
		if e.PCA.Valid() {
			msg += fmt.Sprintf(", pca=%s", e.PCA)
		}
		return msg + ")"
	}
	if e.PCA.Valid() {
		msg += fmt.Sprintf(" (pca=%s)", e.PCA)
	}
	return msg
}

// Unwrap returns the underlying error so errors.Is and errors.As see through OpError.
func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op string, lba LBA, pca PCA, err error) error {
	var existing *OpError
	if errors.As(err, &existing) {
		return err
	}
	return &OpError{Op: op, LBA: lba, PCA: pca, Err: err}
}
