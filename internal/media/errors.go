package media

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by owner stores when the owning row does not exist.
	ErrNotFound = errors.New("not found")

	ErrUnknownSlot        = errors.New("unknown media slot")
	ErrSlotType           = errors.New("operation not supported for this slot")
	ErrCapacity           = errors.New("slot capacity exceeded")
	ErrNotOwned           = errors.New("path is not referenced by this slot")
	ErrInvalidPath        = errors.New("invalid media path")
	ErrInvalidOwner       = errors.New("invalid owner id")
	ErrNoFiles            = errors.New("no files provided")
	ErrCascadeUnsupported = errors.New("item cannot be deleted")
	ErrUnsupportedType    = errors.New("unsupported media type")
)

// Stage names the step of a media operation that failed.
type Stage string

const (
	StageUpload Stage = "upload"
	StageDelete Stage = "delete"
	StageUpdate Stage = "update"
)

// OpError attributes a failure to one step of the upload/delete/update chain.
type OpError struct {
	Stage Stage
	Err   error
}

func (e *OpError) Error() string { return fmt.Sprintf("%s failed: %v", e.Stage, e.Err) }

func (e *OpError) Unwrap() error { return e.Err }

// CapacityError reports how far a multi-file slot would overflow.
type CapacityError struct {
	Slot    Slot
	Current int
	Adding  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s holds %d of %d files, cannot add %d", e.Slot, e.Current, e.Slot.Max, e.Adding)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }
