package talk

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates no matching reply arrived before the transaction timed out.
	ErrTimeout = errors.New("transaction timeout")
	// ErrUnknownObject indicates the object ID is not in the registry.
	ErrUnknownObject = errors.New("unknown object")
	// ErrWildcardInstance indicates AllInstances was used where a single
	// instance is required.
	ErrWildcardInstance = errors.New("all instances not allowed")
	// ErrPayloadTooLarge indicates an object doesn't fit in a frame.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrChecksum indicates a frame failed the checksum.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrLengthMismatch indicates the declared frame length disagrees with
	// the object layout or the bytes received.
	ErrLengthMismatch = errors.New("frame length mismatch")
	// ErrInvalidKind indicates an unsupported message kind.
	ErrInvalidKind = errors.New("invalid message kind")
	// ErrInvalidChunkSize indicates a non-positive max chunk size.
	ErrInvalidChunkSize = errors.New("invalid max chunk size")
	// ErrNoRegistry indicates a Conn was created without a registry.
	ErrNoRegistry = errors.New("registry required")
)

// UnpackError is returned when a received frame can't be applied to the
// registry object.
type UnpackError struct {
	ObjectID   uint32
	InstanceID uint16
	Err        error
}

// Error implements error.
func (e *UnpackError) Error() string {
	return fmt.Sprintf("unpack %08x/%d: %v", e.ObjectID, e.InstanceID, e.Err)
}
