package talk

// Object is a registered telemetry object as seen by the protocol engine.
type Object interface {
	// ID returns the 32-bit object ID.
	ID() uint32
	// IsSingleInstance reports whether frames omit the instance field.
	IsSingleInstance() bool
	// NumInstances returns the number of existing instances.
	NumInstances() uint16
	// NumBytes returns the serialized size of one instance.
	NumBytes() int
	// Pack serializes an instance into buf, which has NumBytes length.
	Pack(instID uint16, buf []byte) error
	// Unpack deserializes buf into an instance, creating it if absent.
	Unpack(instID uint16, buf []byte) error
}

// Registry resolves object IDs.
type Registry interface {
	// Lookup returns nil if the object is unknown.
	Lookup(id uint32) Object
}
