package uavobj

import "sync"

// Object is a registered object holding the data of its instances.
type Object struct {
	def  Definition
	size int
	reg  *Registry

	lock      sync.RWMutex
	instances [][]byte
}

func newObject(def Definition, reg *Registry) *Object {
	size := def.NumBytes()
	return &Object{
		def:       def,
		size:      size,
		reg:       reg,
		instances: [][]byte{make([]byte, size)},
	}
}

// ID implements talk.Object.
func (o *Object) ID() uint32 {
	return o.def.ID
}

// Name returns the object name.
func (o *Object) Name() string {
	return o.def.Name
}

// Definition returns the definition of the object.
func (o *Object) Definition() Definition {
	return o.def
}

// IsSingleInstance implements talk.Object.
func (o *Object) IsSingleInstance() bool {
	return o.def.SingleInstance
}

// NumBytes implements talk.Object.
func (o *Object) NumBytes() int {
	return o.size
}

// NumInstances implements talk.Object.
func (o *Object) NumInstances() uint16 {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return uint16(len(o.instances))
}

// Pack implements talk.Object.
func (o *Object) Pack(instID uint16, buf []byte) error {
	if len(buf) != o.size {
		return ErrSizeMismatch
	}
	o.lock.RLock()
	defer o.lock.RUnlock()
	if int(instID) >= len(o.instances) {
		return ErrNoInstance
	}
	copy(buf, o.instances[instID])
	return nil
}

// Unpack implements talk.Object. Instances are contiguous, so only the
// next instance of a multi-instance object can be created.
func (o *Object) Unpack(instID uint16, buf []byte) error {
	if err := o.store(instID, buf); err != nil {
		return err
	}
	o.reg.notify(o, instID)
	return nil
}

// SetData replaces the data of an instance, same as received from the link.
func (o *Object) SetData(instID uint16, data []byte) error {
	return o.Unpack(instID, data)
}

// Data returns a copy of the instance data.
func (o *Object) Data(instID uint16) ([]byte, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()
	if int(instID) >= len(o.instances) {
		return nil, ErrNoInstance
	}
	return append([]byte(nil), o.instances[instID]...), nil
}

func (o *Object) store(instID uint16, buf []byte) error {
	if len(buf) != o.size {
		return ErrSizeMismatch
	}
	o.lock.Lock()
	defer o.lock.Unlock()
	switch n := len(o.instances); {
	case int(instID) < n:
		copy(o.instances[instID], buf)
	case int(instID) == n && !o.def.SingleInstance && instID != 0xffff:
		o.instances = append(o.instances, append([]byte(nil), buf...))
	default:
		return ErrNoInstance
	}
	return nil
}
