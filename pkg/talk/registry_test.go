package talk

import (
	"errors"
	"sync"
)

var (
	errNoInstance = errors.New("no such instance")
	errRejected   = errors.New("rejected")
)

type testObject struct {
	id     uint32
	single bool
	size   int
	reject bool

	lock      sync.Mutex
	instances [][]byte
}

func newTestObject(id uint32, single bool, instances ...[]byte) *testObject {
	o := &testObject{id: id, single: single, size: len(instances[0])}
	for _, data := range instances {
		o.instances = append(o.instances, append([]byte(nil), data...))
	}
	return o
}

func (o *testObject) ID() uint32             { return o.id }
func (o *testObject) IsSingleInstance() bool { return o.single }
func (o *testObject) NumBytes() int          { return o.size }

func (o *testObject) NumInstances() uint16 {
	o.lock.Lock()
	defer o.lock.Unlock()
	return uint16(len(o.instances))
}

func (o *testObject) Pack(instID uint16, buf []byte) error {
	o.lock.Lock()
	defer o.lock.Unlock()
	if int(instID) >= len(o.instances) {
		return errNoInstance
	}
	copy(buf, o.instances[instID])
	return nil
}

func (o *testObject) Unpack(instID uint16, buf []byte) error {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.reject {
		return errRejected
	}
	switch {
	case int(instID) < len(o.instances):
		copy(o.instances[instID], buf)
	case int(instID) == len(o.instances) && !o.single:
		o.instances = append(o.instances, append([]byte(nil), buf...))
	default:
		return errNoInstance
	}
	return nil
}

func (o *testObject) data(instID uint16) []byte {
	o.lock.Lock()
	defer o.lock.Unlock()
	if int(instID) >= len(o.instances) {
		return nil
	}
	return append([]byte(nil), o.instances[instID]...)
}

func (o *testObject) set(instID uint16, data []byte) {
	o.lock.Lock()
	copy(o.instances[instID], data)
	o.lock.Unlock()
}

type testRegistry map[uint32]*testObject

func newTestRegistry(objs ...*testObject) testRegistry {
	r := make(testRegistry)
	for _, o := range objs {
		r[o.id] = o
	}
	return r
}

func (r testRegistry) Lookup(id uint32) Object {
	if o, ok := r[id]; ok {
		return o
	}
	return nil
}

// frameBytes builds a frame the way the peer would send it.
func frameBytes(kind Kind, objID uint32, instID uint16, withInstance bool, data []byte) []byte {
	b, err := EncodeFrame(&Frame{Kind: kind, ObjectID: objID, InstanceID: instID, Data: data}, withInstance)
	if err != nil {
		panic(err)
	}
	return b
}
