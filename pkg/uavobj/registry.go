package uavobj

import (
	"sort"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/telelink/pkg/talk"
)

// UpdateListener is notified after instance data changes. It's called
// synchronously, possibly from the link receive path, and must not block.
type UpdateListener interface {
	ObjectUpdated(obj *Object, instID uint16)
}

// ObjectUpdatedFunc is func type of UpdateListener.
type ObjectUpdatedFunc func(*Object, uint16)

// ObjectUpdated implements UpdateListener.
func (f ObjectUpdatedFunc) ObjectUpdated(obj *Object, instID uint16) {
	f(obj, instID)
}

// Registry holds registered objects.
type Registry struct {
	lock      sync.RWMutex
	byID      map[uint32]*Object
	byName    map[string]*Object
	listeners []UpdateListener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint32]*Object),
		byName: make(map[string]*Object),
	}
}

// Register adds an object.
func (r *Registry) Register(def Definition) (*Object, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.byID[def.ID] != nil || r.byName[def.Name] != nil {
		return nil, ErrDuplicateObject
	}
	obj := newObject(def, r)
	r.byID[def.ID], r.byName[def.Name] = obj, obj
	glog.V(2).Infof("registered object %s %08x (%d bytes)", def.Name, def.ID, obj.size)
	return obj, nil
}

// RegisterAll adds all definitions.
func (r *Registry) RegisterAll(defs []Definition) error {
	for _, def := range defs {
		if _, err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Get finds an object by ID.
func (r *Registry) Get(id uint32) *Object {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.byID[id]
}

// GetByName finds an object by name.
func (r *Registry) GetByName(name string) *Object {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.byName[name]
}

// Lookup implements talk.Registry.
func (r *Registry) Lookup(id uint32) talk.Object {
	if obj := r.Get(id); obj != nil {
		return obj
	}
	return nil
}

// Objects returns all objects sorted by name.
func (r *Registry) Objects() []*Object {
	r.lock.RLock()
	objs := make([]*Object, 0, len(r.byID))
	for _, obj := range r.byID {
		objs = append(objs, obj)
	}
	r.lock.RUnlock()
	sort.Slice(objs, func(i, j int) bool { return objs[i].def.Name < objs[j].def.Name })
	return objs
}

// OnUpdate adds a listener.
func (r *Registry) OnUpdate(l UpdateListener) {
	r.lock.Lock()
	r.listeners = append(r.listeners, l)
	r.lock.Unlock()
}

func (r *Registry) notify(obj *Object, instID uint16) {
	if r == nil {
		return
	}
	r.lock.RLock()
	listeners := r.listeners
	r.lock.RUnlock()
	for _, l := range listeners {
		l.ObjectUpdated(obj, instID)
	}
}
