package talk

import (
	"context"
	"time"
)

// transaction is the single outstanding request or acked send.
type transaction struct {
	objID  uint32
	instID uint16
	done   chan struct{}
}

func (t *transaction) matches(objID uint32, instID uint16) bool {
	return t.objID == objID && (t.instID == instID || t.instID == AllInstances)
}

// Request asks the peer for an object instance, or AllInstances, and waits
// for the data to arrive. timeout <= 0 sends the request and fails unless the
// reply is already in.
func (c *Conn) Request(ctx context.Context, objID uint32, instID uint16, timeout time.Duration) error {
	obj := c.registry.Lookup(objID)
	if obj == nil {
		return ErrUnknownObject
	}
	return c.transaction(ctx, obj, instID, KindRequest, timeout)
}

// Send transmits an object instance. Without acked it returns as soon as
// the frames are written and AllInstances sends every instance. With acked it
// waits for the peer's acknowledgment.
func (c *Conn) Send(ctx context.Context, objID uint32, instID uint16, acked bool, timeout time.Duration) error {
	obj := c.registry.Lookup(objID)
	if obj == nil {
		return ErrUnknownObject
	}
	if !acked {
		c.lock.Lock()
		defer c.lock.Unlock()
		return c.sendObject(obj, instID, KindData)
	}
	if instID == AllInstances {
		return ErrWildcardInstance
	}
	return c.transaction(ctx, obj, instID, KindDataAck, timeout)
}

func (c *Conn) transaction(ctx context.Context, obj Object, instID uint16, kind Kind, timeout time.Duration) error {
	c.transLock.Lock()
	defer c.transLock.Unlock()

	t := &transaction{objID: obj.ID(), instID: instID, done: make(chan struct{})}
	c.lock.Lock()
	c.resp = t
	err := c.sendObject(obj, instID, kind)
	if err != nil {
		c.resp = nil
	}
	c.lock.Unlock()
	if err != nil {
		return err
	}

	err = ErrTimeout
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-t.done:
			return nil
		case <-timer.C:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	select {
	case <-t.done:
		return nil
	default:
	}
	if c.resp == t {
		c.resp = nil
	}
	return err
}

// updateAck completes the pending transaction if the frame satisfies it.
// The state lock is held.
func (c *Conn) updateAck(objID uint32, instID uint16) {
	if t := c.resp; t != nil && t.matches(objID, instID) {
		close(t.done)
		c.resp = nil
	}
}
