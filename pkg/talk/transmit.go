package talk

import "github.com/golang/glog"

// sendObject transmits obj. A wildcard instance is expanded to every
// instance for DATA and collapses to instance 0 on single-instance objects.
// The state lock is held.
func (c *Conn) sendObject(obj Object, instID uint16, kind Kind) error {
	if instID == AllInstances && obj.IsSingleInstance() {
		instID = 0
	}
	switch kind {
	case KindData:
		if instID != AllInstances {
			return c.sendSingleObject(obj, instID, kind)
		}
		var err error
		for n, i := obj.NumInstances(), uint16(0); i < n; i++ {
			if e := c.sendSingleObject(obj, i, kind); e != nil && err == nil {
				err = e
			}
		}
		return err
	case KindDataAck, KindAck:
		if instID == AllInstances {
			return ErrWildcardInstance
		}
		return c.sendSingleObject(obj, instID, kind)
	case KindRequest:
		return c.sendSingleObject(obj, instID, kind)
	}
	return ErrInvalidKind
}

func (c *Conn) sendSingleObject(obj Object, instID uint16, kind Kind) error {
	length := 0
	if kind.HasPayload() {
		length = obj.NumBytes()
	}
	if err := c.tx.encode(kind, obj.ID(), instID, !obj.IsSingleInstance(), length, obj); err != nil {
		c.stats.TxErrors++
		return err
	}
	if err := c.write(c.tx.bytes()); err != nil {
		return err
	}
	if glog.V(3) {
		glog.Infof("tx %s %08x/%d [%d]", kind, obj.ID(), instID, length)
	}
	c.stats.TxObjects++
	c.stats.TxObjectBytes += uint64(length)
	return nil
}

func (c *Conn) sendNack(objID uint32) error {
	if err := c.tx.encode(KindNack, objID, 0, false, 0, nil); err != nil {
		c.stats.TxErrors++
		return err
	}
	if glog.V(2) {
		glog.Infof("tx NACK %08x", objID)
	}
	return c.write(c.tx.bytes())
}

// write sends p in chunks of at most maxChunk bytes.
func (c *Conn) write(p []byte) error {
	if c.out == nil {
		return nil
	}
	for len(p) > 0 {
		n := len(p)
		if n > c.maxChunk {
			n = c.maxChunk
		}
		written, err := c.out.Write(p[:n])
		c.stats.TxBytes += uint64(written)
		if err != nil {
			c.stats.TxErrors++
			return err
		}
		p = p[n:]
	}
	return nil
}
