package talk

// receiveObject applies a validated frame. The state lock is held.
func (c *Conn) receiveObject(f *Frame) error {
	obj := c.registry.Lookup(f.ObjectID)
	if obj == nil && f.Kind != KindRequest && f.Kind != KindNack {
		return ErrUnknownObject
	}
	switch f.Kind {
	case KindData:
		if f.InstanceID == AllInstances {
			return ErrWildcardInstance
		}
		if err := obj.Unpack(f.InstanceID, f.Data); err != nil {
			return &UnpackError{ObjectID: f.ObjectID, InstanceID: f.InstanceID, Err: err}
		}
		c.updateAck(f.ObjectID, f.InstanceID)
	case KindDataAck:
		if f.InstanceID == AllInstances {
			return ErrWildcardInstance
		}
		if err := obj.Unpack(f.InstanceID, f.Data); err != nil {
			return &UnpackError{ObjectID: f.ObjectID, InstanceID: f.InstanceID, Err: err}
		}
		return c.sendObject(obj, f.InstanceID, KindAck)
	case KindRequest:
		if obj == nil {
			return c.sendNack(f.ObjectID)
		}
		return c.sendObject(obj, f.InstanceID, KindData)
	case KindAck:
		if f.InstanceID == AllInstances {
			return ErrWildcardInstance
		}
		c.updateAck(f.ObjectID, f.InstanceID)
	case KindNack:
	default:
		return ErrInvalidKind
	}
	return nil
}
