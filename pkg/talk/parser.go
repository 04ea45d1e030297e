package talk

import "fmt"

// ParseState is the state of the receive state machine.
type ParseState int

// Receive states, one transition per byte.
const (
	StateSync       ParseState = iota // waiting for the start marker
	StateKind                         // waiting for kind and version
	StateLength                       // waiting for 2 bytes of total length
	StateObjectID                     // waiting for 4 bytes of object ID
	StateInstanceID                   // waiting for 2 bytes of instance ID
	StatePayload                      // receiving object data
	StateChecksum                     // waiting for the checksum
)

var stateNames = [...]string{"Sync", "Kind", "Length", "ObjectID", "InstanceID", "Payload", "Checksum"}

// String implements fmt.Stringer.
func (s ParseState) String() string {
	if s >= StateSync && s <= StateChecksum {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseResult is the result after one parsing step.
type ParseResult struct {
	State ParseState
	// Frame is set when a complete frame is validated. Its Data aliases
	// the parser buffer and is only valid until the next step.
	Frame *Frame
	// Err is set when a frame is dropped as a receive error.
	Err error
}

// Parser decodes frames from a byte stream.
type Parser struct {
	Registry Registry

	state      ParseState
	cs         byte
	kind       Kind
	packetSize uint16
	rxCount    uint16 // bytes of the current frame, saturating
	cursor     int    // bytes of the current field
	objID      uint32
	instID     uint16
	length     int
	withInst   bool
	buf        [MaxPayloadLength]byte
	frame      Frame
}

// NewParser creates a parser resolving objects in reg.
func NewParser(reg Registry) *Parser {
	return &Parser{Registry: reg}
}

// State gets the current state.
func (p *Parser) State() ParseState {
	return p.state
}

// Reset drops any partial frame.
func (p *Parser) Reset() {
	p.state = StateSync
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Frame, pr.Err = p.parseByte(b)
	pr.State = p.state
	return
}

func (p *Parser) parseByte(b byte) (*Frame, error) {
	if p.rxCount < 0xffff {
		p.rxCount++
	}
	switch p.state {
	case StateSync:
		if b != SyncVal {
			return nil, nil
		}
		p.cs = ChecksumUpdate(ChecksumInit(), b)
		p.rxCount = 1
		p.state = StateKind
	case StateKind:
		p.cs = ChecksumUpdate(p.cs, b)
		kind := Kind(b &^ versionMask)
		if b&versionMask != versionTag || !kind.IsValid() {
			return p.resync(nil)
		}
		p.kind = kind
		p.packetSize, p.cursor = 0, 0
		p.state = StateLength
	case StateLength:
		p.cs = ChecksumUpdate(p.cs, b)
		p.packetSize |= uint16(b) << (8 * uint(p.cursor))
		if p.cursor++; p.cursor < 2 {
			return nil, nil
		}
		if p.packetSize < MinHeaderLength || p.packetSize > MaxHeaderLength+MaxPayloadLength {
			return p.resync(nil)
		}
		p.objID, p.cursor = 0, 0
		p.state = StateObjectID
	case StateObjectID:
		p.cs = ChecksumUpdate(p.cs, b)
		p.objID |= uint32(b) << (8 * uint(p.cursor))
		if p.cursor++; p.cursor < 4 {
			return nil, nil
		}
		return p.objectIDReady()
	case StateInstanceID:
		p.cs = ChecksumUpdate(p.cs, b)
		p.instID |= uint16(b) << (8 * uint(p.cursor))
		if p.cursor++; p.cursor < 2 {
			return nil, nil
		}
		p.cursor = 0
		if p.length > 0 {
			p.state = StatePayload
		} else {
			p.state = StateChecksum
		}
	case StatePayload:
		p.cs = ChecksumUpdate(p.cs, b)
		p.buf[p.cursor] = b
		if p.cursor++; p.cursor >= p.length {
			p.state = StateChecksum
		}
	case StateChecksum:
		if b != p.cs {
			return p.resync(ErrChecksum)
		}
		if p.rxCount != p.packetSize+ChecksumLength {
			return p.resync(ErrLengthMismatch)
		}
		return p.frameReady()
	}
	return nil, nil
}

func (p *Parser) objectIDReady() (*Frame, error) {
	var obj Object
	if p.Registry != nil {
		obj = p.Registry.Lookup(p.objID)
	}
	if obj == nil && p.kind != KindRequest {
		return p.resync(ErrUnknownObject)
	}
	p.length = 0
	if p.kind.HasPayload() {
		p.length = obj.NumBytes()
	}
	if p.length > MaxPayloadLength {
		return p.resync(ErrPayloadTooLarge)
	}
	header := int(p.rxCount)
	if obj == nil {
		// unknown to us, the requester may still address an instance
		p.withInst = header+2 == int(p.packetSize)
	} else {
		p.withInst = p.kind != KindNack && !obj.IsSingleInstance()
	}
	if p.withInst {
		header += 2
	}
	if header+p.length != int(p.packetSize) {
		return p.resync(ErrLengthMismatch)
	}
	p.instID, p.cursor = 0, 0
	switch {
	case p.withInst:
		p.state = StateInstanceID
	case p.length > 0:
		p.state = StatePayload
	default:
		p.state = StateChecksum
	}
	return nil, nil
}

func (p *Parser) resync(err error) (*Frame, error) {
	p.state = StateSync
	return nil, err
}

func (p *Parser) frameReady() (*Frame, error) {
	p.state = StateSync
	p.frame = Frame{
		Kind:       p.kind,
		ObjectID:   p.objID,
		InstanceID: p.instID,
		Data:       p.buf[:p.length],
	}
	return &p.frame, nil
}
