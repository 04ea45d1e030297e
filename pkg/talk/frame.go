package talk

import (
	"encoding/binary"
	"fmt"
)

// Kind is the message kind carried in a frame.
type Kind byte

// Message kinds.
const (
	KindData    Kind = iota // object data, no reply expected
	KindRequest             // ask the peer to send object data
	KindDataAck             // object data, peer replies with KindAck
	KindAck                 // acknowledges KindDataAck
	KindNack                // the requested object is unknown
)

// Protocol constants.
const (
	SyncVal          byte   = 0x3c
	MinHeaderLength         = 8
	MaxHeaderLength         = 10
	MaxPayloadLength        = 255
	ChecksumLength          = 1
	MaxPacketLength         = MaxHeaderLength + MaxPayloadLength + ChecksumLength
	AllInstances     uint16 = 0xffff

	versionTag  byte = 0x20
	versionMask byte = 0xf8
)

var kindNames = [...]string{"DATA", "REQUEST", "DATA_ACK", "ACK", "NACK"}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k.IsValid() {
		return kindNames[k]
	}
	return fmt.Sprintf("KIND(%d)", byte(k))
}

// IsValid tells if the kind is known.
func (k Kind) IsValid() bool {
	return k <= KindNack
}

// TypeByte returns the kind byte on the wire.
func (k Kind) TypeByte() byte {
	return versionTag | byte(k)
}

// HasPayload tells if frames of this kind carry object data.
func (k Kind) HasPayload() bool {
	return k == KindData || k == KindDataAck
}

// Frame is a decoded protocol frame.
type Frame struct {
	Kind       Kind
	ObjectID   uint32
	InstanceID uint16
	Data       []byte
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("%s %08x/%d [%d]", f.Kind, f.ObjectID, f.InstanceID, len(f.Data))
}

type packer interface {
	Pack(instID uint16, buf []byte) error
}

type dataPacker []byte

func (d dataPacker) Pack(instID uint16, buf []byte) error {
	if len(d) != len(buf) {
		return ErrLengthMismatch
	}
	copy(buf, d)
	return nil
}

// EncodeFrame serializes f. The instance field is written when withInstance
// is set. A NACK never carries the instance field.
func EncodeFrame(f *Frame, withInstance bool) ([]byte, error) {
	if !f.Kind.IsValid() {
		return nil, ErrInvalidKind
	}
	var b frameBuffer
	if err := b.encode(f.Kind, f.ObjectID, f.InstanceID,
		withInstance && f.Kind != KindNack, len(f.Data), dataPacker(f.Data)); err != nil {
		return nil, err
	}
	return append([]byte(nil), b.bytes()...), nil
}

// frameBuffer is a fixed-capacity buffer with a write cursor.
type frameBuffer struct {
	buf [MaxPacketLength]byte
	n   int
}

func (b *frameBuffer) reset() {
	b.n = 0
}

func (b *frameBuffer) len() int {
	return b.n
}

func (b *frameBuffer) bytes() []byte {
	return b.buf[:b.n]
}

func (b *frameBuffer) putByte(v byte) {
	b.buf[b.n] = v
	b.n++
}

func (b *frameBuffer) putUint16(v uint16) {
	binary.LittleEndian.PutUint16(b.buf[b.n:], v)
	b.n += 2
}

func (b *frameBuffer) putUint32(v uint32) {
	binary.LittleEndian.PutUint32(b.buf[b.n:], v)
	b.n += 4
}

// next reserves n bytes after the cursor.
func (b *frameBuffer) next(n int) []byte {
	p := b.buf[b.n : b.n+n]
	b.n += n
	return p
}

// encode serializes a complete frame, length field and checksum included.
// The buffer is left empty on error.
func (b *frameBuffer) encode(kind Kind, objID uint32, instID uint16, withInstance bool, length int, src packer) error {
	b.reset()
	if length > MaxPayloadLength {
		return ErrPayloadTooLarge
	}
	b.putByte(SyncVal)
	b.putByte(kind.TypeByte())
	b.putUint16(0)
	b.putUint32(objID)
	if withInstance {
		b.putUint16(instID)
	}
	if length > 0 {
		if err := src.Pack(instID, b.next(length)); err != nil {
			b.reset()
			return err
		}
	}
	binary.LittleEndian.PutUint16(b.buf[2:], uint16(b.n))
	b.putByte(Checksum(b.bytes()))
	return nil
}
