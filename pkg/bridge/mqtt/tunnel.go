package mqtt

import (
	"io"
	"sync"
)

// Default tunnel topics. The ground side subscribes LinkRxTopic and
// publishes LinkTxTopic, the vehicle side does the opposite.
const (
	LinkRxTopic = "link/msg"
	LinkTxTopic = "link/cmd"
)

// Tunnel carries a telemetry byte stream over a pair of topics, each
// write becomes one message.
type Tunnel struct {
	Broker   Broker
	SubTopic string
	PubTopic string

	sub       io.Closer
	packetCh  chan []byte
	pending   []byte
	closed    chan struct{}
	closeOnce sync.Once
}

// NewTunnel creates a Tunnel, call Open before use.
func NewTunnel(broker Broker) *Tunnel {
	return &Tunnel{
		Broker:   broker,
		packetCh: make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (t *Tunnel) WithTopics(sub, pub string) *Tunnel {
	t.SubTopic, t.PubTopic = sub, pub
	return t
}

// ForGround uses the topics of the ground station side.
func (t *Tunnel) ForGround() *Tunnel {
	return t.WithTopics(LinkRxTopic, LinkTxTopic)
}

// ForVehicle uses the topics of the vehicle (or its relay) side.
func (t *Tunnel) ForVehicle() *Tunnel {
	return t.WithTopics(LinkTxTopic, LinkRxTopic)
}

// Open subscribes the receiving topic.
func (t *Tunnel) Open() (*Tunnel, error) {
	sub, err := t.Broker.Subscribe(t.SubTopic, t.handleMsg)
	if err != nil {
		return nil, err
	}
	t.sub = sub
	return t, nil
}

// Read implements io.Reader.
func (t *Tunnel) Read(p []byte) (int, error) {
	if len(t.pending) == 0 {
		select {
		case pkt := <-t.packetCh:
			t.pending = pkt
		case <-t.closed:
			return 0, io.EOF
		}
	}
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

// Write implements io.Writer.
func (t *Tunnel) Write(p []byte) (int, error) {
	select {
	case <-t.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	if err := t.Broker.Publish(t.PubTopic, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (t *Tunnel) Close() (err error) {
	t.closeOnce.Do(func() {
		close(t.closed)
		if t.sub != nil {
			err = t.sub.Close()
		}
	})
	return
}

func (t *Tunnel) handleMsg(_ string, payload []byte) {
	if len(payload) == 0 {
		return
	}
	pkt := make([]byte, len(payload))
	copy(pkt, payload)
	select {
	case t.packetCh <- pkt:
	case <-t.closed:
	}
}
