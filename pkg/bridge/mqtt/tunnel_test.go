package mqtt

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// loopBroker delivers every publish to local subscribers.
type loopBroker struct {
	lock     sync.Mutex
	handlers map[string][]Handler
}

func (b *loopBroker) Publish(topic string, payload []byte) error {
	b.lock.Lock()
	var handlers []Handler
	for pattern, hs := range b.handlers {
		if MatchTopic(topic, pattern) {
			handlers = append(handlers, hs...)
		}
	}
	b.lock.Unlock()
	for _, h := range handlers {
		h(topic, payload)
	}
	return nil
}

func (b *loopBroker) Subscribe(pattern string, handler Handler) (io.Closer, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]Handler)
	}
	b.handlers[pattern] = append(b.handlers[pattern], handler)
	return io.NopCloser(nil), nil
}

func TestTunnel(t *testing.T) {
	broker := &loopBroker{}
	ground, err := NewTunnel(broker).ForGround().Open()
	require.NoError(t, err)
	vehicle, err := NewTunnel(broker).ForVehicle().Open()
	require.NoError(t, err)

	n, err := ground.Write([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 3)
	n, err = vehicle.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, buf[:n])
	n, err = vehicle.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{4, 5}, buf[:n])

	_, err = vehicle.Write([]byte{6})
	require.NoError(t, err)
	n, err = ground.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{6}, buf[:n])

	require.NoError(t, vehicle.Close())
	require.NoError(t, vehicle.Close())
	_, err = vehicle.Read(buf)
	require.Equal(t, io.EOF, err)
	_, err = vehicle.Write([]byte{7})
	require.Equal(t, io.ErrClosedPipe, err)
	// publishing to a closed tunnel doesn't block
	_, err = ground.Write([]byte{8})
	require.NoError(t, err)
}
