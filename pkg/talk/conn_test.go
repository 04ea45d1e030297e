package talk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type chunkRecorder struct {
	chunks [][]byte
	err    error
}

func (r *chunkRecorder) Write(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.chunks = append(r.chunks, append([]byte(nil), p...))
	return len(p), nil
}

func (r *chunkRecorder) bytes() []byte {
	return bytes.Join(r.chunks, nil)
}

// parseFrames decodes every frame in data.
func parseFrames(t *testing.T, reg Registry, data []byte) []Frame {
	parser := NewParser(reg)
	var frames []Frame
	for _, b := range data {
		pr := parser.Parse(b)
		require.NoError(t, pr.Err)
		if pr.Frame != nil {
			f := *pr.Frame
			f.Data = append([]byte{}, f.Data...)
			frames = append(frames, f)
		}
	}
	require.Equal(t, StateSync, parser.State())
	return frames
}

func TestNewConn(t *testing.T) {
	_, err := NewConn(nil, nil, 8)
	require.Equal(t, ErrNoRegistry, err)
	_, err = NewConn(newTestRegistry(), nil, 0)
	require.Equal(t, ErrInvalidChunkSize, err)
	c, err := NewConn(newTestRegistry(), nil, 8)
	require.NoError(t, err)
	require.Nil(t, c.Output())
	require.Equal(t, StateSync, c.ParseState())
}

func TestDataWithAckScenario(t *testing.T) {
	want := withChecksum(0x3c, 0x22, 0x0c, 0x00, 0x78, 0x56, 0x34, 0x12, 1, 2, 3, 4)

	// sender side
	var wire bytes.Buffer
	src := newTestObject(singleID, true, []byte{1, 2, 3, 4})
	sender, err := NewConn(newTestRegistry(src), &wire, MaxPacketLength)
	require.NoError(t, err)
	err = sender.Send(context.Background(), singleID, 0, true, 0)
	require.Equal(t, ErrTimeout, err)
	require.Equal(t, want, wire.Bytes())
	stats := sender.Stats()
	require.Equal(t, uint64(1), stats.TxObjects)
	require.Equal(t, uint64(4), stats.TxObjectBytes)
	require.Equal(t, uint64(len(want)), stats.TxBytes)

	// receiver side
	var reply bytes.Buffer
	dst := newTestObject(singleID, true, []byte{0, 0, 0, 0})
	receiver, err := NewConn(newTestRegistry(dst), &reply, MaxPacketLength)
	require.NoError(t, err)
	require.NoError(t, receiver.ProcessInput(want))
	require.Equal(t, []byte{1, 2, 3, 4}, dst.data(0))
	require.Equal(t, withChecksum(0x3c, 0x23, 0x08, 0x00, 0x78, 0x56, 0x34, 0x12), reply.Bytes())
	stats = receiver.Stats()
	require.Equal(t, uint64(1), stats.RxObjects)
	require.Equal(t, uint64(4), stats.RxObjectBytes)
	require.Equal(t, uint64(len(want)), stats.RxBytes)
	require.Equal(t, uint64(0), stats.RxErrors)
}

func TestRequestUnknownObject(t *testing.T) {
	var out bytes.Buffer
	c, err := NewConn(newTestRegistry(newTestObject(singleID, true, []byte{0})), &out, 64)
	require.NoError(t, err)
	require.NoError(t, c.ProcessInput(frameBytes(KindRequest, 0xdeadbeef, 0, false, nil)))
	require.Equal(t, withChecksum(0x3c, 0x24, 0x08, 0x00, 0xef, 0xbe, 0xad, 0xde), out.Bytes())
	require.Equal(t, uint64(0), c.Stats().RxErrors)
}

func TestRequestUnknownMultiInstanceObject(t *testing.T) {
	var out bytes.Buffer
	c, err := NewConn(newTestRegistry(), &out, 64)
	require.NoError(t, err)
	in := frameBytes(KindRequest, 0xdeadbeef, 1, true, nil)
	require.Equal(t, withChecksum(0x3c, 0x21, 0x0a, 0x00, 0xef, 0xbe, 0xad, 0xde, 0x01, 0x00), in)
	require.NoError(t, c.ProcessInput(in))
	require.Equal(t, withChecksum(0x3c, 0x24, 0x08, 0x00, 0xef, 0xbe, 0xad, 0xde), out.Bytes())
	require.Equal(t, uint64(0), c.Stats().RxErrors)
	require.Equal(t, StateSync, c.ParseState())
}

func TestFramingResyncNotCounted(t *testing.T) {
	var out bytes.Buffer
	c, err := NewConn(newTestRegistry(newTestObject(singleID, true, []byte{0})), &out, 64)
	require.NoError(t, err)
	// bad version, undefined kind, length below and above bounds
	require.NoError(t, c.ProcessInput([]byte{0x3c, 0x40}))
	require.NoError(t, c.ProcessInput([]byte{0x3c, 0x25}))
	require.NoError(t, c.ProcessInput([]byte{0x3c, 0x20, 0x07, 0x00}))
	require.NoError(t, c.ProcessInput([]byte{0x3c, 0x20, 0x0a, 0x01}))
	require.Equal(t, uint64(0), c.Stats().RxErrors)
	require.Equal(t, StateSync, c.ParseState())
	require.NoError(t, c.ProcessInput(frameBytes(KindData, singleID, 0, false, []byte{7})))
	require.Equal(t, uint64(1), c.Stats().RxObjects)
}

func TestCorruptedChecksum(t *testing.T) {
	var out bytes.Buffer
	obj := newTestObject(singleID, true, []byte{0, 0, 0, 0})
	c, err := NewConn(newTestRegistry(obj), &out, 64)
	require.NoError(t, err)
	frame := frameBytes(KindDataAck, singleID, 0, false, []byte{1, 2, 3, 4})
	frame[len(frame)-1] ^= 0x01
	require.NoError(t, c.ProcessInput(frame))
	require.Equal(t, uint64(1), c.Stats().RxErrors)
	require.Equal(t, uint64(0), c.Stats().RxObjects)
	require.Equal(t, []byte{0, 0, 0, 0}, obj.data(0))
	require.Empty(t, out.Bytes())
}

func TestRequestAnswered(t *testing.T) {
	testCases := []struct {
		name   string
		instID uint16
		expect []uint16
	}{
		{"single instance", 1, []uint16{1}},
		{"all instances", AllInstances, []uint16{0, 1, 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			obj := newTestObject(multiID, false, []byte{1, 1}, []byte{2, 2}, []byte{3, 3})
			reg := newTestRegistry(obj)
			c, err := NewConn(reg, &out, 64)
			require.NoError(t, err)
			require.NoError(t, c.ProcessInput(frameBytes(KindRequest, multiID, tc.instID, true, nil)))
			frames := parseFrames(t, reg, out.Bytes())
			require.Len(t, frames, len(tc.expect))
			for n, inst := range tc.expect {
				require.Equal(t, KindData, frames[n].Kind)
				require.Equal(t, inst, frames[n].InstanceID)
				require.Equal(t, obj.data(inst), frames[n].Data)
			}
		})
	}
}

func TestRequestSingleInstance(t *testing.T) {
	var out bytes.Buffer
	reg := newTestRegistry(newTestObject(singleID, true, []byte{4, 3, 2, 1}))
	c, err := NewConn(reg, &out, 64)
	require.NoError(t, err)
	require.NoError(t, c.ProcessInput(frameBytes(KindRequest, singleID, 0, false, nil)))
	frames := parseFrames(t, reg, out.Bytes())
	require.Len(t, frames, 1)
	require.Equal(t, []byte{4, 3, 2, 1}, frames[0].Data)
}

func TestReceiveWildcardRejected(t *testing.T) {
	for _, kind := range []Kind{KindData, KindDataAck, KindAck} {
		t.Run(kind.String(), func(t *testing.T) {
			var out bytes.Buffer
			obj := newTestObject(multiID, false, []byte{0, 0})
			c, err := NewConn(newTestRegistry(obj), &out, 64)
			require.NoError(t, err)
			var data []byte
			if kind.HasPayload() {
				data = []byte{1, 1}
			}
			err = c.ProcessInput(frameBytes(kind, multiID, AllInstances, true, data))
			require.Equal(t, ErrWildcardInstance, err)
			require.Equal(t, []byte{0, 0}, obj.data(0))
			require.Empty(t, out.Bytes())
		})
	}
}

func TestReceiveUnpackFailure(t *testing.T) {
	var out bytes.Buffer
	obj := newTestObject(singleID, true, []byte{0, 0, 0, 0})
	obj.reject = true
	c, err := NewConn(newTestRegistry(obj), &out, 64)
	require.NoError(t, err)
	err = c.ProcessInput(frameBytes(KindDataAck, singleID, 0, false, []byte{1, 2, 3, 4}))
	require.IsType(t, &UnpackError{}, err)
	require.Equal(t, errRejected, err.(*UnpackError).Err)
	require.Empty(t, out.Bytes())
}

func TestReceiveCreatesInstance(t *testing.T) {
	obj := newTestObject(multiID, false, []byte{0, 0})
	c, err := NewConn(newTestRegistry(obj), nil, 64)
	require.NoError(t, err)
	require.NoError(t, c.ProcessInput(frameBytes(KindData, multiID, 1, true, []byte{7, 7})))
	require.Equal(t, uint16(2), obj.NumInstances())
	require.Equal(t, []byte{7, 7}, obj.data(1))
}

func TestNackIgnored(t *testing.T) {
	var out bytes.Buffer
	c, err := NewConn(newTestRegistry(newTestObject(singleID, true, []byte{0})), &out, 64)
	require.NoError(t, err)
	require.NoError(t, c.ProcessInput(frameBytes(KindNack, singleID, 0, false, nil)))
	require.Empty(t, out.Bytes())
	require.Equal(t, uint64(0), c.Stats().RxErrors)
	require.Equal(t, uint64(1), c.Stats().RxObjects)
}

func TestChunkedWrite(t *testing.T) {
	testCases := []struct {
		maxChunk int
		sizes    []int
	}{
		{1, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
		{5, []int{5, 5, 3}},
		{13, []int{13}},
		{MaxPacketLength, []int{13}},
	}
	for _, tc := range testCases {
		rec := &chunkRecorder{}
		c, err := NewConn(newTestRegistry(newTestObject(singleID, true, []byte{1, 2, 3, 4})), rec, tc.maxChunk)
		require.NoError(t, err)
		require.NoError(t, c.Send(context.Background(), singleID, 0, false, 0))
		var sizes []int
		for _, chunk := range rec.chunks {
			sizes = append(sizes, len(chunk))
		}
		require.Equalf(t, tc.sizes, sizes, "maxChunk %d", tc.maxChunk)
		require.Equal(t, frameBytes(KindData, singleID, 0, false, []byte{1, 2, 3, 4}), rec.bytes())
	}
}

func TestWriteFailure(t *testing.T) {
	rec := &chunkRecorder{err: errors.New("link down")}
	c, err := NewConn(newTestRegistry(newTestObject(singleID, true, []byte{1, 2, 3, 4})), rec, 64)
	require.NoError(t, err)
	require.EqualError(t, c.Send(context.Background(), singleID, 0, false, 0), "link down")
	stats := c.Stats()
	require.Equal(t, uint64(1), stats.TxErrors)
	require.Equal(t, uint64(0), stats.TxObjects)
}

func TestPayloadTooLarge(t *testing.T) {
	rec := &chunkRecorder{}
	c, err := NewConn(newTestRegistry(newTestObject(singleID, true, make([]byte, MaxPayloadLength+1))), rec, 64)
	require.NoError(t, err)
	require.Equal(t, ErrPayloadTooLarge, c.Send(context.Background(), singleID, 0, false, 0))
	require.Empty(t, rec.chunks)
	require.Equal(t, uint64(1), c.Stats().TxErrors)
}

func TestSendAllInstances(t *testing.T) {
	var out bytes.Buffer
	obj := newTestObject(multiID, false, []byte{1, 1}, []byte{2, 2})
	reg := newTestRegistry(obj)
	c, err := NewConn(reg, &out, 64)
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), multiID, AllInstances, false, 0))
	frames := parseFrames(t, reg, out.Bytes())
	require.Len(t, frames, 2)
	require.Equal(t, uint16(0), frames[0].InstanceID)
	require.Equal(t, uint16(1), frames[1].InstanceID)
}

func TestSendErrors(t *testing.T) {
	var out bytes.Buffer
	c, err := NewConn(newTestRegistry(newTestObject(multiID, false, []byte{1, 1})), &out, 64)
	require.NoError(t, err)
	require.Equal(t, ErrWildcardInstance, c.Send(context.Background(), multiID, AllInstances, true, time.Second))
	require.Equal(t, ErrUnknownObject, c.Send(context.Background(), 0xdeadbeef, 0, false, 0))
	require.Equal(t, ErrUnknownObject, c.Request(context.Background(), 0xdeadbeef, 0, time.Second))
	require.Empty(t, out.Bytes())
}

func TestStatsReset(t *testing.T) {
	c, err := NewConn(newTestRegistry(newTestObject(singleID, true, []byte{0, 0, 0, 0})), io.Discard, 64)
	require.NoError(t, err)
	require.NoError(t, c.ProcessInput(frameBytes(KindData, singleID, 0, false, []byte{1, 2, 3, 4})))
	require.NoError(t, c.Send(context.Background(), singleID, 0, false, 0))
	require.NotEqual(t, Stats{}, c.Stats())
	c.ResetStats()
	require.Equal(t, Stats{}, c.Stats())
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	c, err := NewConn(newTestRegistry(newTestObject(singleID, true, []byte{1, 2, 3, 4})), &first, 64)
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), singleID, 0, false, 0))
	c.SetOutput(&second)
	require.Equal(t, &second, c.Output())
	require.NoError(t, c.Send(context.Background(), singleID, 0, false, 0))
	require.Equal(t, first.Bytes(), second.Bytes())
}

func TestRunReadError(t *testing.T) {
	obj := newTestObject(singleID, true, []byte{0, 0, 0, 0})
	c, err := NewConn(newTestRegistry(obj), nil, 64)
	require.NoError(t, err)
	r := bytes.NewReader(frameBytes(KindData, singleID, 0, false, []byte{1, 2, 3, 4}))
	require.Equal(t, io.EOF, c.Run(context.Background(), r))
	require.Equal(t, []byte{1, 2, 3, 4}, obj.data(0))
}
