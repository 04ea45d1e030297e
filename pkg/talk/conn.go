package talk

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"
)

const readChunkSize = 256

// Stats holds the traffic counters of a Conn.
type Stats struct {
	TxBytes       uint64 `json:"tx_bytes"`
	RxBytes       uint64 `json:"rx_bytes"`
	TxObjectBytes uint64 `json:"tx_object_bytes"`
	RxObjectBytes uint64 `json:"rx_object_bytes"`
	TxObjects     uint64 `json:"tx_objects"`
	RxObjects     uint64 `json:"rx_objects"`
	TxErrors      uint64 `json:"tx_errors"`
	RxErrors      uint64 `json:"rx_errors"`
}

// Conn is the protocol engine of one link.
type Conn struct {
	registry Registry
	maxChunk int
	out      io.Writer

	lock   sync.Mutex // state lock
	parser Parser
	tx     frameBuffer
	stats  Stats
	resp   *transaction

	transLock sync.Mutex // held for a whole transaction
}

// NewConn creates a Conn. Frames are written to out in chunks of at most
// maxChunk bytes. out may be nil and set later with SetOutput.
func NewConn(reg Registry, out io.Writer, maxChunk int) (*Conn, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}
	if maxChunk <= 0 {
		return nil, ErrInvalidChunkSize
	}
	c := &Conn{registry: reg, maxChunk: maxChunk, out: out}
	c.parser.Registry = reg
	return c, nil
}

// Registry returns the registry objects are resolved in.
func (c *Conn) Registry() Registry {
	return c.registry
}

// SetOutput replaces the output sink.
func (c *Conn) SetOutput(out io.Writer) {
	c.lock.Lock()
	c.out = out
	c.lock.Unlock()
}

// Output returns the current output sink.
func (c *Conn) Output() io.Writer {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.out
}

// Stats returns a snapshot of the counters.
func (c *Conn) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}

// ResetStats clears all counters.
func (c *Conn) ResetStats() {
	c.lock.Lock()
	c.stats = Stats{}
	c.lock.Unlock()
}

// ParseState returns the state of the receive state machine.
func (c *Conn) ParseState() ParseState {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.parser.State()
}

// ProcessInputByte feeds one received byte. Framing and integrity errors are
// absorbed and counted, the returned error comes from dispatching a
// complete frame.
func (c *Conn) ProcessInputByte(b byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.processByte(b)
}

// ProcessInput feeds received bytes in order and returns the first
// dispatch error.
func (c *Conn) ProcessInput(p []byte) (err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, b := range p {
		if e := c.processByte(b); e != nil && err == nil {
			err = e
		}
	}
	return
}

func (c *Conn) processByte(b byte) error {
	c.stats.RxBytes++
	pr := c.parser.Parse(b)
	if pr.Err != nil {
		c.stats.RxErrors++
		if glog.V(2) {
			glog.Infof("rx dropped frame: %v", pr.Err)
		}
		return nil
	}
	if pr.Frame == nil {
		return nil
	}
	if glog.V(3) {
		glog.Infof("rx %s", pr.Frame)
	}
	c.stats.RxObjects++
	c.stats.RxObjectBytes += uint64(len(pr.Frame.Data))
	return c.receiveObject(pr.Frame)
}

// Run reads r in the background and feeds everything to the parser until
// ctx is done or reading fails.
func (c *Conn) Run(ctx context.Context, r io.Reader) error {
	dataCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readLoop(subCtx, r, dataCh, errCh)
	for {
		select {
		case p := <-dataCh:
			if err := c.ProcessInput(p); err != nil {
				glog.Warningf("dispatch error: %v", err)
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func readLoop(ctx context.Context, r io.Reader, dataCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, readChunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case dataCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}
