// Package stream provides a reconnecting pool of byte-stream
// connections (TCP or serial) and an incremental reader that turns a
// raw io.Reader into a channel of reassembled MBIM messages.
//
// It is the transport-agnostic twin of usbtransport, used by test
// harnesses and loopback benches instead of a real USB function.
// Adapted from the golaborate lab-control repository's comm package,
// which provides the
// same connection-pool-with-backoff shape for lab instruments
// addressed over TCP or RS232.
package stream

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

// DialerFunc returns a new connection each time it's called; a pool
// calls it to replace a connection it has discarded.
type DialerFunc func() (io.ReadWriteCloser, error)

// TCP returns a DialerFunc that dials addr over TCP.
func TCP(addr string, timeout time.Duration) DialerFunc {
	return func() (io.ReadWriteCloser, error) {
		return net.DialTimeout("tcp", addr, timeout)
	}
}

// BackingOffTCP returns a DialerFunc that dials addr over TCP, retrying
// with exponential backoff (100ms initial, doubling, capped at 20s,
// giving up after 30s total) before returning an error.
func BackingOffTCP(addr string, timeout time.Duration) DialerFunc {
	return func() (io.ReadWriteCloser, error) {
		var (
			conn io.ReadWriteCloser
			err  error
		)
		op := func() error {
			conn, err = net.DialTimeout("tcp", addr, timeout)
			return err
		}
		retryErr := backoff.Retry(op, &backoff.ExponentialBackOff{
			InitialInterval:     100 * time.Millisecond,
			RandomizationFactor: 0,
			Multiplier:          2,
			MaxInterval:         20 * time.Second,
			MaxElapsedTime:      30 * time.Second,
			Clock:               backoff.SystemClock,
		})
		if retryErr != nil {
			return nil, retryErr
		}
		return conn, nil
	}
}

// Serial returns a DialerFunc that opens the serial port described by
// cfg, for MBIM-over-serial loopback benches.
func Serial(cfg *serial.Config) DialerFunc {
	return func() (io.ReadWriteCloser, error) {
		return serial.OpenPort(cfg)
	}
}

// Pool holds one or more connections to a remote, opening new ones
// lazily (up to maxSize) and closing idle ones on a timer. It is
// concurrency safe.
type Pool struct {
	maxSize     int
	onLease     int
	idleTimeout time.Duration
	conns       chan io.ReadWriteCloser
	interrupt   chan struct{}
	mu          sync.Mutex
	dial        DialerFunc
}

// NewPool creates a pool that opens connections with dial on demand,
// up to maxSize concurrently leased, and closes an idle connection
// approximately every idleTimeout.
func NewPool(maxSize int, idleTimeout time.Duration, dial DialerFunc) *Pool {
	p := &Pool{
		maxSize:     maxSize,
		idleTimeout: idleTimeout,
		conns:       make(chan io.ReadWriteCloser, maxSize),
		interrupt:   make(chan struct{}),
		dial:        dial,
	}
	go p.destroyIdle()
	return p
}

// Get returns a leased connection, blocking until one is available or
// a new one can be opened.
func (p *Pool) Get() (io.ReadWriteCloser, error) {
	select {
	case c := <-p.conns:
		p.mu.Lock()
		p.onLease++
		p.mu.Unlock()
		return c, nil
	default:
	}

	p.mu.Lock()
	if p.onLease >= p.maxSize {
		p.mu.Unlock()
		c := <-p.conns
		p.mu.Lock()
		p.onLease++
		p.mu.Unlock()
		return c, nil
	}
	p.onLease++
	p.mu.Unlock()

	c, err := p.dial()
	if err != nil {
		p.mu.Lock()
		p.onLease--
		p.mu.Unlock()
		return nil, err
	}
	return c, nil
}

// Put returns a connection to the pool for reuse.
func (p *Pool) Put(c io.ReadWriteCloser) {
	p.mu.Lock()
	p.onLease--
	p.mu.Unlock()
	select {
	case p.conns <- c:
	default:
		c.Close()
	}
}

// Destroy discards a connection instead of returning it to the pool,
// for use when the connection has been observed to be broken.
func (p *Pool) Destroy(c io.ReadWriteCloser) {
	p.mu.Lock()
	p.onLease--
	p.mu.Unlock()
	c.Close()
}

// Close stops the idle-connection reaper and closes every pooled
// connection. Connections currently on lease are unaffected; callers
// should Destroy them as they're returned.
func (p *Pool) Close() {
	close(p.interrupt)
	for {
		select {
		case c := <-p.conns:
			c.Close()
		default:
			return
		}
	}
}

func (p *Pool) destroyIdle() {
	t := time.NewTicker(p.idleTimeout)
	defer t.Stop()
	for {
		select {
		case <-p.interrupt:
			return
		case <-t.C:
			select {
			case c := <-p.conns:
				c.Close()
			default:
			}
		}
	}
}
