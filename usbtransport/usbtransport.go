// Package usbtransport sends and receives MBIM messages over a real
// MBIM function's USB bulk endpoints. It is the transport-I/O
// collaborator the mbim core package deliberately leaves external: it
// knows nothing about header layout or fragmentation beyond calling
// into mbim.Split and mbim.Init/Collector.Add, and everything about
// opening a gousb.Device, finding its endpoints, and pacing transfers.
//
// Adapted from the bulk-transfer USBTMC device wrapper that the
// golaborate lab-control repository's instrument packages use; MBIM functions are addressed
// and read/written the same way, just with a different on-wire
// message shape.
package usbtransport

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/gousb"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/nasa-jpl/mbimcore/mbim"
)

// defaultBulkBufferSize is the size of the scratch buffer used to read
// one bulk-in transfer. MBIM devices commonly advertise a max control
// transfer of a few KB; this is generous headroom for a single
// fragment or small unfragmented message.
const defaultBulkBufferSize = 4096

// Device is an open MBIM function's USB control/bulk transport.
type Device struct {
	ctx     *gousb.Context
	usbDev  *gousb.Device
	iface   *gousb.Interface
	closer  func()
	in      *gousb.InEndpoint
	out     *gousb.OutEndpoint
	limiter *rate.Limiter
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	inEndpoint, outEndpoint int
	retryTimeout            time.Duration
	fragmentsPerSecond      rate.Limit
}

// WithEndpoints overrides the default IN/OUT bulk endpoint addresses
// (2/2, matching this corpus's USBTMC device convention) for MBIM
// functions that expose them elsewhere in their USB descriptor.
func WithEndpoints(in, out int) Option {
	return func(o *openOptions) { o.inEndpoint, o.outEndpoint = in, out }
}

// WithRetryTimeout bounds how long Open retries device enumeration
// before giving up.
func WithRetryTimeout(d time.Duration) Option {
	return func(o *openOptions) { o.retryTimeout = d }
}

// WithFragmentRate caps how many fragments per second Send will write,
// so a large Split burst does not outrun the function's receive
// buffer.
func WithFragmentRate(fragmentsPerSecond float64) Option {
	return func(o *openOptions) { o.fragmentsPerSecond = rate.Limit(fragmentsPerSecond) }
}

// Open opens the default interface of the USB device identified by
// vid/pid and resolves its bulk endpoints. Because an MBIM modem can
// still be re-enumerating USB for a moment after power-on, Open
// retries with exponential backoff until retryTimeout (5s by default)
// elapses.
func Open(ctx context.Context, vid, pid uint16, opts ...Option) (*Device, error) {
	cfg := openOptions{
		inEndpoint:         2,
		outEndpoint:        2,
		retryTimeout:       5 * time.Second,
		fragmentsPerSecond: 200,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	usbCtx := gousb.NewContext()
	var dev *gousb.Device

	open := func() error {
		var err error
		dev, err = usbCtx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
		if err != nil {
			return err
		}
		if dev == nil {
			return fmt.Errorf("usbtransport: no device matching %04x:%04x found", vid, pid)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.retryTimeout
	if err := backoff.Retry(open, bo); err != nil {
		usbCtx.Close()
		return nil, errors.Wrapf(err, "usbtransport: opening %04x:%04x", vid, pid)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		usbCtx.Close()
		return nil, errors.Wrap(err, "usbtransport: enabling auto kernel-driver detach")
	}

	iface, closer, err := dev.DefaultInterface()
	if err != nil {
		usbCtx.Close()
		return nil, errors.Wrap(err, "usbtransport: claiming default interface")
	}

	in, err := iface.InEndpoint(cfg.inEndpoint)
	if err != nil {
		closer()
		usbCtx.Close()
		return nil, errors.Wrapf(err, "usbtransport: resolving bulk-in endpoint %d", cfg.inEndpoint)
	}
	out, err := iface.OutEndpoint(cfg.outEndpoint)
	if err != nil {
		closer()
		usbCtx.Close()
		return nil, errors.Wrapf(err, "usbtransport: resolving bulk-out endpoint %d", cfg.outEndpoint)
	}

	return &Device{
		ctx:     usbCtx,
		usbDev:  dev,
		iface:   iface,
		closer:  closer,
		in:      in,
		out:     out,
		limiter: rate.NewLimiter(cfg.fragmentsPerSecond, int(cfg.fragmentsPerSecond)),
	}, nil
}

// Send transmits m, splitting it into fragments of at most
// maxFragmentSize bytes first if it does not already fit. Fragments
// are written in ascending order, one bulk-out transfer each, paced by
// the device's configured fragment rate so a long Split burst cannot
// overrun the function's receive buffer.
func (d *Device) Send(ctx context.Context, m *mbim.Message, maxFragmentSize int) error {
	fragments := mbim.Split(m, maxFragmentSize)
	if fragments == nil {
		raw, err := m.Raw()
		if err != nil {
			return errors.Wrap(err, "usbtransport: send")
		}
		return d.write(ctx, raw)
	}

	for _, f := range fragments {
		if err := d.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "usbtransport: rate limiter")
		}
		if err := d.write(ctx, f.Bytes()); err != nil {
			return errors.Wrapf(err, "usbtransport: sending fragment %d/%d", f.Current, f.Total)
		}
	}
	return nil
}

func (d *Device) write(ctx context.Context, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := d.out.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("usbtransport: short write: wrote %d of %d bytes", n, len(b))
	}
	return nil
}

// Receive reads one whole logical MBIM message. Bulk transfers from a
// USB function preserve message boundaries, so each Read below yields
// exactly one serialized message or fragment; Receive feeds fragments
// through a mbim.Collector and loops until reassembly completes. This
// is the incremental, streaming receive loop the mbim core composes
// with but does not itself implement.
func (d *Device) Receive(ctx context.Context) (*mbim.Message, error) {
	first, err := d.readOne(ctx)
	if err != nil {
		return nil, err
	}
	if !mbim.IsFragmentedType(first.Type()) {
		return first, nil
	}

	collector, err := mbim.Init(first)
	if err != nil {
		return nil, errors.Wrap(err, "usbtransport: receive")
	}
	for !collector.Complete() {
		next, err := d.readOne(ctx)
		if err != nil {
			collector.Release()
			return nil, err
		}
		if err := collector.Add(next); err != nil {
			collector.Release()
			return nil, errors.Wrap(err, "usbtransport: receive")
		}
	}
	return collector.Message()
}

func (d *Device) readOne(ctx context.Context) (*mbim.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, defaultBulkBufferSize)
	n, err := d.in.Read(buf)
	if err != nil {
		return nil, errors.Wrap(err, "usbtransport: bulk read")
	}
	if n < 12 {
		return nil, fmt.Errorf("usbtransport: bulk read returned %d bytes, need at least 12 for a header", n)
	}
	m := mbim.NewFromBytes(buf[:n])
	log.Printf("usbtransport: received %s, %d bytes, tid=%d", m.Type(), m.Length(), m.TransactionID())
	return m, nil
}

// Close releases the USB interface, device, and context.
func (d *Device) Close() error {
	d.closer()
	err := d.usbDev.Close()
	d.ctx.Close()
	return err
}
