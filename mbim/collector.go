package mbim

// collectorState is one of the three states of the Fragment
// Collector's small state machine: Empty, Growing, Complete. A zero
// Collector is Empty; Init moves it to Growing (or straight to
// Complete for a degenerate single-fragment transaction).
type collectorState int

const (
	collectorEmpty collectorState = iota
	collectorGrowing
	collectorComplete
)

// Collector reassembles an ordered stream of inbound fragments into a
// single logical Message. It accepts fragments strictly in order
// (0, 1, ..., total-1); anything else fails with an
// *OutOfSequenceError and leaves the collector's state untouched so
// the caller can decide whether to retry or abandon the transaction.
//
// A Collector owns its working Message exclusively until Complete --
// it is a private deep copy, never aliased -- so appending to it
// during Add never races with a concurrent reader of the original
// fragment Messages.
type Collector struct {
	state        collectorState
	msg          *Message
	nextExpected uint32
	total        uint32
}

// Init starts reassembly with the first fragment of a transaction. It
// requires first.fragmentCurrent() == 0, failing with
// *OutOfSequenceError otherwise. On success it deep-copies first and
// transitions to Growing (next expected index 1), or directly to
// Complete when the message is a single fragment (total == 1).
func Init(first *Message) (*Collector, error) {
	current := first.fragmentCurrent()
	total := first.fragmentTotal()
	if current != 0 {
		return nil, &OutOfSequenceError{
			ExpectedCurrent: 0,
			ExpectedTotal:   total,
			ActualCurrent:   current,
			ActualTotal:     total,
		}
	}

	c := &Collector{
		msg:          first.Dup(),
		total:        total,
		nextExpected: 1,
		state:        collectorGrowing,
	}
	if total == 1 {
		c.normalize()
	}
	return c, nil
}

// Add appends the next fragment in sequence. It accepts only a
// fragment whose current equals the collector's next expected index;
// anything else fails with *OutOfSequenceError and leaves the
// collector's accumulated state unchanged. On acceptance it appends
// the fragment's information buffer to the working message, grows the
// header's length field accordingly, and records the fragment's
// current value in the working message's fragment header. When the
// appended fragment completes the sequence (current+1 == total) it
// normalizes the fragment header to (total=1, current=0) and
// transitions to Complete.
func (c *Collector) Add(next *Message) error {
	if c.state != collectorGrowing {
		return ErrCollectorNotGrowing
	}

	actualCurrent := next.fragmentCurrent()
	actualTotal := next.fragmentTotal()
	if actualCurrent != c.nextExpected {
		return &OutOfSequenceError{
			ExpectedCurrent: c.nextExpected,
			ExpectedTotal:   c.total,
			ActualCurrent:   actualCurrent,
			ActualTotal:     actualTotal,
		}
	}

	payload := next.fragmentPayload()
	c.msg.buf.append(payload)
	c.msg.writeU32(offLength, c.msg.Length()+uint32(len(payload)))
	// current is copied verbatim from the incoming fragment's wire
	// bytes: both sides are already little-endian, so decoding then
	// re-encoding is a no-op and never needs its own byte swap.
	c.msg.writeU32(offFragmentCurrent, actualCurrent)

	c.nextExpected++
	if actualCurrent+1 == actualTotal {
		c.normalize()
	}
	return nil
}

// normalize sets the working message's fragment header to
// (total=1, current=0) and marks the collector Complete.
func (c *Collector) normalize() {
	c.msg.writeU32(offFragmentCurrent, 0)
	c.msg.writeU32(offFragmentTotal, 1)
	c.state = collectorComplete
}

// Complete reports whether every expected fragment has been received.
func (c *Collector) Complete() bool {
	return c.state == collectorComplete
}

// Message returns the reassembled Message once Complete reports true.
// Before that it fails with ErrCollectorIncomplete.
func (c *Collector) Message() (*Message, error) {
	if !c.Complete() {
		return nil, ErrCollectorIncomplete
	}
	return c.msg, nil
}

// Release drops the collector's partially (or fully) reassembled
// working message. Callers abandon a transaction this way on
// out-of-sequence failure or timeout -- the Collector itself never
// times out.
func (c *Collector) Release() {
	if c.msg != nil {
		c.msg.Release()
		c.msg = nil
	}
	c.state = collectorEmpty
}
