package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nasa-jpl/mbimcore/mbim"
)

// MessageOrError is one item delivered by ReadMessages: either a
// complete logical Message, or the error that ended the stream.
type MessageOrError struct {
	Message *mbim.Message
	Err     error
}

// ReadMessages incrementally reads r one MBIM header at a time (12
// bytes), then the remaining header.length-12 bytes, and delivers
// each resulting Message on the returned channel -- except that
// fragments of one of the three fragmented types are first routed
// through a mbim.Collector, so the channel only ever sees complete
// logical messages.
//
// This assumes a single transaction's fragments are never interleaved
// with another transaction's on the same stream, which holds for the
// loopback benches and test harnesses this helper targets; a
// multiplexing transport needs one Collector per in-flight
// transaction id instead.
//
// The channel is closed after delivering the terminal error (io.EOF
// included) if one occurred; reaching a clean EOF with no partial
// message is not itself reported as an error.
func ReadMessages(r io.Reader) <-chan MessageOrError {
	out := make(chan MessageOrError)
	go func() {
		defer close(out)

		var collector *mbim.Collector
		for {
			m, err := readOneMessage(r)
			if err != nil {
				if err == io.EOF && collector == nil {
					return
				}
				out <- MessageOrError{Err: err}
				return
			}

			if !mbim.IsFragmentedType(m.Type()) {
				out <- MessageOrError{Message: m}
				continue
			}

			if collector == nil {
				c, initErr := mbim.Init(m)
				if initErr != nil {
					out <- MessageOrError{Err: initErr}
					continue
				}
				collector = c
			} else if addErr := collector.Add(m); addErr != nil {
				collector.Release()
				collector = nil
				out <- MessageOrError{Err: addErr}
				continue
			}

			if collector.Complete() {
				reassembled, _ := collector.Message()
				out <- MessageOrError{Message: reassembled}
				collector = nil
			}
		}
	}()
	return out
}

func readOneMessage(r io.Reader) (*mbim.Message, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(header[4:8])
	if length < 12 {
		return nil, fmt.Errorf("stream: header declares length %d, smaller than the 12-byte header itself", length)
	}

	full := make([]byte, length)
	copy(full, header)
	if _, err := io.ReadFull(r, full[12:]); err != nil {
		return nil, err
	}
	return mbim.NewFromBytes(full), nil
}
