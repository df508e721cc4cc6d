package mbim

// FragmentInfo describes one fragment produced by Split: a 12-byte
// MBIM header and 8-byte fragment header sharing the source message's
// type and transaction id, plus a borrowed slice of the source
// message's information buffer. Payload is a view into the source
// Message's backing buffer and MUST NOT be retained or read after the
// source Message is released.
type FragmentInfo struct {
	Type          MessageType
	TransactionID uint32
	Total         uint32
	Current       uint32
	Payload       []byte
}

// Length returns the fragment's total serialized length: 12-byte
// header, 8-byte fragment header, and the payload.
func (f FragmentInfo) Length() uint32 {
	return uint32(headerSize+fragmentHeaderSize) + uint32(len(f.Payload))
}

// Bytes serializes the fragment to a freshly allocated, independently
// owned byte slice suitable for handing to a transport.
func (f FragmentInfo) Bytes() []byte {
	out := make([]byte, f.Length())
	byteOrder.PutUint32(out[offType:], uint32(f.Type))
	byteOrder.PutUint32(out[offLength:], f.Length())
	byteOrder.PutUint32(out[offTransactionID:], f.TransactionID)
	byteOrder.PutUint32(out[offFragmentTotal:], f.Total)
	byteOrder.PutUint32(out[offFragmentCurrent:], f.Current)
	copy(out[offFragmentPayload:], f.Payload)
	return out
}

// Split splits m into an ordered sequence of fragments if and only if
// m's serialized length exceeds maxFragmentSize. When m already fits,
// Split returns nil and the caller is expected to transmit m as-is.
// The only other case in which Split returns nil is a maxFragmentSize
// too small to hold the 20-byte header overhead, which is a contract
// violation.
//
// Split is only meaningful for the three fragmented message types
// (COMMAND, COMMAND_DONE, INDICATION); invoking it on any other type
// is a contract violation, logged but not blocked, since the payload
// region below the header is computed identically regardless of type
// and the resulting descriptors would simply be meaningless to a
// reassembling peer.
func Split(m *Message, maxFragmentSize int) []FragmentInfo {
	total := int(m.Length())
	if total <= maxFragmentSize {
		return nil
	}
	if !m.Type().isFragmented() {
		violation("Split called on a %s message, which has no fragment header", m.Type())
	}

	const overhead = headerSize + fragmentHeaderSize
	fragmentCapacity := maxFragmentSize - overhead
	if fragmentCapacity <= 0 {
		violation("Split called with maxFragmentSize %d too small to hold the %d-byte header overhead", maxFragmentSize, overhead)
		return nil
	}

	payload := m.buf.asSlice()[offFragmentPayload:]
	payloadLen := total - overhead
	if payloadLen != len(payload) {
		payload = payload[:payloadLen]
	}

	n := (payloadLen + fragmentCapacity - 1) / fragmentCapacity
	msgType := m.Type()
	tid := m.TransactionID()

	fragments := make([]FragmentInfo, n)
	for i := 0; i < n; i++ {
		start := i * fragmentCapacity
		end := start + fragmentCapacity
		if end > payloadLen {
			end = payloadLen
		}
		fragments[i] = FragmentInfo{
			Type:          msgType,
			TransactionID: tid,
			Total:         uint32(n),
			Current:       uint32(i),
			Payload:       payload[start:end],
		}
	}
	return fragments
}
