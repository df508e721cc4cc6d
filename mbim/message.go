package mbim

import "encoding/binary"

const (
	headerSize         = 12
	fragmentHeaderSize = 8

	offType          = 0
	offLength        = 4
	offTransactionID = 8
	offPayload       = headerSize

	// offsets of a fragmented message's fragment header fields and
	// information buffer, counted from the start of the message.
	offFragmentTotal   = headerSize + 0
	offFragmentCurrent = headerSize + 4
	offFragmentPayload = headerSize + fragmentHeaderSize
)

var byteOrder = binary.LittleEndian

// Message is a typed wrapper over a byte buffer carrying an MBIM
// header and, for certain types, a payload. It is cheap to copy by
// value -- the zero value is not a usable Message; always obtain one
// from a constructor, NewFromBytes, or Dup.
type Message struct {
	buf *buffer
}

// NewFromBytes copies data verbatim into a new Message. It does not
// validate the header; a Message built from fewer than 12 bytes is
// only observable through Raw and Length until (and unless) a caller
// validates it further.
func NewFromBytes(data []byte) *Message {
	return &Message{buf: newBufferFromBytes(data)}
}

// Dup returns a deep copy of exactly m.Length() bytes of m -- not the
// backing buffer's capacity, which may exceed the logical length
// during Collector reassembly.
func (m *Message) Dup() *Message {
	return &Message{buf: m.buf.dup(int(m.Length()))}
}

// Retain increments m's reference count and returns m, for use when
// handing out a second owner of the same underlying buffer.
func (m *Message) Retain() *Message {
	m.buf.retain()
	return m
}

// Release decrements m's reference count. The Message must not be
// used again once the last reference has been released.
func (m *Message) Release() {
	m.buf.release()
}

// Raw returns an immutable view of the full serialized message. It
// fails with ErrEmptyMessage when the backing buffer is zero-length.
func (m *Message) Raw() ([]byte, error) {
	if m.buf.length() == 0 {
		return nil, ErrEmptyMessage
	}
	return m.buf.asSlice(), nil
}

// Length returns the header's length field, i.e. the total serialized
// size of the message including the 12-byte header.
func (m *Message) Length() uint32 {
	return m.readU32(offLength)
}

// Type returns the header's message-type discriminant.
func (m *Message) Type() MessageType {
	return MessageType(m.readU32(offType))
}

// TransactionID returns the header's transaction id.
func (m *Message) TransactionID() uint32 {
	return m.readU32(offTransactionID)
}

func (m *Message) readU32(off int) uint32 {
	data := m.buf.asSlice()
	if off+4 > len(data) {
		return 0
	}
	return byteOrder.Uint32(data[off : off+4])
}

func (m *Message) writeU32(off int, v uint32) {
	byteOrder.PutUint32(m.buf.asMutSlice()[off:off+4], v)
}

// allocate builds a Message of the given type, transaction id, and
// total additional size beyond the 12-byte header, with the header
// fields written and the payload region zeroed.
func allocate(msgType MessageType, transactionID uint32, additional int) *Message {
	m := &Message{buf: allocateZeroed(headerSize + additional)}
	m.writeU32(offType, uint32(msgType))
	m.writeU32(offLength, uint32(headerSize+additional))
	m.writeU32(offTransactionID, transactionID)
	return m
}

// OpenNew builds an OPEN message requesting maxControlTransfer as the
// largest control transfer the host can accept.
func OpenNew(transactionID uint32, maxControlTransfer uint32) *Message {
	m := allocate(MessageTypeOpen, transactionID, 4)
	m.writeU32(offPayload, maxControlTransfer)
	return m
}

// CloseNew builds a CLOSE message, which carries no payload.
func CloseNew(transactionID uint32) *Message {
	return allocate(MessageTypeClose, transactionID, 0)
}

// ErrorNew builds a HOST_ERROR message carrying protocolError.
//
// The original C source sizes this payload using the OPEN payload
// struct's size; both happen to be exactly one u32; this
// implementation states the size directly rather than preserve that
// coincidence.
func ErrorNew(transactionID uint32, protocolError ProtocolError) *Message {
	m := allocate(MessageTypeHostError, transactionID, 4)
	m.writeU32(offPayload, uint32(protocolError))
	return m
}

// FunctionErrorNew builds a FUNCTION_ERROR message carrying
// protocolError, the device-to-host counterpart of ErrorNew.
func FunctionErrorNew(transactionID uint32, protocolError ProtocolError) *Message {
	m := allocate(MessageTypeFunctionError, transactionID, 4)
	m.writeU32(offPayload, uint32(protocolError))
	return m
}

// OpenDoneNew builds an OPEN_DONE message carrying status.
func OpenDoneNew(transactionID uint32, status StatusError) *Message {
	m := allocate(MessageTypeOpenDone, transactionID, 4)
	m.writeU32(offPayload, uint32(status))
	return m
}

// CloseDoneNew builds a CLOSE_DONE message carrying status.
func CloseDoneNew(transactionID uint32, status StatusError) *Message {
	m := allocate(MessageTypeCloseDone, transactionID, 4)
	m.writeU32(offPayload, uint32(status))
	return m
}

// newFragmented builds a single-fragment (total=1, current=0) message
// of one of the three fragmented types, carrying informationBuffer as
// its opaque payload. COMMAND, COMMAND_DONE, and INDICATION are all
// shaped identically below the 12-byte header, differing only in
// their type discriminant and in the per-service schema an upper
// layer imposes on the information buffer.
func newFragmented(msgType MessageType, transactionID uint32, informationBuffer []byte) *Message {
	m := allocate(msgType, transactionID, fragmentHeaderSize+len(informationBuffer))
	m.writeU32(offFragmentTotal, 1)
	m.writeU32(offFragmentCurrent, 0)
	copy(m.buf.asMutSlice()[offFragmentPayload:], informationBuffer)
	return m
}

// CommandNew builds a COMMAND message carrying informationBuffer,
// initially a single fragment (total=1, current=0).
func CommandNew(transactionID uint32, informationBuffer []byte) *Message {
	return newFragmented(MessageTypeCommand, transactionID, informationBuffer)
}

// CommandDoneNew builds a COMMAND_DONE message carrying
// informationBuffer, initially a single fragment.
func CommandDoneNew(transactionID uint32, informationBuffer []byte) *Message {
	return newFragmented(MessageTypeCommandDone, transactionID, informationBuffer)
}

// IndicationNew builds an INDICATION message carrying
// informationBuffer, initially a single fragment.
func IndicationNew(transactionID uint32, informationBuffer []byte) *Message {
	return newFragmented(MessageTypeIndication, transactionID, informationBuffer)
}

// OpenGetMaxControlTransfer returns the max_control_transfer field of
// an OPEN message. Calling it on any other type is a contract
// violation and returns 0.
func OpenGetMaxControlTransfer(m *Message) uint32 {
	if m.Type() != MessageTypeOpen {
		violation("OpenGetMaxControlTransfer called on a %s message", m.Type())
		return 0
	}
	return m.readU32(offPayload)
}

// OpenDoneGetStatusCode returns the status_code field of an OPEN_DONE
// message. Calling it on any other type is a contract violation and
// returns StatusErrorInvalid.
func OpenDoneGetStatusCode(m *Message) StatusError {
	if m.Type() != MessageTypeOpenDone {
		violation("OpenDoneGetStatusCode called on a %s message", m.Type())
		return StatusErrorInvalid
	}
	return StatusError(m.readU32(offPayload))
}

// CloseDoneGetStatusCode returns the status_code field of a
// CLOSE_DONE message. Calling it on any other type is a contract
// violation and returns StatusErrorInvalid.
func CloseDoneGetStatusCode(m *Message) StatusError {
	if m.Type() != MessageTypeCloseDone {
		violation("CloseDoneGetStatusCode called on a %s message", m.Type())
		return StatusErrorInvalid
	}
	return StatusError(m.readU32(offPayload))
}

// OpenDoneGetResult returns nil when the OPEN_DONE message's status
// code is StatusErrorNone, otherwise a *ResultError carrying the code
// and its name.
func OpenDoneGetResult(m *Message) error {
	return newResultError(OpenDoneGetStatusCode(m))
}

// CloseDoneGetResult returns nil when the CLOSE_DONE message's status
// code is StatusErrorNone, otherwise a *ResultError carrying the code
// and its name.
func CloseDoneGetResult(m *Message) error {
	return newResultError(CloseDoneGetStatusCode(m))
}

// ErrorGetErrorStatusCode returns the raw error_status_code field of a
// HOST_ERROR or FUNCTION_ERROR message. Calling it on any other type
// is a contract violation and returns 0.
func ErrorGetErrorStatusCode(m *Message) uint32 {
	if !isErrorType(m.Type()) {
		violation("ErrorGetErrorStatusCode called on a %s message", m.Type())
		return 0
	}
	return m.readU32(offPayload)
}

// ErrorGetError returns the error_status_code field of a HOST_ERROR or
// FUNCTION_ERROR message as a typed ProtocolError. Calling it on any
// other type is a contract violation and returns ProtocolErrorInvalid.
func ErrorGetError(m *Message) ProtocolError {
	if !isErrorType(m.Type()) {
		violation("ErrorGetError called on a %s message", m.Type())
		return ProtocolErrorInvalid
	}
	return ProtocolError(m.readU32(offPayload))
}

func isErrorType(t MessageType) bool {
	return t == MessageTypeHostError || t == MessageTypeFunctionError
}

// fragmentTotal returns the fragment header's total field. Calling it
// on a non-fragmented type is a contract violation and returns 0.
func (m *Message) fragmentTotal() uint32 {
	if !m.Type().isFragmented() {
		violation("fragmentTotal called on a %s message", m.Type())
		return 0
	}
	return m.readU32(offFragmentTotal)
}

// fragmentCurrent returns the fragment header's current field.
// Calling it on a non-fragmented type is a contract violation and
// returns 0.
func (m *Message) fragmentCurrent() uint32 {
	if !m.Type().isFragmented() {
		violation("fragmentCurrent called on a %s message", m.Type())
		return 0
	}
	return m.readU32(offFragmentCurrent)
}

// fragmentPayload returns the information buffer of a fragmented
// message, i.e. everything after the 8-byte fragment header.
func (m *Message) fragmentPayload() []byte {
	return m.buf.asSlice()[offFragmentPayload:]
}
