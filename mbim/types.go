package mbim

import "fmt"

// MessageType is the 32-bit discriminant at offset 0 of every MBIM
// message header. Values outside the closed set below parse
// successfully as MessageTypeInvalid for inspection, but constructors
// reject them.
type MessageType uint32

// The closed set of MBIM message types.
const (
	MessageTypeInvalid MessageType = 0x00000000
	MessageTypeOpen    MessageType = 0x00000001
	MessageTypeClose   MessageType = 0x00000002
	MessageTypeCommand MessageType = 0x00000003

	MessageTypeHostError MessageType = 0x00000004

	MessageTypeOpenDone      MessageType = 0x80000001
	MessageTypeCloseDone     MessageType = 0x80000002
	MessageTypeCommandDone   MessageType = 0x80000003
	MessageTypeFunctionError MessageType = 0x80000004
	MessageTypeIndication    MessageType = 0x80000007
)

var messageTypeNames = map[MessageType]string{
	MessageTypeInvalid:       "INVALID",
	MessageTypeOpen:          "OPEN",
	MessageTypeClose:         "CLOSE",
	MessageTypeCommand:       "COMMAND",
	MessageTypeHostError:     "HOST_ERROR",
	MessageTypeOpenDone:      "OPEN_DONE",
	MessageTypeCloseDone:     "CLOSE_DONE",
	MessageTypeCommandDone:   "COMMAND_DONE",
	MessageTypeFunctionError: "FUNCTION_ERROR",
	MessageTypeIndication:    "INDICATION",
}

// String returns the type's symbolic name, or "INVALID" for any value
// outside the closed set -- unrecognized types parse as invalid for
// inspection purposes.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "INVALID"
}

// valid reports whether t is one of the ten defined message types.
func (t MessageType) valid() bool {
	_, ok := messageTypeNames[t]
	return ok
}

// isFragmented reports whether messages of this type carry a fragment
// header (COMMAND, COMMAND_DONE, INDICATION).
func (t MessageType) isFragmented() bool {
	switch t {
	case MessageTypeCommand, MessageTypeCommandDone, MessageTypeIndication:
		return true
	default:
		return false
	}
}

// IsFragmentedType reports whether messages of type t carry a
// fragment header (COMMAND, COMMAND_DONE, INDICATION) and so may need
// to be routed through Init/Collector.Add instead of used directly.
func IsFragmentedType(t MessageType) bool {
	return t.isFragmented()
}

// StatusError is the 32-bit status code carried by OPEN_DONE and
// CLOSE_DONE messages. The enumeration of codes beyond StatusErrorNone
// belongs to an external table; this package only knows that zero
// means success and provides a name-lookup callback that table can
// populate.
type StatusError uint32

// StatusErrorNone is the only status code this core interprets
// directly: it is success. StatusErrorInvalid is the defensive
// sentinel returned on a contract violation.
const (
	StatusErrorNone    StatusError = 0
	StatusErrorInvalid StatusError = 0xFFFFFFFF
)

// ProtocolError is the 32-bit error code carried by HOST_ERROR and
// FUNCTION_ERROR messages, and raised by the Fragment Collector. Like
// StatusError, the bulk of the enumeration lives in an external table;
// this package defines only the one code it raises itself.
type ProtocolError uint32

// ProtocolErrorFragmentOutOfSequence is the sole protocol error this
// core raises about fragments. ProtocolErrorInvalid is the defensive
// sentinel returned on a contract violation.
const (
	ProtocolErrorFragmentOutOfSequence ProtocolError = 0x00000006
	ProtocolErrorInvalid               ProtocolError = 0xFFFFFFFF
)

var (
	statusErrorNames   = map[StatusError]string{StatusErrorNone: "NONE"}
	protocolErrorNames = map[ProtocolError]string{
		ProtocolErrorFragmentOutOfSequence: "FRAGMENT_OUT_OF_SEQUENCE",
	}
)

// RegisterStatusErrorName installs a symbolic name for a status error
// code. The full Status Error enumeration belongs to a layer above
// this core, which calls this at init time to make
// StatusErrorName/Printable report meaningful names for its codes.
func RegisterStatusErrorName(code StatusError, name string) {
	statusErrorNames[code] = name
}

// RegisterProtocolErrorName installs a symbolic name for a protocol
// error code, analogous to RegisterStatusErrorName.
func RegisterProtocolErrorName(code ProtocolError, name string) {
	protocolErrorNames[code] = name
}

// StatusErrorName returns the registered name for code, or a
// formatted placeholder if nothing has been registered for it.
func StatusErrorName(code StatusError) string {
	if name, ok := statusErrorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%08x)", uint32(code))
}

// ProtocolErrorName returns the registered name for code, or a
// formatted placeholder if nothing has been registered for it.
func ProtocolErrorName(code ProtocolError) string {
	if name, ok := protocolErrorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%08x)", uint32(code))
}
