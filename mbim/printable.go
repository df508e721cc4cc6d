package mbim

import (
	"fmt"
	"strings"
)

// Printable returns a multi-line human-readable dump of m, with every
// line prefixed by linePrefix. It always emits the header block
// (length, type name and numeric value in hex, transaction id), then
// branches on type: OPEN, the _DONE types and the error types get a
// Contents block, CLOSE gets none, and the three fragmented types get
// a Fragment header block. Per-service
// payload dumps are out of scope here; callers append to this string.
func Printable(m *Message, linePrefix string) string {
	var b strings.Builder

	msgType := m.Type()
	fmt.Fprintf(&b, "%sHeader:\n", linePrefix)
	fmt.Fprintf(&b, "%s  length      = %d\n", linePrefix, m.Length())
	fmt.Fprintf(&b, "%s  type        = %s (0x%08x)\n", linePrefix, msgType, uint32(msgType))
	fmt.Fprintf(&b, "%s  transaction = %d\n", linePrefix, m.TransactionID())

	switch msgType {
	case MessageTypeInvalid:
		violation("Printable called on an INVALID message")

	case MessageTypeOpen:
		fmt.Fprintf(&b, "%sContents:\n", linePrefix)
		fmt.Fprintf(&b, "%s  max_control_transfer = %d\n", linePrefix, OpenGetMaxControlTransfer(m))

	case MessageTypeClose:
		// no contents

	case MessageTypeOpenDone:
		status := OpenDoneGetStatusCode(m)
		fmt.Fprintf(&b, "%sContents:\n", linePrefix)
		fmt.Fprintf(&b, "%s  status error = '%s' (0x%08x)\n", linePrefix, StatusErrorName(status), uint32(status))

	case MessageTypeCloseDone:
		status := CloseDoneGetStatusCode(m)
		fmt.Fprintf(&b, "%sContents:\n", linePrefix)
		fmt.Fprintf(&b, "%s  status error = '%s' (0x%08x)\n", linePrefix, StatusErrorName(status), uint32(status))

	case MessageTypeHostError, MessageTypeFunctionError:
		errCode := ErrorGetError(m)
		fmt.Fprintf(&b, "%sContents:\n", linePrefix)
		fmt.Fprintf(&b, "%s  error = '%s' (0x%08x)\n", linePrefix, ProtocolErrorName(errCode), uint32(errCode))

	case MessageTypeCommand, MessageTypeCommandDone, MessageTypeIndication:
		fmt.Fprintf(&b, "%sFragment header:\n", linePrefix)
		fmt.Fprintf(&b, "%s  total   = %d\n", linePrefix, m.fragmentTotal())
		fmt.Fprintf(&b, "%s  current = %d\n", linePrefix, m.fragmentCurrent())
	}

	return b.String()
}
