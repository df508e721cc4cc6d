package mbim_test

import (
	"fmt"
	"testing"

	"github.com/nasa-jpl/mbimcore/mbim"
)

func ExampleMessageType_String() {
	fmt.Println(mbim.MessageTypeOpen)
	fmt.Println(mbim.MessageTypeCommandDone)
	fmt.Println(mbim.MessageType(0x1234))
	// Output:
	// OPEN
	// COMMAND_DONE
	// INVALID
}

func TestStatusErrorNameFallback(t *testing.T) {
	const unregistered = mbim.StatusError(0xDEAD)
	got := mbim.StatusErrorName(unregistered)
	want := "unknown (0x0000dead)"
	if got != want {
		t.Errorf("StatusErrorName(0xDEAD) = %q, want %q", got, want)
	}
}

func TestRegisterStatusErrorNameIsVisibleToPrintable(t *testing.T) {
	mbim.RegisterStatusErrorName(77, "FRIENDLY_NAME")
	if got := mbim.StatusErrorName(77); got != "FRIENDLY_NAME" {
		t.Errorf("StatusErrorName(77) = %q, want FRIENDLY_NAME", got)
	}
}

func TestProtocolErrorNameKnown(t *testing.T) {
	if got := mbim.ProtocolErrorName(mbim.ProtocolErrorFragmentOutOfSequence); got != "FRAGMENT_OUT_OF_SEQUENCE" {
		t.Errorf("ProtocolErrorName(FragmentOutOfSequence) = %q", got)
	}
}
