package mbim

import (
	"fmt"
	"log"
)

// DebugChecks controls whether a contract violation (wrong message
// type passed to a typed accessor, an empty buffer where one is
// required, and similar programmer errors) panics after being logged.
// Production builds leave this false and rely on the defensive
// default return described alongside each accessor; set it true in
// tests or development builds to make violations loud.
var DebugChecks = false

// violation reports a contract violation: a precondition that a
// caller, not the protocol, failed to uphold. It always logs; when
// DebugChecks is set it also panics, mirroring a debug build of the
// original C library's g_return_val_if_fail.
func violation(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("mbim: contract violation: %s", msg)
	if DebugChecks {
		panic("mbim: contract violation: " + msg)
	}
}
