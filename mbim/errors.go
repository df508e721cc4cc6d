package mbim

import "fmt"

// ErrEmptyMessage is returned by Raw when the backing buffer is
// zero-length.
var ErrEmptyMessage = fmt.Errorf("mbim: message is empty")

// ErrCollectorNotGrowing is returned by Collector.Add when called on a
// collector that has not been initialized with Init, or that has
// already reached Complete.
var ErrCollectorNotGrowing = fmt.Errorf("mbim: collector is not accepting fragments")

// ErrCollectorIncomplete is returned by Collector.Message before the
// collector has received every expected fragment.
var ErrCollectorIncomplete = fmt.Errorf("mbim: collector has not received all fragments yet")

// ResultError is returned by the *_get_result accessors (OpenDoneGetResult,
// CloseDoneGetResult) when a _DONE message's status code is not
// StatusErrorNone. It carries the raw code and its registered name so
// callers can report both.
type ResultError struct {
	Code StatusError
	Name string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("mbim: status error %s (0x%08x)", e.Name, uint32(e.Code))
}

func newResultError(code StatusError) error {
	if code == StatusErrorNone {
		return nil
	}
	return &ResultError{Code: code, Name: StatusErrorName(code)}
}

// OutOfSequenceError is returned by Init and Collector.Add
// when a fragment arrives out of order: the first fragment seen is
// not numbered 0, or a later fragment's current does not equal the
// collector's next expected index. It carries both the expected and
// actual current/total pairs for diagnostics.
type OutOfSequenceError struct {
	ExpectedCurrent uint32
	ExpectedTotal   uint32
	ActualCurrent   uint32
	ActualTotal     uint32
}

func (e *OutOfSequenceError) Error() string {
	return fmt.Sprintf(
		"mbim: %s: expecting fragment '%d/%d', got '%d/%d'",
		ProtocolErrorName(ProtocolErrorFragmentOutOfSequence),
		e.ExpectedCurrent, e.ExpectedTotal,
		e.ActualCurrent, e.ActualTotal,
	)
}

// Code returns the protocol error code this failure corresponds to.
// It is always ProtocolErrorFragmentOutOfSequence -- the sole protocol
// error this core raises about fragments.
func (e *OutOfSequenceError) Code() ProtocolError {
	return ProtocolErrorFragmentOutOfSequence
}
