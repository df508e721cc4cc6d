package mbim_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nasa-jpl/mbimcore/mbim"
)

func TestCollectorReassemblesTwoFragments(t *testing.T) {
	payload := append(bytes.Repeat([]byte{0xAA}, 100), bytes.Repeat([]byte{0xBB}, 50)...)
	whole := mbim.CommandNew(3, payload)
	frags := mbim.Split(whole, 20+100) // forces exactly two fragments: 100 then 50

	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(frags))
	}

	first := frags[0].Bytes()
	second := frags[1].Bytes()

	c, err := mbim.Init(mbim.NewFromBytes(first))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if c.Complete() {
		t.Fatal("collector should not be complete after only the first of two fragments")
	}
	if err := c.Add(mbim.NewFromBytes(second)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !c.Complete() {
		t.Fatal("collector should be complete after both fragments")
	}

	reassembled, err := c.Message()
	if err != nil {
		t.Fatalf("Message: %v", err)
	}

	if reassembled.Length() != 12+8+150 {
		t.Errorf("reassembled length = %d, want %d", reassembled.Length(), 12+8+150)
	}
	if reassembled.Type() != mbim.MessageTypeCommand {
		t.Errorf("reassembled type = %v, want COMMAND", reassembled.Type())
	}

	raw, err := reassembled.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	gotPayload := raw[20:]
	if !cmp.Equal(gotPayload, payload) {
		t.Errorf("reassembled payload mismatch: %s", cmp.Diff(gotPayload, payload))
	}
}

func TestCollectorOutOfSequenceOnGap(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 300)
	whole := mbim.CommandNew(1, payload)
	frags := mbim.Split(whole, 20+100) // three fragments: 100, 100, 100

	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(frags))
	}

	c, err := mbim.Init(mbim.NewFromBytes(frags[0].Bytes()))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	// skip fragment 1, jump straight to fragment 2
	err = c.Add(mbim.NewFromBytes(frags[2].Bytes()))
	if err == nil {
		t.Fatal("expected an out-of-sequence error")
	}
	oos, ok := err.(*mbim.OutOfSequenceError)
	if !ok {
		t.Fatalf("expected *mbim.OutOfSequenceError, got %T: %v", err, err)
	}
	if oos.ExpectedCurrent != 1 || oos.ActualCurrent != 2 {
		t.Errorf("got expected=%d actual=%d, want expected=1 actual=2", oos.ExpectedCurrent, oos.ActualCurrent)
	}
	if oos.ExpectedTotal != 3 || oos.ActualTotal != 3 {
		t.Errorf("got expectedTotal=%d actualTotal=%d, want 3/3", oos.ExpectedTotal, oos.ActualTotal)
	}
}

func TestCollectorRejectsFirstFragmentNotZero(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 300)
	whole := mbim.CommandNew(1, payload)
	frags := mbim.Split(whole, 20+100)

	_, err := mbim.Init(mbim.NewFromBytes(frags[1].Bytes()))
	if err == nil {
		t.Fatal("expected Init to reject a first fragment numbered 1")
	}
	oos, ok := err.(*mbim.OutOfSequenceError)
	if !ok {
		t.Fatalf("expected *mbim.OutOfSequenceError, got %T", err)
	}
	if oos.ExpectedCurrent != 0 || oos.ActualCurrent != 1 {
		t.Errorf("got expected=%d actual=%d, want expected=0 actual=1", oos.ExpectedCurrent, oos.ActualCurrent)
	}
}

func TestCollectorSingleFragmentIsImmediatelyComplete(t *testing.T) {
	m := mbim.CommandNew(1, []byte("short"))
	c, err := mbim.Init(m)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !c.Complete() {
		t.Fatal("a message with total=1 should be immediately complete")
	}
	reassembled, err := c.Message()
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	raw, _ := reassembled.Raw()
	origRaw, _ := m.Raw()
	if !cmp.Equal(raw, origRaw) {
		t.Errorf("single-fragment reassembly changed the message: %s", cmp.Diff(origRaw, raw))
	}
}

func TestCollectorMessageFailsBeforeComplete(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 300)
	whole := mbim.CommandNew(1, payload)
	frags := mbim.Split(whole, 20+100)

	c, _ := mbim.Init(mbim.NewFromBytes(frags[0].Bytes()))
	if _, err := c.Message(); err != mbim.ErrCollectorIncomplete {
		t.Errorf("Message() before completion = %v, want ErrCollectorIncomplete", err)
	}
}

func TestSplitJoinRoundTripAcrossSizes(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5, 0x6, 0x7, 0x8}, 257) // 1028 bytes
	whole := mbim.CommandDoneNew(42, payload)
	origRaw, _ := whole.Raw()

	for _, maxFragmentSize := range []int{21, 25, 40, 64, 128, 500} {
		frags := mbim.Split(whole, maxFragmentSize)
		if frags == nil {
			t.Fatalf("maxFragmentSize=%d: expected a split", maxFragmentSize)
		}

		c, err := mbim.Init(mbim.NewFromBytes(frags[0].Bytes()))
		if err != nil {
			t.Fatalf("maxFragmentSize=%d: Init: %v", maxFragmentSize, err)
		}
		for _, f := range frags[1:] {
			if err := c.Add(mbim.NewFromBytes(f.Bytes())); err != nil {
				t.Fatalf("maxFragmentSize=%d: Add: %v", maxFragmentSize, err)
			}
		}
		if !c.Complete() {
			t.Fatalf("maxFragmentSize=%d: expected collector to be complete", maxFragmentSize)
		}
		reassembled, err := c.Message()
		if err != nil {
			t.Fatalf("maxFragmentSize=%d: Message: %v", maxFragmentSize, err)
		}
		raw, err := reassembled.Raw()
		if err != nil {
			t.Fatalf("maxFragmentSize=%d: Raw: %v", maxFragmentSize, err)
		}
		if !cmp.Equal(raw, origRaw) {
			t.Errorf("maxFragmentSize=%d: reassembled message != original: %s", maxFragmentSize, cmp.Diff(origRaw, raw))
		}
	}
}
