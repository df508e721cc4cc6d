package mbim_test

import (
	"bytes"
	"testing"

	"github.com/nasa-jpl/mbimcore/mbim"
)

func TestSplitDeclinesWhenMessageFits(t *testing.T) {
	m := mbim.CommandNew(1, bytes.Repeat([]byte{0xAB}, 10))
	raw, _ := m.Raw()
	if frags := mbim.Split(m, len(raw)); frags != nil {
		t.Fatalf("expected Split to decline (nil) when the message already fits, got %d fragments", len(frags))
	}
	if frags := mbim.Split(m, len(raw)+1); frags != nil {
		t.Fatalf("expected Split to decline with headroom to spare, got %d fragments", len(frags))
	}
}

func TestSplitScenario200Over64(t *testing.T) {
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte(i)
	}
	m := mbim.CommandNew(1, payload)

	frags := mbim.Split(m, 64)
	if len(frags) != 5 {
		t.Fatalf("expected 5 fragments, got %d", len(frags))
	}
	wantLens := []int{44, 44, 44, 44, 24}
	for i, f := range frags {
		if len(f.Payload) != wantLens[i] {
			t.Errorf("fragment %d payload length = %d, want %d", i, len(f.Payload), wantLens[i])
		}
		if f.Total != 5 {
			t.Errorf("fragment %d total = %d, want 5", i, f.Total)
		}
		if f.Current != uint32(i) {
			t.Errorf("fragment %d current = %d, want %d", i, f.Current, i)
		}
	}
	last := frags[len(frags)-1]
	if last.Length() != 44 {
		t.Errorf("last fragment header.length = %d, want 44", last.Length())
	}
}

func TestSplitPartitionsPayloadExactly(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01, 0x02, 0x03}, 137) // 411 bytes, not a multiple of most fragment sizes
	m := mbim.CommandNew(5, payload)

	for _, maxFragmentSize := range []int{21, 32, 64, 100, 257} {
		frags := mbim.Split(m, maxFragmentSize)
		if frags == nil {
			continue // message fits already at this size
		}
		var reassembled []byte
		for _, f := range frags {
			reassembled = append(reassembled, f.Payload...)
		}
		if !bytes.Equal(reassembled, payload) {
			t.Errorf("maxFragmentSize=%d: concatenated fragment payloads do not equal the source payload", maxFragmentSize)
		}
	}
}

func TestSplitPreservesTypeAndTransactionID(t *testing.T) {
	m := mbim.IndicationNew(0xBEEF, bytes.Repeat([]byte{0x7}, 100))
	frags := mbim.Split(m, 40)
	if len(frags) == 0 {
		t.Fatal("expected the 120-byte message to split at maxFragmentSize=40")
	}
	for _, f := range frags {
		if f.Type != mbim.MessageTypeIndication {
			t.Errorf("fragment type = %v, want INDICATION", f.Type)
		}
		if f.TransactionID != 0xBEEF {
			t.Errorf("fragment transaction id = %x, want 0xBEEF", f.TransactionID)
		}
	}
}
