package mbim

import "testing"

func TestBufferRetainReleaseRefCount(t *testing.T) {
	b := allocateZeroed(4)
	if got := b.refCount(); got != 1 {
		t.Fatalf("fresh buffer refcount = %d, want 1", got)
	}
	b.retain()
	if got := b.refCount(); got != 2 {
		t.Fatalf("after retain, refcount = %d, want 2", got)
	}
	b.release()
	if got := b.refCount(); got != 1 {
		t.Fatalf("after release, refcount = %d, want 1", got)
	}
}

func TestBufferAppendGrowsLength(t *testing.T) {
	b := allocateZeroed(4)
	b.append([]byte{1, 2, 3})
	if got := b.length(); got != 7 {
		t.Fatalf("length after append = %d, want 7", got)
	}
}

func TestBufferSetLengthTruncatesAndExtends(t *testing.T) {
	b := newBufferFromBytes([]byte{1, 2, 3, 4, 5})
	b.setLength(3)
	if got := b.length(); got != 3 {
		t.Fatalf("length after truncate = %d, want 3", got)
	}
	b.setLength(6)
	if got := b.length(); got != 6 {
		t.Fatalf("length after extend = %d, want 6", got)
	}
	if b.data[5] != 0 {
		t.Fatalf("extended bytes must be zero, got %d", b.data[5])
	}
}

func TestBufferDupTruncatesToRequestedLength(t *testing.T) {
	b := newBufferFromBytes([]byte{1, 2, 3, 4, 5})
	d := b.dup(3)
	if d.length() != 3 {
		t.Fatalf("dup(3).length() = %d, want 3", d.length())
	}
	// mutating the source must not affect the dup
	b.data[0] = 0xFF
	if d.data[0] == 0xFF {
		t.Fatal("dup shares storage with its source")
	}
}
