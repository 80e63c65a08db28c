package canonicalize

import "testing"

func TestCanonicaliseDefaults(t *testing.T) {
	in := RawInput{EventName: "", Slot: -5, Signature: "", SourceEventSequence: -1}
	tup := Canonicalise(in, 7)
	if tup.Slot != 0 {
		t.Errorf("expected slot 0, got %d", tup.Slot)
	}
	if tup.SourceEventSequence != 7 {
		t.Errorf("expected fallback seq 7, got %d", tup.SourceEventSequence)
	}
	if tup.EventName != "" {
		t.Errorf("expected empty event name")
	}
}

func TestTupleOrdering(t *testing.T) {
	a := Tuple{Slot: 10, Signature: "AAA", SourceEventSequence: 0, EventName: "taskCreated"}
	b := Tuple{Slot: 10, Signature: "AAA", SourceEventSequence: 1, EventName: "taskClaimed"}
	c := Tuple{Slot: 100, Signature: "ZZZ", SourceEventSequence: 0, EventName: "taskCompleted"}

	if !a.Less(b) {
		t.Errorf("expected a < b")
	}
	if !b.Less(c) {
		t.Errorf("expected b < c")
	}
	if c.Less(a) {
		t.Errorf("expected c not < a")
	}
}

func TestTupleHashStable(t *testing.T) {
	t1 := Tuple{Slot: 10, Signature: "AAA", SourceEventSequence: 1, EventName: "taskClaimed"}
	h1 := TupleHash(t1)
	h2 := TupleHash(t1)
	if h1 != h2 {
		t.Errorf("expected stable hash, got %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestEncodeBytesForField(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03}
	if got := EncodeBytesForField("task_pda", b); got == "" {
		t.Errorf("expected non-empty base58")
	}
	if got := EncodeBytesForField("signature", b); got != "010203" {
		t.Errorf("expected hex 010203, got %s", got)
	}
}
