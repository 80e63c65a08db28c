package taxonomy

import "testing"

func TestLookupKnown(t *testing.T) {
	fam, typ, ok := Lookup("taskCreated")
	if !ok || fam != FamilyTask || typ != TypeDiscovered {
		t.Fatalf("unexpected lookup result: %v %v %v", fam, typ, ok)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, _, ok := Lookup("unknownEventFromProgram")
	if ok {
		t.Fatalf("expected unknown event to miss taxonomy")
	}
}

func TestAllFamiliesRepresented(t *testing.T) {
	want := map[Family]bool{
		FamilyTask: false, FamilyDispute: false, FamilyAgent: false,
		FamilyProtocol: false, FamilySpeculation: false,
	}
	for _, n := range Names() {
		fam, _, _ := Lookup(n)
		want[fam] = true
	}
	for fam, seen := range want {
		if !seen {
			t.Errorf("no event names map to family %s", fam)
		}
	}
}

func TestTaskTransitions(t *testing.T) {
	if !TaskTransitionAllowed(TaskStateNone, TaskStateDiscovered) {
		t.Error("none -> discovered should be allowed")
	}
	if TaskTransitionAllowed(TaskStateNone, TaskStateCompleted) {
		t.Error("none -> completed should not be allowed")
	}
	if !TaskTransitionAllowed(TaskStateClaimed, TaskStateDisputed) {
		t.Error("claimed -> disputed should be allowed")
	}
}

func TestDisputeTransitions(t *testing.T) {
	if !DisputeTransitionAllowed(DisputeStateResolved, DisputeStateCleanedUp) {
		t.Error("resolved -> cleaned_up should be allowed")
	}
	if DisputeTransitionAllowed(DisputeStateInitiated, DisputeStateCleanedUp) {
		t.Error("initiated -> cleaned_up should not be allowed")
	}
	if !DisputeTransitionAllowed(DisputeStateVoteCast, DisputeStateVoteCast) {
		t.Error("repeated vote_cast should be allowed")
	}
}
