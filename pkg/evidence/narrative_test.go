package evidence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
)

func TestBuildNarrativeLinesAndAnomalyIDs(t *testing.T) {
	events := sampleEvents()
	validation := Validation{
		Errors: []string{`seq=2 task="task-1": invalid transition claimed -> claimed`},
	}

	n, err := BuildNarrative(events, validation)
	require.NoError(t, err)
	require.Len(t, n.Lines, 3) // 2 events + 1 validation line
	require.Contains(t, n.Lines[1], "| anomaly:")
	require.Len(t, n.AnomalyIDs, 1)
	require.Len(t, n.DeterministicHash, 64)
}

func TestBuildNarrativeCapsAtOneHundredEvents(t *testing.T) {
	events := make([]projection.TimelineEvent, 150)
	for i := range events {
		events[i] = projection.TimelineEvent{Seq: uint32(i + 1), Type: "discovered", SourceEventName: "taskCreated"}
	}

	n, err := BuildNarrative(events, Validation{})
	require.NoError(t, err)
	require.Len(t, n.Lines, 100)
}
