package taxonomy

// TaskState is a task's lifecycle state.
type TaskState string

const (
	TaskStateNone       TaskState = "none"
	TaskStateDiscovered TaskState = "discovered"
	TaskStateClaimed    TaskState = "claimed"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
	TaskStateCancelled  TaskState = "cancelled"
	TaskStateDisputed   TaskState = "disputed"
)

// taskTransitions enumerates every transition accepted without
// comment. Anything not listed here either can't happen (discovered
// is always reachable only from none) or is flagged per §4.B.1.
var taskTransitions = map[TaskState]map[TaskState]bool{
	TaskStateNone:       {TaskStateDiscovered: true},
	TaskStateDiscovered: {TaskStateClaimed: true, TaskStateCancelled: true},
	TaskStateClaimed: {
		TaskStateCompleted: true,
		TaskStateFailed:    true,
		TaskStateCancelled: true,
		TaskStateDisputed:  true,
	},
	TaskStateDisputed: {
		TaskStateCompleted: true,
		TaskStateFailed:    true,
		TaskStateCancelled: true,
	},
}

// TaskTransitionAllowed reports whether from->to is a valid task
// transition per the lifecycle table. It never errors — callers
// combine this with whether `from` itself is known (§4.B.1:
// transition_conflict vs transition_violation) to classify the event.
func TaskTransitionAllowed(from, to TaskState) bool {
	if from == to {
		return true // idempotent re-observation, e.g. duplicate claim on same state
	}
	next, ok := taskTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// TypeToTaskState maps a TimelineEvent's internal Type to the task
// state it drives the task machine into. ok is false for types that
// don't participate in the task machine (dispute/agent/protocol
// events).
func TypeToTaskState(t Type) (TaskState, bool) {
	switch t {
	case TypeDiscovered, TypeDependentCreated:
		return TaskStateDiscovered, true
	case TypeClaimed:
		return TaskStateClaimed, true
	case TypeCompleted:
		return TaskStateCompleted, true
	case TypeCancelled:
		return TaskStateCancelled, true
	case TypeDisputeInitiated:
		return TaskStateDisputed, true
	default:
		return "", false
	}
}

// DisputeState is a dispute's lifecycle state.
type DisputeState string

const (
	DisputeStateNone       DisputeState = "none"
	DisputeStateInitiated  DisputeState = "dispute:initiated"
	DisputeStateVoteCast   DisputeState = "dispute:vote_cast"
	DisputeStateResolved   DisputeState = "dispute:resolved"
	DisputeStateExpired    DisputeState = "dispute:expired"
	DisputeStateCancelled  DisputeState = "dispute:cancelled"
	DisputeStateCleanedUp  DisputeState = "dispute:arbiter_votes_cleaned_up"
)

var disputeTransitions = map[DisputeState]map[DisputeState]bool{
	DisputeStateNone:      {DisputeStateInitiated: true},
	DisputeStateInitiated: {DisputeStateVoteCast: true, DisputeStateResolved: true, DisputeStateExpired: true, DisputeStateCancelled: true},
	DisputeStateVoteCast:  {DisputeStateVoteCast: true, DisputeStateResolved: true, DisputeStateExpired: true, DisputeStateCancelled: true},
	DisputeStateResolved:  {DisputeStateCleanedUp: true},
	DisputeStateExpired:   {DisputeStateCleanedUp: true},
	DisputeStateCancelled: {DisputeStateCleanedUp: true},
}

// DisputeTransitionAllowed reports whether from->to is a valid dispute
// transition. arbiterVotesCleanedUp is terminal-housekeeping and only
// legal from resolved/expired/cancelled, encoded directly in the table.
func DisputeTransitionAllowed(from, to DisputeState) bool {
	if from == to && from == DisputeStateVoteCast {
		return true // repeated votes stay in vote_cast
	}
	next, ok := disputeTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// TypeToDisputeState maps a TimelineEvent's internal Type to the
// dispute state it drives the dispute machine into.
func TypeToDisputeState(t Type) (DisputeState, bool) {
	switch t {
	case TypeDisputeInitiated:
		return DisputeStateInitiated, true
	case TypeDisputeVoteCast:
		return DisputeStateVoteCast, true
	case TypeDisputeResolved:
		return DisputeStateResolved, true
	case TypeDisputeExpired:
		return DisputeStateExpired, true
	case TypeDisputeCancelled:
		return DisputeStateCancelled, true
	case TypeArbiterVotesCleaned:
		return DisputeStateCleanedUp, true
	default:
		return "", false
	}
}
