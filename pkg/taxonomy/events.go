// Package taxonomy is the single source of truth for the coordination
// protocol's closed event-name set, its five families, and the
// event_name -> internal type mapping the projection and replay
// engines fold over. Keeping this in one enumeration (rather than
// scattering name checks across packages) is the "dynamic tag
// dispatch" guidance of the design notes: one table, exhaustively
// matched.
package taxonomy

// Family classifies an event name into one of the five protocol
// families described in the event taxonomy.
type Family string

const (
	FamilyTask         Family = "task"
	FamilyDispute      Family = "dispute"
	FamilyAgent        Family = "agent"
	FamilyProtocol     Family = "protocol"
	FamilySpeculation  Family = "speculation"
	FamilyUnknown      Family = "unknown"
)

// Type is the internal state family a TimelineEvent is tagged with.
type Type string

const (
	TypeDiscovered           Type = "discovered"
	TypeClaimed              Type = "claimed"
	TypeCompleted            Type = "completed"
	TypeCancelled            Type = "cancelled"
	TypeDependentCreated     Type = "dependent_created"
	TypeDisputeInitiated     Type = "dispute:initiated"
	TypeDisputeVoteCast      Type = "dispute:vote_cast"
	TypeDisputeResolved      Type = "dispute:resolved"
	TypeDisputeExpired       Type = "dispute:expired"
	TypeDisputeCancelled     Type = "dispute:cancelled"
	TypeArbiterVotesCleaned  Type = "dispute:arbiter_votes_cleaned_up"
	TypeAgentRegistered      Type = "agent:registered"
	TypeAgentUpdated         Type = "agent:updated"
	TypeAgentDeregistered    Type = "agent:deregistered"
	TypeAgentSuspended       Type = "agent:suspended"
	TypeAgentUnsuspended     Type = "agent:unsuspended"
	TypeProtocolInitialized  Type = "protocol:initialized"
	TypeStateUpdated         Type = "protocol:state_updated"
	TypeRewardDistributed    Type = "protocol:reward_distributed"
	TypeRateLimitHit         Type = "protocol:rate_limit_hit"
	TypeMigrationCompleted   Type = "protocol:migration_completed"
	TypeProtocolVersionBump  Type = "protocol:version_updated"
	TypeRateLimitsUpdated    Type = "protocol:rate_limits_updated"
	TypeProtocolFeeUpdated   Type = "protocol:fee_updated"
	TypeReputationChanged    Type = "protocol:reputation_changed"
	TypeBondDeposited        Type = "protocol:bond_deposited"
	TypeBondLocked           Type = "protocol:bond_locked"
	TypeBondReleased         Type = "protocol:bond_released"
	TypeBondSlashed          Type = "protocol:bond_slashed"
	TypeSpeculativeCommit    Type = "protocol:speculative_commitment_created"
	TypeSpeculationStarted   Type = "speculation:started"
	TypeSpeculationConfirmed Type = "speculation:confirmed"
	TypeSpeculationAborted   Type = "speculation:aborted"
)

// eventEntry binds a raw event_name to its family and internal type.
type eventEntry struct {
	Family Family
	Type   Type
}

// table is the closed event-name taxonomy. Names not present here are
// unknown and must be recorded in telemetry, not guessed at.
var table = map[string]eventEntry{
	// task family
	"taskCreated":          {FamilyTask, TypeDiscovered},
	"taskClaimed":          {FamilyTask, TypeClaimed},
	"taskCompleted":        {FamilyTask, TypeCompleted},
	"taskCancelled":        {FamilyTask, TypeCancelled},
	"dependentTaskCreated": {FamilyTask, TypeDependentCreated},

	// dispute family
	"disputeInitiated":        {FamilyDispute, TypeDisputeInitiated},
	"disputeVoteCast":         {FamilyDispute, TypeDisputeVoteCast},
	"disputeResolved":         {FamilyDispute, TypeDisputeResolved},
	"disputeExpired":          {FamilyDispute, TypeDisputeExpired},
	"disputeCancelled":        {FamilyDispute, TypeDisputeCancelled},
	"arbiterVotesCleanedUp":   {FamilyDispute, TypeArbiterVotesCleaned},

	// agent family
	"agentRegistered":   {FamilyAgent, TypeAgentRegistered},
	"agentUpdated":      {FamilyAgent, TypeAgentUpdated},
	"agentDeregistered": {FamilyAgent, TypeAgentDeregistered},
	"agentSuspended":    {FamilyAgent, TypeAgentSuspended},
	"agentUnsuspended":  {FamilyAgent, TypeAgentUnsuspended},

	// protocol family
	"protocolInitialized":      {FamilyProtocol, TypeProtocolInitialized},
	"stateUpdated":             {FamilyProtocol, TypeStateUpdated},
	"rewardDistributed":        {FamilyProtocol, TypeRewardDistributed},
	"rateLimitHit":             {FamilyProtocol, TypeRateLimitHit},
	"migrationCompleted":       {FamilyProtocol, TypeMigrationCompleted},
	"protocolVersionUpdated":   {FamilyProtocol, TypeProtocolVersionBump},
	"rateLimitsUpdated":        {FamilyProtocol, TypeRateLimitsUpdated},
	"protocolFeeUpdated":       {FamilyProtocol, TypeProtocolFeeUpdated},
	"reputationChanged":        {FamilyProtocol, TypeReputationChanged},
	"bondDeposited":            {FamilyProtocol, TypeBondDeposited},
	"bondLocked":               {FamilyProtocol, TypeBondLocked},
	"bondReleased":             {FamilyProtocol, TypeBondReleased},
	"bondSlashed":              {FamilyProtocol, TypeBondSlashed},
	"speculativeCommitmentCreated": {FamilyProtocol, TypeSpeculativeCommit},

	// speculation (bond) family
	"speculation_started":   {FamilySpeculation, TypeSpeculationStarted},
	"speculation_confirmed": {FamilySpeculation, TypeSpeculationConfirmed},
	"speculation_aborted":   {FamilySpeculation, TypeSpeculationAborted},
}

// Lookup maps a raw event_name to its family and internal type. ok is
// false for any name outside the closed taxonomy.
func Lookup(eventName string) (Family, Type, bool) {
	e, ok := table[eventName]
	if !ok {
		return FamilyUnknown, "", false
	}
	return e.Family, e.Type, true
}

// IsKnown reports whether eventName is part of the closed taxonomy.
func IsKnown(eventName string) bool {
	_, ok := table[eventName]
	return ok
}

// Names returns the full closed set of recognised event names, sorted
// is not guaranteed; callers needing determinism should sort the result.
func Names() []string {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	return names
}
