package policy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope/policy"
)

func TestAccessListDenylistWins(t *testing.T) {
	a := policy.NewAccessList([]string{"ops-console"}, []string{"ops-console"})
	require.False(t, a.IsAllowed("ops-console"))
}

func TestAccessListEmptyAllowlistPermitsAll(t *testing.T) {
	a := policy.NewAccessList(nil, []string{"bad-actor"})
	require.True(t, a.IsAllowed("anyone"))
	require.False(t, a.IsAllowed("bad-actor"))
}

func TestAccessListNonEmptyAllowlistRestricts(t *testing.T) {
	a := policy.NewAccessList([]string{"ops-console"}, nil)
	require.True(t, a.IsAllowed("ops-console"))
	require.False(t, a.IsAllowed("someone-else"))
}

func TestCELPolicyAllowsMatchingExpression(t *testing.T) {
	p, err := policy.NewCELPolicy(`command == "backfill" && actor != "anonymous"`)
	require.NoError(t, err)

	allowed, err := p.Allow(policy.Input{Actor: "ops-console", Command: "backfill"})
	require.NoError(t, err)
	require.True(t, allowed)

	denied, err := p.Allow(policy.Input{Actor: "anonymous", Command: "backfill"})
	require.NoError(t, err)
	require.False(t, denied)
}

func TestCELPolicyRejectsBadExpression(t *testing.T) {
	_, err := policy.NewCELPolicy(`actor +++ command`)
	require.Error(t, err)
}
