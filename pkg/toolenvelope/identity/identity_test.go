package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope/identity"
)

type fakeValidator struct {
	claims *identity.Claims
	err    error
}

func (f fakeValidator) Validate(token string) (*identity.Claims, error) {
	return f.claims, f.err
}

func TestResolveActorPrefersClientID(t *testing.T) {
	v := fakeValidator{claims: &identity.Claims{ClientID: "ops-console"}}
	actor := identity.ResolveActor("token", "sess-1", v)
	require.Equal(t, "ops-console", actor)
}

func TestResolveActorFallsBackToSession(t *testing.T) {
	v := fakeValidator{err: assertErr}
	actor := identity.ResolveActor("bad-token", "sess-1", v)
	require.Equal(t, "session:sess-1", actor)
}

func TestResolveActorFallsBackToAnonymous(t *testing.T) {
	actor := identity.ResolveActor("", "", nil)
	require.Equal(t, "anonymous", actor)
}

var assertErr = errTokenInvalid{}

type errTokenInvalid struct{}

func (errTokenInvalid) Error() string { return "invalid token" }
