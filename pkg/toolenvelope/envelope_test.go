package toolenvelope_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/config"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope"
	"github.com/Mindburn-Labs/replayspine/pkg/toolerrors"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxSlotWindow:     1000,
		MaxEventCount:     100,
		MaxConcurrentJobs: 4,
		ToolTimeoutMs:     200,
		MaxPayloadBytes:   1 << 20,
	}
}

func okBody(output map[string]interface{}, count int) toolenvelope.Body {
	return func(ctx context.Context) (map[string]interface{}, int, error) {
		return output, count, nil
	}
}

func TestExecuteHappyPath(t *testing.T) {
	env := toolenvelope.New(testConfig())

	resp, err := env.Execute(context.Background(), toolenvelope.Request{
		Command: toolenvelope.CommandStatus,
		Params:  map[string]interface{}{},
	}, okBody(map[string]interface{}{"store": map[string]interface{}{"cursor": "slot-10"}}, 1))

	require.NoError(t, err)
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "replay.status.output.v1", resp.Schema)
	require.Contains(t, resp.Sections, "store")
}

func TestExecuteInvalidInputRejectedBeforeBodyRuns(t *testing.T) {
	env := toolenvelope.New(testConfig())
	called := false

	_, err := env.Execute(context.Background(), toolenvelope.Request{
		Command: toolenvelope.CommandBackfill,
		Params:  map[string]interface{}{"to_slot": "not-a-number"},
	}, func(ctx context.Context) (map[string]interface{}, int, error) {
		called = true
		return nil, 0, nil
	})

	require.Error(t, err)
	toolErr, ok := err.(*toolerrors.Error)
	require.True(t, ok)
	require.Equal(t, toolerrors.CodeInvalidInput, toolErr.Code)
	require.False(t, called)
}

func TestExecuteAccessDenied(t *testing.T) {
	cfg := testConfig()
	cfg.Denylist = []string{"anonymous"}
	env := toolenvelope.New(cfg)

	_, err := env.Execute(context.Background(), toolenvelope.Request{
		Command: toolenvelope.CommandStatus,
	}, okBody(map[string]interface{}{}, 0))

	toolErr, ok := err.(*toolerrors.Error)
	require.True(t, ok)
	require.Equal(t, toolerrors.CodeAccessDenied, toolErr.Code)
}

func TestExecuteSlotWindowExceeded(t *testing.T) {
	env := toolenvelope.New(testConfig())

	_, err := env.Execute(context.Background(), toolenvelope.Request{
		Command:    toolenvelope.CommandBackfill,
		Params:     map[string]interface{}{},
		SlotWindow: toolenvelope.SlotWindow{FromSlot: 0, ToSlot: 5000, HasRange: true},
	}, okBody(map[string]interface{}{}, 0))

	toolErr, ok := err.(*toolerrors.Error)
	require.True(t, ok)
	require.Equal(t, toolerrors.CodeSlotWindow, toolErr.Code)
}

func TestExecuteEventCapExceeded(t *testing.T) {
	env := toolenvelope.New(testConfig())

	_, err := env.Execute(context.Background(), toolenvelope.Request{
		Command: toolenvelope.CommandCompare,
		Params:  map[string]interface{}{},
	}, okBody(map[string]interface{}{"summary": "ok"}, 10_000))

	toolErr, ok := err.(*toolerrors.Error)
	require.True(t, ok)
	require.Equal(t, toolerrors.CodeEventCapExceeded, toolErr.Code)
}

// P8: cancellation completes within one scheduling quantum and
// returns replay.cancelled.
// never closed: bodies below ignore ctx entirely so the envelope's own
// timeout/cancellation race — not the body's cooperation — is what
// produces the result, keeping these tests deterministic.
var neverDone = make(chan struct{})

func TestExecuteCancellationReturnsCancelled(t *testing.T) {
	env := toolenvelope.New(testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := env.Execute(ctx, toolenvelope.Request{
		Command: toolenvelope.CommandIncident,
		Params:  map[string]interface{}{},
	}, func(ctx context.Context) (map[string]interface{}, int, error) {
		<-neverDone
		return nil, 0, nil
	})
	elapsed := time.Since(start)

	toolErr, ok := err.(*toolerrors.Error)
	require.True(t, ok)
	require.Equal(t, toolerrors.CodeCancelled, toolErr.Code)
	require.Less(t, elapsed, 200*time.Millisecond)
}

func TestExecuteTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ToolTimeoutMs = 10
	env := toolenvelope.New(cfg)

	_, err := env.Execute(context.Background(), toolenvelope.Request{
		Command: toolenvelope.CommandStatus,
		Params:  map[string]interface{}{},
	}, func(ctx context.Context) (map[string]interface{}, int, error) {
		<-neverDone
		return nil, 0, nil
	})

	toolErr, ok := err.(*toolerrors.Error)
	require.True(t, ok)
	require.Equal(t, toolerrors.CodeTimeout, toolErr.Code)
}

// P7: concurrent Execute calls never admit more than
// max_concurrent_jobs bodies at once.
func TestExecuteNeverExceedsMaxConcurrentJobs(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentJobs = 2
	env := toolenvelope.New(cfg)

	var inFlight, maxSeen int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.Execute(context.Background(), toolenvelope.Request{
				Command: toolenvelope.CommandStatus,
				Params:  map[string]interface{}{},
			}, func(ctx context.Context) (map[string]interface{}, int, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&maxSeen)
					if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return map[string]interface{}{}, 0, nil
			})
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, int(maxSeen), 2)
}

func TestExecuteRedactionMasksDefaultFields(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultRedactions = []string{"signature"}
	env := toolenvelope.New(cfg)

	resp, err := env.Execute(context.Background(), toolenvelope.Request{
		Command: toolenvelope.CommandCompare,
		Params:  map[string]interface{}{},
	}, okBody(map[string]interface{}{
		"anomalies": []interface{}{map[string]interface{}{"signature": "AAA", "code": "missing"}},
	}, 1))

	require.NoError(t, err)
	anomalies := resp.Sections["anomalies"].([]interface{})
	first := anomalies[0].(map[string]interface{})
	require.Equal(t, "***REDACTED***", first["signature"])
	require.Equal(t, "missing", first["code"])
}

// concreteCursor mirrors timeline.Cursor's shape without importing
// pkg/timeline, confirming redaction reaches struct-typed section
// values (not just map[string]interface{} literals) once they're
// normalised by toGenericTree.
type concreteCursor struct {
	Slot      uint64 `json:"slot"`
	Signature string `json:"signature"`
}

func TestExecuteRedactionReachesConcreteStructSections(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultRedactions = []string{"signature"}
	env := toolenvelope.New(cfg)

	resp, err := env.Execute(context.Background(), toolenvelope.Request{
		Command: toolenvelope.CommandStatus,
		Params:  map[string]interface{}{},
	}, okBody(map[string]interface{}{
		"store": concreteCursor{Slot: 10, Signature: "should-be-masked"},
	}, 0))

	require.NoError(t, err)
	store := resp.Sections["store"].(map[string]interface{})
	require.Equal(t, "***REDACTED***", store["signature"])
	require.EqualValues(t, 10, store["slot"])
}

func TestExecuteActorPacingRejectsBurstExcess(t *testing.T) {
	cfg := testConfig()
	cfg.ActorRatePerSec = 1
	cfg.ActorRateBurst = 1
	env := toolenvelope.New(cfg)

	req := toolenvelope.Request{
		Command:   toolenvelope.CommandStatus,
		SessionID: "same-actor",
		Params:    map[string]interface{}{},
	}

	_, err := env.Execute(context.Background(), req, okBody(map[string]interface{}{}, 0))
	require.NoError(t, err)

	_, err = env.Execute(context.Background(), req, okBody(map[string]interface{}{}, 0))
	toolErr, ok := err.(*toolerrors.Error)
	require.True(t, ok)
	require.Equal(t, toolerrors.CodeConcurrencyLimit, toolErr.Code)
}

func TestInFlightReportsGateCount(t *testing.T) {
	env := toolenvelope.New(testConfig())
	count, ok := env.InFlight()
	require.True(t, ok)
	require.Equal(t, 0, count)
}
