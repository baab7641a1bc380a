package rewards

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"rebltasks-bot/internal/store"
)

var testDay1 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func testEngine(clock clockwork.Clock) (*Engine, *store.Memory) {
	st := store.NewMemory()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(st, clock, log, Config{}), st
}

func TestRegisterOrVisitCreatesWithDefaults(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	acct, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), acct.TelegramID)
	require.Equal(t, "alice", acct.Username)
	require.Zero(t, acct.Balance)
	require.Nil(t, acct.LastClaimAt)
	require.Nil(t, acct.ReferrerID)
	require.False(t, acct.WalletVerified)
}

func TestRegisterOrVisitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)
	_, err = engine.Credit(ctx, 100, 25, ReasonAdmin)
	require.NoError(t, err)

	// A revisit must not reset mutable state.
	acct, err := engine.RegisterOrVisit(ctx, 100, "alice-renamed")
	require.NoError(t, err)
	require.Equal(t, int64(25), acct.Balance)
	require.Equal(t, "alice", acct.Username)
}

func TestMarkGateJoined(t *testing.T) {
	ctx := context.Background()
	engine, st := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)
	require.NoError(t, engine.MarkGateJoined(ctx, 100))

	acct, err := st.Get(ctx, 100)
	require.NoError(t, err)
	require.True(t, acct.JoinedChannel)
}

func TestRegisterDevice(t *testing.T) {
	ctx := context.Background()
	engine, st := testEngine(clockwork.NewFakeClockAt(testDay1))

	err := engine.RegisterDevice(ctx, 100, "tok-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)
	require.NoError(t, engine.RegisterDevice(ctx, 100, "tok-1"))

	acct, err := st.Get(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "tok-1", acct.DeviceToken)
}
