package rewards

import (
	"context"
	"strconv"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestRegisterReferralCreditsOnce(t *testing.T) {
	ctx := context.Background()
	engine, st := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = engine.RegisterOrVisit(ctx, 2, "bob")
	require.NoError(t, err)

	applied, err := engine.RegisterReferral(ctx, 2, "alice")
	require.NoError(t, err)
	require.True(t, applied)

	balance, err := engine.Balance(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(50), balance)

	acct, err := st.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, acct.ReferrerID)
	require.Equal(t, int64(1), *acct.ReferrerID)

	// Same arguments again: no double credit.
	applied, err = engine.RegisterReferral(ctx, 2, "alice")
	require.NoError(t, err)
	require.False(t, applied)

	balance, err = engine.Balance(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(50), balance)
}

func TestRegisterReferralIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	engine, st := testEngine(clockwork.NewFakeClockAt(testDay1))

	for id, name := range map[int64]string{1: "alice", 2: "bob", 3: "carol"} {
		_, err := engine.RegisterOrVisit(ctx, id, name)
		require.NoError(t, err)
	}

	applied, err := engine.RegisterReferral(ctx, 2, "alice")
	require.NoError(t, err)
	require.True(t, applied)

	// A later referral for the same invitee is a silent no-op.
	applied, err = engine.RegisterReferral(ctx, 2, "carol")
	require.NoError(t, err)
	require.False(t, applied)

	acct, err := st.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, int64(1), *acct.ReferrerID)

	balance, err := engine.Balance(ctx, 3)
	require.NoError(t, err)
	require.Zero(t, balance, "carol must not earn from the rejected attribution")
}

func TestRegisterReferralRejectsSelfAndUnknown(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 1, "alice")
	require.NoError(t, err)

	applied, err := engine.RegisterReferral(ctx, 1, "alice")
	require.NoError(t, err)
	require.False(t, applied, "self-referral is forbidden")

	applied, err = engine.RegisterReferral(ctx, 1, strconv.FormatInt(1, 10))
	require.NoError(t, err)
	require.False(t, applied, "self-referral by raw id is forbidden")

	applied, err = engine.RegisterReferral(ctx, 1, "nobody")
	require.NoError(t, err)
	require.False(t, applied)

	applied, err = engine.RegisterReferral(ctx, 1, "")
	require.NoError(t, err)
	require.False(t, applied)
}

func TestRegisterReferralResolvesNumericToken(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 777, "alice")
	require.NoError(t, err)
	_, err = engine.RegisterOrVisit(ctx, 2, "bob")
	require.NoError(t, err)

	applied, err := engine.RegisterReferral(ctx, 2, "777")
	require.NoError(t, err)
	require.True(t, applied)

	balance, err := engine.Balance(ctx, 777)
	require.NoError(t, err)
	require.Equal(t, int64(50), balance)
}

func TestReferralStats(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 1, "alice")
	require.NoError(t, err)
	for id, name := range map[int64]string{2: "bob", 3: "carol"} {
		_, err := engine.RegisterOrVisit(ctx, id, name)
		require.NoError(t, err)
		applied, err := engine.RegisterReferral(ctx, id, "alice")
		require.NoError(t, err)
		require.True(t, applied)
	}

	invited, earned, err := engine.ReferralStats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), invited)
	require.Equal(t, int64(100), earned)
}
