package rewards

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestCompleteTaskCreditsOnce(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)

	applied, err := engine.CompleteTask(ctx, 100, "follow_x", 15)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = engine.CompleteTask(ctx, 100, "follow_x", 15)
	require.NoError(t, err)
	require.False(t, applied, "a task id joins the set at most once")

	applied, err = engine.CompleteTask(ctx, 100, "join_discord", 20)
	require.NoError(t, err)
	require.True(t, applied)

	balance, err := engine.Balance(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, int64(35), balance)
}

func TestCompleteTaskRejectsNonPositiveReward(t *testing.T) {
	ctx := context.Background()
	engine, _ := testEngine(clockwork.NewFakeClockAt(testDay1))

	_, err := engine.RegisterOrVisit(ctx, 100, "alice")
	require.NoError(t, err)

	_, err = engine.CompleteTask(ctx, 100, "follow_x", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}
