package rewards

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// CompleteTask marks taskID done for the user and credits reward on the
// first completion. Task identifiers form a set, so repeats are no-ops.
func (e *Engine) CompleteTask(ctx context.Context, userID int64, taskID string, reward int64) (bool, error) {
	if reward <= 0 {
		return false, ErrInvalidAmount
	}
	applied, err := e.store.CompleteTask(ctx, userID, taskID, reward)
	if err != nil {
		return false, fmt.Errorf("complete task: %w", err)
	}
	if applied {
		e.log.WithFields(logrus.Fields{"user_id": userID, "task_id": taskID}).Debug("Task completed")
	}
	return applied, nil
}
