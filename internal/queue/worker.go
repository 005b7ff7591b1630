package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (j *Queue) HandleRefreshConnectionTask(ctx context.Context, task *asynq.Task) error {
	var payload RefreshConnectionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return j.RefreshConnection(ctx, payload.ConnectionID)
}

func (j *Queue) RefreshConnection(ctx context.Context, connectionID int64) error {
	sc, isExist, err := j.sc.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if !isExist {
		// Row was removed after the task was enqueued. Nothing to do.
		slog.Info("connection no longer exists", "connection_id", connectionID)
		return nil
	}

	switch sc.Provider() {
	case "facebook":
		err = j.fb.RefreshToken(ctx, sc)
	case "instagram":
		err = j.ig.RefreshToken(ctx, sc)
	default:
		return fmt.Errorf("connection %d has no provider", connectionID)
	}
	if err != nil {
		slog.Info("token refresh failed", "connection_id", connectionID, "error", err.Error())
		return err
	}

	slog.Info("token refreshed", "connection_id", connectionID, "provider", sc.Provider())
	return nil
}
