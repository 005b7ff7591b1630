package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nmehta6/socialdesk/internal/queue"
	"github.com/nmehta6/socialdesk/internal/repository"
)

// refreshWindow is how far ahead of expiry the sweep enqueues refreshes.
const refreshWindow = 30 * time.Minute

type TokenRefreshJob struct {
	sc     repository.SocialConnectionRepository
	client *asynq.Client
}

func NewTokenRefreshJob(sc repository.SocialConnectionRepository, client *asynq.Client) *TokenRefreshJob {
	return &TokenRefreshJob{
		sc:     sc,
		client: client,
	}
}

// RefreshTokens sweeps connections whose tokens expire inside the window
// and hands each one to the worker queue.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	windowEnd := currentTime.Add(refreshWindow)

	connections, err := c.sc.ListExpiring(ctx, currentTime, windowEnd)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, sc := range connections {
		err := queue.EnqueueRefresh(c.client, queue.RefreshConnectionPayload{ConnectionID: sc.ID})
		if err != nil {
			slog.Info("unable to enqueue refresh", "connection_id", sc.ID, "error", err.Error())
		}
	}
}
