package queue

import (
	"github.com/nmehta6/socialdesk/internal/repository"
	"github.com/nmehta6/socialdesk/internal/service"
)

type Queue struct {
	sc repository.SocialConnectionRepository
	fb service.FacebookService
	ig service.InstagramService
}

func NewQueue(
	sc repository.SocialConnectionRepository,
	fb service.FacebookService,
	ig service.InstagramService) *Queue {
	return &Queue{
		sc: sc,
		fb: fb,
		ig: ig,
	}
}

const TaskTypeRefreshConnection = "refresh:connection"

type RefreshConnectionPayload struct {
	ConnectionID int64 `json:"connection_id"`
}
