package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	config "github.com/nmehta6/socialdesk/configs"
	"github.com/nmehta6/socialdesk/internal/models"
	"github.com/nmehta6/socialdesk/internal/repository"
)

const (
	FacebookAuthURL  = "https://www.facebook.com/v19.0/dialog/oauth"
	InstagramAuthURL = "https://www.instagram.com/oauth/authorize"
)

type ConnectionService interface {
	GetAuthURL(ctx context.Context, provider, state string) string
	List(ctx context.Context, userID string) ([]*models.SocialConnection, error)
}

type connectionService struct {
	cfg config.Config
	sc  repository.SocialConnectionRepository
}

func NewConnectionService(cfg config.Config, sc repository.SocialConnectionRepository) ConnectionService {
	return &connectionService{
		cfg: cfg,
		sc:  sc,
	}
}

func (s *connectionService) GetAuthURL(ctx context.Context, provider, state string) string {
	switch provider {
	case "facebook":
		params := url.Values{}
		params.Add("client_id", s.cfg.FacebookClientID)
		params.Add("scope", "pages_show_list,pages_read_engagement")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.FacebookRedirectURI)
		params.Add("state", state)

		return fmt.Sprintf("%s?%s", FacebookAuthURL, params.Encode())

	case "instagram":
		params := url.Values{}
		params.Add("client_id", s.cfg.InstagramClientID)
		params.Add("scope", "instagram_business_basic")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.InstagramRedirectURI)
		params.Add("state", state)

		return fmt.Sprintf("%s?%s", InstagramAuthURL, params.Encode())

	default:
		return ""
	}
}

func (s *connectionService) List(ctx context.Context, userID string) ([]*models.SocialConnection, error) {
	if userID == "" {
		err := errors.New("user id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	connections, err := s.sc.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social connections")
	}

	return connections, nil
}
