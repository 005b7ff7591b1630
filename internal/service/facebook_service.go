package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	config "github.com/nmehta6/socialdesk/configs"
	"github.com/nmehta6/socialdesk/internal/models"
	"github.com/nmehta6/socialdesk/internal/repository"
	"github.com/nmehta6/socialdesk/internal/transfer"
)

// Facebook page tokens obtained through the Graph API carry no expiry of
// their own; connections are re-validated on this fixed horizon.
const facebookTokenLifetime = 60 * 24 * time.Hour

type FacebookService interface {
	// Callback runs the single-shot pipeline for the Facebook redirect:
	// exchange the code, resolve the managed page, then update the existing
	// (user, page) connection in place or insert a new one.
	Callback(ctx context.Context, code, userID string) error

	RefreshToken(ctx context.Context, sc *models.SocialConnection) error
}

type facebookService struct {
	cfg      config.Config
	sc       repository.SocialConnectionRepository
	hc       *http.Client
	graphURL string
	endpoint oauth2.Endpoint
}

func NewFacebookService(cfg config.Config, sc repository.SocialConnectionRepository) FacebookService {
	return &facebookService{
		cfg:      cfg,
		sc:       sc,
		hc:       &http.Client{Timeout: 15 * time.Second},
		graphURL: "https://graph.facebook.com/v19.0",
		endpoint: facebook.Endpoint,
	}
}

func (s *facebookService) Callback(ctx context.Context, code, userID string) error {
	if code == "" {
		slog.Info("facebook callback without code")
		return ErrMissingCode
	}
	if userID == "" {
		slog.Info("facebook callback without authenticated user")
		return ErrUnauthenticated
	}

	slog.Info("facebook callback started", "op", "fb.exchange", "code", truncateCode(code))

	token, err := s.exchangeCode(ctx, code)
	if err != nil {
		slog.Error("facebook code exchange failed", "op", "fb.exchange", "code", truncateCode(code), "error", err.Error())
		return fmt.Errorf("exchange code: %w", ErrExchangeFailed)
	}

	page, err := s.firstManagedPage(token.AccessToken)
	if err != nil {
		slog.Error("facebook page lookup failed", "op", "fb.pages", "error", err.Error())
		return fmt.Errorf("resolve page: %w", ErrExchangeFailed)
	}

	expiry := token.ExpiresAt
	if expiry.IsZero() {
		expiry = time.Now().Add(facebookTokenLifetime)
	}

	// At most one connection per (user, page): re-authorizations update the
	// existing row instead of inserting a duplicate.
	existing, found, err := s.sc.GetByUserAndPage(ctx, userID, page.ID)
	if err != nil {
		slog.Error("facebook connection lookup failed", "op", "fb.persist", "error", err.Error())
		return fmt.Errorf("lookup connection: %w", ErrPersistenceFailed)
	}

	if found {
		if err := s.sc.UpdateToken(ctx, existing.ID, page.AccessToken, expiry); err != nil {
			slog.Error("facebook connection update failed", "op", "fb.persist", "error", err.Error())
			return fmt.Errorf("update connection: %w", ErrPersistenceFailed)
		}
		slog.Info("facebook connection refreshed", "op", "fb.persist", "page_id", page.ID)
		return nil
	}

	pageID := page.ID
	_, err = s.sc.Create(ctx, &models.SocialConnection{
		UserID:      userID,
		FBPageID:    &pageID,
		AccessToken: page.AccessToken,
		TokenExpiry: expiry,
	})
	if err != nil {
		slog.Error("facebook connection insert failed", "op", "fb.persist", "error", err.Error())
		return fmt.Errorf("insert connection: %w", ErrPersistenceFailed)
	}

	slog.Info("facebook connection created", "op", "fb.persist", "page_id", page.ID)
	return nil
}

func (s *facebookService) exchangeCode(ctx context.Context, code string) (*transfer.FacebookToken, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     s.cfg.FacebookClientID,
		ClientSecret: s.cfg.FacebookClientSecret,
		RedirectURL:  s.cfg.FacebookRedirectURI,
		Scopes:       []string{"pages_show_list", "pages_read_engagement"},
		Endpoint:     s.endpoint,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.hc)
	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	return &transfer.FacebookToken{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	}, nil
}

func (s *facebookService) firstManagedPage(userToken string) (*transfer.FacebookPage, error) {
	reqURL := fmt.Sprintf("%s/me/accounts?access_token=%s", s.graphURL, url.QueryEscape(userToken))

	var pages transfer.FacebookPageList
	if err := getJSON(s.hc, reqURL, &pages); err != nil {
		return nil, err
	}
	if len(pages.Data) == 0 {
		return nil, fmt.Errorf("no managed pages for this account")
	}

	return &pages.Data[0], nil
}

func (s *facebookService) RefreshToken(ctx context.Context, sc *models.SocialConnection) error {
	if sc.FBPageID == nil {
		return fmt.Errorf("not a facebook connection")
	}

	reqURL := fmt.Sprintf(
		"%s/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		s.graphURL,
		url.QueryEscape(s.cfg.FacebookClientID),
		url.QueryEscape(s.cfg.FacebookClientSecret),
		url.QueryEscape(sc.AccessToken),
	)

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := getJSON(s.hc, reqURL, &result); err != nil {
		slog.Info(err.Error())
		return err
	}

	expiry := GetExpiresAt(result.ExpiresIn)
	if result.ExpiresIn == 0 {
		expiry = time.Now().Add(facebookTokenLifetime)
	}

	return s.sc.UpdateToken(ctx, sc.ID, result.AccessToken, expiry)
}
