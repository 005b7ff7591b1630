package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/nmehta6/socialdesk/configs"
	"github.com/nmehta6/socialdesk/internal/models"
	"github.com/nmehta6/socialdesk/internal/repository"
	"github.com/nmehta6/socialdesk/internal/transfer"
)

type InstagramService interface {
	// Callback runs the single-shot pipeline for the Instagram redirect:
	// exchange the code for a long-lived token, resolve the business
	// account, then insert a new connection row. Unlike Facebook there is
	// no existing-row reconciliation.
	Callback(ctx context.Context, code, userID string) error

	RefreshToken(ctx context.Context, sc *models.SocialConnection) error
}

type instagramService struct {
	cfg      config.Config
	sc       repository.SocialConnectionRepository
	hc       *http.Client
	apiURL   string
	graphURL string
}

func NewInstagramService(cfg config.Config, sc repository.SocialConnectionRepository) InstagramService {
	return &instagramService{
		cfg:      cfg,
		sc:       sc,
		hc:       &http.Client{Timeout: 15 * time.Second},
		apiURL:   "https://api.instagram.com",
		graphURL: "https://graph.instagram.com",
	}
}

func (s *instagramService) Callback(ctx context.Context, code, userID string) error {
	if code == "" {
		slog.Info("instagram callback without code")
		return ErrMissingCode
	}
	if userID == "" {
		slog.Info("instagram callback without authenticated user")
		return ErrUnauthenticated
	}

	slog.Info("instagram callback started", "op", "ig.exchange", "code", truncateCode(code))

	token, err := s.exchangeCodeForToken(code)
	if err != nil {
		slog.Error("instagram code exchange failed", "op", "ig.exchange", "code", truncateCode(code), "error", err.Error())
		return fmt.Errorf("exchange code: %w", ErrExchangeFailed)
	}

	account, err := s.getAccountInfo(token.LongLivedToken)
	if err != nil {
		slog.Error("instagram account lookup failed", "op", "ig.account", "error", err.Error())
		return fmt.Errorf("resolve account: %w", ErrExchangeFailed)
	}

	accountID := account.AccountID
	_, err = s.sc.Create(ctx, &models.SocialConnection{
		UserID:      userID,
		IGAccountID: &accountID,
		AccessToken: token.LongLivedToken,
		TokenExpiry: token.ExpiresAt,
	})
	if err != nil {
		slog.Error("instagram connection insert failed", "op", "ig.persist", "error", err.Error())
		return fmt.Errorf("insert connection: %w", ErrPersistenceFailed)
	}

	slog.Info("instagram connection created", "op", "ig.persist", "account_id", account.AccountID)
	return nil
}

func (s *instagramService) getShortLivedToken(code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", s.cfg.InstagramClientID)
	data.Set("client_secret", s.cfg.InstagramClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", s.cfg.InstagramRedirectURI)
	data.Set("code", code)

	resp, err := s.hc.Post(
		s.apiURL+"/oauth/access_token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("empty short-lived token")
	}

	return result.AccessToken, nil
}

func (s *instagramService) getLongLivedToken(shortLivedToken string) (*transfer.InstagramToken, error) {
	reqURL := fmt.Sprintf(
		"%s/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		s.graphURL,
		url.QueryEscape(s.cfg.InstagramClientSecret),
		url.QueryEscape(shortLivedToken),
	)

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := getJSON(s.hc, reqURL, &result); err != nil {
		return nil, err
	}

	return &transfer.InstagramToken{
		AccessToken:    result.AccessToken,
		LongLivedToken: result.AccessToken,
		ExpiresAt:      GetExpiresAt(result.ExpiresIn),
	}, nil
}

func (s *instagramService) exchangeCodeForToken(code string) (*transfer.InstagramToken, error) {
	shortLived, err := s.getShortLivedToken(code)
	if err != nil {
		return nil, fmt.Errorf("short-lived token: %w", err)
	}

	longLived, err := s.getLongLivedToken(shortLived)
	if err != nil {
		return nil, fmt.Errorf("long-lived token: %w", err)
	}

	return longLived, nil
}

func (s *instagramService) getAccountInfo(accessToken string) (*transfer.InstagramAccountInfo, error) {
	reqURL := fmt.Sprintf(
		"%s/me?fields=id,username&access_token=%s",
		s.graphURL,
		url.QueryEscape(accessToken),
	)

	var info transfer.InstagramAccountInfo
	if err := getJSON(s.hc, reqURL, &info); err != nil {
		return nil, err
	}
	if info.AccountID == "" {
		return nil, fmt.Errorf("empty account id")
	}

	return &info, nil
}

func (s *instagramService) RefreshToken(ctx context.Context, sc *models.SocialConnection) error {
	if sc.IGAccountID == nil {
		return fmt.Errorf("not an instagram connection")
	}

	reqURL := fmt.Sprintf(
		"%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		s.graphURL,
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

	return s.sc.UpdateToken(ctx, sc.ID, result.AccessToken, GetExpiresAt(result.ExpiresIn))
}
