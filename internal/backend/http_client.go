package backend

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

type httpClient struct {
	baseURL   string
	apiKey    string
	tokenFile string
	fileKey   []byte
	hc        *http.Client

	mu      sync.Mutex
	session *Session
	loaded  bool
}

// New returns an AuthClient for the given backend. A missing URL or key
// yields a stub whose every call fails with ErrNotConfigured. When secret is
// set the persisted token file is encrypted with a key derived from it.
func New(baseURL, apiKey, tokenFile, secret string) AuthClient {
	if baseURL == "" || apiKey == "" {
		slog.Warn("backend credentials missing, auth operations will be stubbed")
		return stubClient{}
	}
	c := &httpClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		tokenFile: tokenFile,
		hc:        &http.Client{Timeout: 10 * time.Second},
	}
	if secret != "" {
		key := sha256.Sum256([]byte(secret))
		c.fileKey = key[:]
	}
	return c
}

func (c *httpClient) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	host := u.Host
	if u.Port() == "" {
		if u.Scheme == "http" {
			host += ":80"
		} else {
			host += ":443"
		}
	}
	return host
}

func (c *httpClient) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.session = c.readTokenFile()
		c.loaded = true
	}

	// No stored session. Ping the health endpoint so this call still proves
	// the backend is reachable before reporting "no session".
	if c.session == nil {
		if err := c.health(ctx); err != nil {
			return nil, fmt.Errorf("session lookup: %w", err)
		}
		return nil, nil
	}

	if c.session.Expired() {
		refreshed, err := c.refresh(ctx, c.session.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("session lookup: refresh token: %w", err)
		}
		c.session = refreshed
		c.writeTokenFile(refreshed)
	}

	user, err := c.fetchUser(ctx, c.session.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	c.session.UserID = user.ID
	c.session.Email = user.Email

	cp := *c.session
	return &cp, nil
}

func (c *httpClient) GetUser(ctx context.Context) (*AuthUser, error) {
	c.mu.Lock()
	token := ""
	if c.session != nil {
		token = c.session.AccessToken
	}
	c.mu.Unlock()

	return c.fetchUser(ctx, token)
}

func (c *httpClient) SignOut(ctx context.Context, scope SignOutScope) {
	c.mu.Lock()
	token := ""
	if c.session != nil {
		token = c.session.AccessToken
	}
	c.session = nil
	c.loaded = true
	c.mu.Unlock()

	if token != "" {
		if err := c.revoke(ctx, token, scope); err != nil {
			slog.Info("sign-out: remote revoke failed", "error", err.Error())
		}
	}

	c.removeTokenFile()
}

// SetSession replaces the cached session. Used when auth events deliver a
// fresh token bundle or clear it; the persisted token file follows suit so
// disk state never outlives the event.
func (c *httpClient) SetSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.loaded = true
	if s == nil {
		c.removeTokenFile()
		return
	}
	c.writeTokenFile(s)
}

func (c *httpClient) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *httpClient) fetchUser(ctx context.Context, token string) (*AuthUser, error) {
	if token == "" {
		return nil, errors.New("no access token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("user lookup returned status %d: %s", resp.StatusCode, body)
	}

	var user AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *httpClient) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token?grant_type=refresh_token", strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token refresh returned status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
		User         struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		UserID:       result.User.ID,
		Email:        result.User.Email,
		ExpiresAt:    time.Now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}

func (c *httpClient) revoke(ctx context.Context, token string, scope SignOutScope) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/logout?scope="+string(scope), nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("logout returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *httpClient) removeTokenFile() {
	if c.tokenFile == "" {
		return
	}
	if err := os.Remove(c.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Info("token file removal failed", "error", err.Error())
	}
}

func (c *httpClient) readTokenFile() *Session {
	if c.tokenFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return nil
	}
	if c.fileKey != nil {
		plain, err := openToken(data, c.fileKey)
		if err != nil {
			slog.Info("token file cannot be decrypted, ignoring", "error", err.Error())
			return nil
		}
		data = plain
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Info("token file is corrupt, ignoring", "error", err.Error())
		return nil
	}
	if s.AccessToken == "" {
		return nil
	}
	return &s
}

func (c *httpClient) writeTokenFile(s *Session) {
	if c.tokenFile == "" {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if c.fileKey != nil {
		sealed, err := sealToken(data, c.fileKey)
		if err != nil {
			slog.Info("token file encryption failed", "error", err.Error())
			return
		}
		data = sealed
	}
	if err := os.WriteFile(c.tokenFile, data, 0o600); err != nil {
		slog.Info("token file write failed", "error", err.Error())
	}
}
