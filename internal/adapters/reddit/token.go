package reddit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"hypewatch/pkg/errors"
	"hypewatch/pkg/logger"
)

const defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// oauthResponse is the Reddit token endpoint response
type oauthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// TokenProvider exchanges client credentials for a bearer token.
// The token is cached in memory for the lifetime of the run; batch runs are
// short enough that refresh-on-expiry is not needed.
type TokenProvider struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	userAgent    string
	log          *logger.Logger

	mu    sync.Mutex
	token string
}

// NewTokenProvider creates a token provider for the Reddit OAuth endpoint
func NewTokenProvider(clientID, clientSecret, userAgent string) *TokenProvider {
	return &TokenProvider{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenURL:     defaultTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		log:          logger.Get().With("component", "reddit_token"),
	}
}

// Token returns the cached bearer token, fetching one on first use
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" {
		return p.token, nil
	}

	if p.clientID == "" || p.clientSecret == "" {
		return "", errors.Wrap(errors.ErrAuth, "reddit client credentials not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", errors.Wrap(err, "create oauth request")
	}

	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "reddit oauth request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errors.Wrapf(errors.ErrAuth, "reddit oauth returned status %d: %s", resp.StatusCode, string(body))
	}

	var oauth oauthResponse
	if err := json.NewDecoder(resp.Body).Decode(&oauth); err != nil {
		return "", errors.Wrap(err, "decode oauth response")
	}

	if oauth.AccessToken == "" {
		return "", errors.Wrap(errors.ErrAuth, "reddit oauth response missing access_token")
	}

	p.token = oauth.AccessToken
	p.log.Debug("Reddit OAuth token obtained", "expires_in", oauth.ExpiresIn)

	return p.token, nil
}

// SetTokenURL overrides the token endpoint (used in tests)
func (p *TokenProvider) SetTokenURL(url string) {
	p.tokenURL = url
}
