package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-destinations/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const tokenPath = "/oauth/token"

// TokenSource returns an access token for one outbound call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type ClientCredentialsConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	HTTPClient   *http.Client
}

// ClientCredentials fetches a new token on every call. Token reuse is left to
// the caller.
type ClientCredentials struct {
	config     clientcredentials.Config
	httpClient *http.Client
}

func NewClientCredentials(cfg ClientCredentialsConfig) (*ClientCredentials, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if clientID == "" {
		return nil, fmt.Errorf("auth: client credentials client_id is required")
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("auth: client credentials client_secret is required")
	}
	if tokenURL == "" {
		return nil, fmt.Errorf("auth: client credentials token url is required")
	}
	return &ClientCredentials{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       append([]string(nil), cfg.Scopes...),
		},
		httpClient: cfg.HTTPClient,
	}, nil
}

func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("auth: client credentials are not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	token, err := c.config.Token(ctx)
	if err != nil {
		return "", tokenError(err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return "", &core.TransportError{Message: "auth: token endpoint returned an empty access token"}
	}
	return token.AccessToken, nil
}

// TokenURL appends the token endpoint path to an authorization server base
// URL unless it is already present.
func TokenURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" || strings.HasSuffix(base, tokenPath) {
		return base
	}
	return base + tokenPath
}

// StaticToken is a TokenSource for pre-issued tokens.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", fmt.Errorf("auth: static token is empty")
	}
	return string(t), nil
}

func tokenError(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) && retrieve != nil {
		out := &core.TransportError{
			Message: "auth: token request failed: " + err.Error(),
			Body:    append([]byte(nil), retrieve.Body...),
			Err:     err,
		}
		if retrieve.Response != nil {
			out.StatusCode = retrieve.Response.StatusCode
		}
		return out
	}
	return &core.TransportError{Message: "auth: token request failed: " + err.Error(), Err: err}
}

var (
	_ TokenSource = (*ClientCredentials)(nil)
	_ TokenSource = StaticToken("")
)
