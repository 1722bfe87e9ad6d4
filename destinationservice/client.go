// Package destinationservice looks up destinations in the destination
// configuration service.
package destinationservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-destinations/auth"
	"github.com/goliatone/go-destinations/bindings"
	"github.com/goliatone/go-destinations/core"
)

const lookupPath = "/destination-configuration/v1/destinations/"

const defaultTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 1 << 20

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	URI          string
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Tokens       auth.TokenSource
}

// ConfigFromBinding maps a destination service binding onto client config.
func ConfigFromBinding(credentials bindings.DestinationCredentials) Config {
	return Config{
		URI:          credentials.URI,
		TokenURL:     auth.TokenURL(credentials.URL),
		ClientID:     credentials.ClientID,
		ClientSecret: credentials.ClientSecret,
	}
}

type Client struct {
	uri    string
	tokens auth.TokenSource
	http   HTTPDoer
}

func New(cfg Config) (*Client, error) {
	uri := strings.TrimRight(strings.TrimSpace(cfg.URI), "/")
	if uri == "" {
		return nil, fmt.Errorf("destinationservice: service uri is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		credentials, err := auth.NewClientCredentials(auth.ClientCredentialsConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			HTTPClient:   httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("destinationservice: %w", err)
		}
		tokens = credentials
	}
	return &Client{uri: uri, tokens: tokens, http: httpClient}, nil
}

// Lookup reads one destination by name. Failures are returned as
// *core.TransportError so the resolver can attach the upstream payload.
func (c *Client) Lookup(ctx context.Context, name string) (core.DestinationPayload, error) {
	if c == nil {
		return core.DestinationPayload{}, fmt.Errorf("destinationservice: client is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.DestinationPayload{}, fmt.Errorf("destinationservice: destination name is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return core.DestinationPayload{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.uri+lookupPath+url.PathEscape(name), nil)
	if err != nil {
		return core.DestinationPayload{}, fmt.Errorf("destinationservice: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return core.DestinationPayload{}, &core.TransportError{Message: err.Error(), Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, defaultResponseBodyLimit))
	if err != nil {
		return core.DestinationPayload{}, &core.TransportError{
			Message:    "destinationservice: read response: " + err.Error(),
			StatusCode: res.StatusCode,
			Err:        err,
		}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return core.DestinationPayload{}, &core.TransportError{
			Message:    fmt.Sprintf("destination lookup for %s failed with status code %d", name, res.StatusCode),
			StatusCode: res.StatusCode,
			Body:       body,
		}
	}

	var payload core.DestinationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.DestinationPayload{}, &core.TransportError{
			Message:    "destinationservice: decode response: " + err.Error(),
			StatusCode: res.StatusCode,
			Body:       body,
			Err:        err,
		}
	}
	if len(payload.DestinationConfiguration) == 0 {
		return core.DestinationPayload{}, &core.TransportError{
			Message:    "destinationservice: response has no destinationConfiguration for " + name,
			StatusCode: res.StatusCode,
			Body:       body,
		}
	}
	return payload, nil
}

var _ core.DestinationStore = (*Client)(nil)
