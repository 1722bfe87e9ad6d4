// Package connectivity issues proxy settings and headers for on-premise
// destinations reached through the connectivity proxy.
package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-destinations/auth"
	"github.com/goliatone/go-destinations/bindings"
	"github.com/goliatone/go-destinations/core"
)

const (
	HeaderProxyAuthorization = "Proxy-Authorization"
	HeaderLocationID         = "SAP-Connectivity-SCC-Location_ID"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	ProxyHost    string
	ProxyPort    int
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Tokens       auth.TokenSource
}

// ConfigFromBinding maps a connectivity service binding onto client config.
// The token service url wins over the plain authorization server url.
func ConfigFromBinding(credentials bindings.ConnectivityCredentials) Config {
	tokenBase := credentials.TokenServiceURL
	if strings.TrimSpace(tokenBase) == "" {
		tokenBase = credentials.URL
	}
	return Config{
		ProxyHost:    credentials.ProxyHost,
		ProxyPort:    credentials.ProxyPort,
		TokenURL:     auth.TokenURL(tokenBase),
		ClientID:     credentials.ClientID,
		ClientSecret: credentials.ClientSecret,
	}
}

type Client struct {
	proxy  core.ProxySettings
	tokens auth.TokenSource
}

func New(cfg Config) (*Client, error) {
	host := strings.TrimSpace(cfg.ProxyHost)
	if host == "" {
		return nil, fmt.Errorf("connectivity: onpremise proxy host is required")
	}
	if cfg.ProxyPort <= 0 {
		return nil, fmt.Errorf("connectivity: onpremise proxy port is required")
	}
	tokens := cfg.Tokens
	if tokens == nil {
		httpClient := cfg.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: defaultTimeout}
		}
		credentials, err := auth.NewClientCredentials(auth.ClientCredentialsConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			HTTPClient:   httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("connectivity: %w", err)
		}
		tokens = credentials
	}
	return &Client{
		proxy:  core.ProxySettings{Protocol: "http", Host: host, Port: cfg.ProxyPort},
		tokens: tokens,
	}, nil
}

// Context fetches a fresh proxy token. The location header is only set when a
// cloud connector location is requested.
func (c *Client) Context(ctx context.Context, locationID string) (core.ConnectivityContext, error) {
	if c == nil {
		return core.ConnectivityContext{}, fmt.Errorf("connectivity: client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return core.ConnectivityContext{}, err
	}
	headers := map[string]string{
		HeaderProxyAuthorization: "Bearer " + token,
	}
	if location := strings.TrimSpace(locationID); location != "" {
		headers[HeaderLocationID] = location
	}
	return core.ConnectivityContext{Proxy: c.proxy, Headers: headers}, nil
}

var _ core.ConnectivityProvider = (*Client)(nil)
