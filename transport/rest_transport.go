package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-destinations/core"
	goerrors "github.com/goliatone/go-errors"
)

const KindREST = "rest"

const defaultRESTClientTimeout = 30 * time.Second
const defaultRESTResponseBodyLimit int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProxyClientFactory builds the client used for requests routed through a
// forward proxy.
type ProxyClientFactory func(proxyURL *url.URL) HTTPDoer

// RESTTransport sends destination requests over net/http. Proxied requests go
// through a client built per proxy address.
type RESTTransport struct {
	Client               HTTPDoer
	ProxyClient          ProxyClientFactory
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64

	mu            sync.Mutex
	proxiedClient map[string]HTTPDoer
}

func NewRESTTransport(client HTTPDoer) *RESTTransport {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	return &RESTTransport{
		Client:               client,
		ProxyClient:          DefaultProxyClient,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
		proxiedClient:        map[string]HTTPDoer{},
	}
}

func (*RESTTransport) Kind() string {
	return KindREST
}

func (t *RESTTransport) Send(ctx context.Context, cfg core.EffectiveRequestConfig) (core.TransportResponse, error) {
	if t == nil || t.Client == nil {
		return core.TransportResponse{}, restError(
			nil,
			goerrors.CategoryInternal,
			"transport: rest transport requires an http client",
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}
	target, err := ResolveURL(cfg.BaseURL, cfg.Path, cfg.Query)
	if err != nil {
		return core.TransportResponse{}, err
	}

	body, contentType, err := encodeBody(cfg.Body)
	if err != nil {
		return core.TransportResponse{}, restError(
			err,
			goerrors.CategoryBadInput,
			"transport: encode request body",
			map[string]any{"method": method},
		)
	}

	requestCtx := ctx
	cancel := func() {}
	if cfg.Timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	}
	defer cancel()

	client := t.Client
	if cfg.Proxy != nil {
		proxyClient, err := t.proxyClient(*cfg.Proxy)
		if err != nil {
			return core.TransportResponse{}, err
		}
		client = proxyClient
		requestCtx = withProxyConnectHeader(requestCtx, cfg.Headers)
	}

	httpReq, err := http.NewRequestWithContext(requestCtx, method, target.String(), body)
	if err != nil {
		return core.TransportResponse{}, restError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			map[string]any{"method": method, "url": target.String()},
		)
	}
	for key, value := range t.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, value := range cfg.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if cfg.BasicAuth.Username != "" || cfg.BasicAuth.Password != "" {
		httpReq.SetBasicAuth(cfg.BasicAuth.Username, cfg.BasicAuth.Password)
	}
	if cfg.Proxy != nil {
		stripTunnelHeaders(httpReq)
	}

	startedAt := time.Now().UTC()
	httpRes, err := client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, &core.TransportError{Message: err.Error(), Err: err}
	}
	defer httpRes.Body.Close()

	maxBodyBytes := resolveResponseBodyLimit(cfg.MaxResponseBodyBytes, t.MaxResponseBodyBytes)
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, maxBodyBytes+1))
	if err != nil {
		return core.TransportResponse{}, &core.TransportError{
			Message:    "transport: read response body: " + err.Error(),
			StatusCode: httpRes.StatusCode,
			Err:        err,
		}
	}
	if int64(len(payload)) > maxBodyBytes {
		return core.TransportResponse{}, restError(
			nil,
			goerrors.CategoryExternal,
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", maxBodyBytes),
			map[string]any{
				"status_code":      httpRes.StatusCode,
				"response_limit_b": maxBodyBytes,
			},
		)
	}
	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		return core.TransportResponse{}, &core.TransportError{
			Message:    fmt.Sprintf("request failed with status code %d", httpRes.StatusCode),
			StatusCode: httpRes.StatusCode,
			Body:       payload,
		}
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       payload,
		Metadata: map[string]any{
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"kind":        KindREST,
		},
	}, nil
}

// ResolveURL joins a destination base URL with a request path and query. An
// absolute path replaces the base URL. Query parameters from the base, the path
// and the query map are combined, the map winning.
func ResolveURL(baseURL string, path string, query map[string]string) (*url.URL, error) {
	baseURL = strings.TrimSpace(baseURL)
	path = strings.TrimSpace(path)

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, invalidURLError(err, baseURL)
	}
	if path != "" {
		ref, err := url.Parse(path)
		if err != nil {
			return nil, invalidURLError(err, path)
		}
		if ref.IsAbs() {
			parsed = ref
		} else {
			parsed.Path = strings.TrimRight(parsed.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
			parsed.RawPath = ""
			if ref.RawQuery != "" {
				values := parsed.Query()
				for key, items := range ref.Query() {
					values[key] = items
				}
				parsed.RawQuery = values.Encode()
			}
		}
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, restError(
			nil,
			goerrors.CategoryBadInput,
			"transport: request url must be absolute",
			map[string]any{"url": parsed.String()},
		)
	}
	if len(query) > 0 {
		values := parsed.Query()
		for key, value := range query {
			if strings.TrimSpace(key) == "" {
				continue
			}
			values.Set(strings.TrimSpace(key), value)
		}
		parsed.RawQuery = values.Encode()
	}
	return parsed, nil
}

func invalidURLError(err error, raw string) error {
	return restError(
		err,
		goerrors.CategoryBadInput,
		"transport: invalid request url",
		map[string]any{"url": raw},
	)
}

func (t *RESTTransport) proxyClient(settings core.ProxySettings) (HTTPDoer, error) {
	address := settings.String()
	proxyURL, err := url.Parse(address)
	if err != nil || strings.TrimSpace(settings.Host) == "" {
		return nil, restError(
			nil,
			goerrors.CategoryBadInput,
			"transport: invalid proxy address",
			map[string]any{"proxy": address},
		)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.proxiedClient == nil {
		t.proxiedClient = map[string]HTTPDoer{}
	}
	if client, ok := t.proxiedClient[address]; ok {
		return client, nil
	}
	factory := t.ProxyClient
	if factory == nil {
		factory = DefaultProxyClient
	}
	client := factory(proxyURL)
	t.proxiedClient[address] = client
	return client, nil
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			flat[key] = ""
			continue
		}
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

func resolveResponseBodyLimit(requestLimit int64, transportLimit int64) int64 {
	if requestLimit > 0 {
		return requestLimit
	}
	if transportLimit > 0 {
		return transportLimit
	}
	return defaultRESTResponseBodyLimit
}

var _ core.HTTPTransport = (*RESTTransport)(nil)
