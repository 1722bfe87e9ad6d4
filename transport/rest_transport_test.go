package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/goliatone/go-destinations/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestRESTTransport_SendJoinsPathAndAppliesAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/items" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("top") != "5" || r.URL.Query().Get("fixed") != "1" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "pw" {
			t.Errorf("expected basic auth, got %q %q %v", user, pass, ok)
		}
		if r.Header.Get("X-Trace") != "abc" {
			t.Errorf("expected caller header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[1,2]}`))
	}))
	defer server.Close()

	adapter := NewRESTTransport(server.Client())
	res, err := adapter.Send(context.Background(), core.EffectiveRequestConfig{
		BaseURL:   server.URL + "/api/?fixed=1",
		Method:    "get",
		Path:      "/v1/items",
		Query:     map[string]string{"top": "5"},
		Headers:   map[string]string{"X-Trace": "abc"},
		BasicAuth: core.BasicAuth{Username: "alice", Password: "pw"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.StatusCode != http.StatusOK || string(res.Body) != `{"items":[1,2]}` {
		t.Fatalf("unexpected response %#v", res)
	}
	if res.Headers["Content-Type"] != "application/json" {
		t.Fatalf("expected flattened content type, got %#v", res.Headers)
	}
}

func TestRESTTransport_SendWithoutCredentialsOmitsAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no authorization header, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	_, err := NewRESTTransport(server.Client()).Send(context.Background(), core.EffectiveRequestConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestRESTTransport_SendEncodesJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload["name"] != "widget" {
			t.Errorf("unexpected payload %#v %v", payload, err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	_, err := NewRESTTransport(server.Client()).Send(context.Background(), core.EffectiveRequestConfig{
		BaseURL: server.URL,
		Method:  http.MethodPost,
		Body:    map[string]any{"name": "widget"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestRESTTransport_SendFormAndRawBodies(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = append(seen, r.Header.Get("Content-Type")+"|"+string(raw))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewRESTTransport(server.Client())
	for _, body := range []any{url.Values{"a": {"1"}}, "plain", []byte("bytes")} {
		if _, err := adapter.Send(context.Background(), core.EffectiveRequestConfig{BaseURL: server.URL, Method: http.MethodPost, Body: body}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	expected := []string{"application/x-www-form-urlencoded|a=1", "|plain", "|bytes"}
	if strings.Join(seen, ",") != strings.Join(expected, ",") {
		t.Fatalf("unexpected bodies %v", seen)
	}
}

func TestRESTTransport_NonSuccessStatusReturnsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	_, err := NewRESTTransport(server.Client()).Send(context.Background(), core.EffectiveRequestConfig{BaseURL: server.URL})
	var transportErr *core.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected transport error, got %T %v", err, err)
	}
	if transportErr.StatusCode != http.StatusInternalServerError || string(transportErr.Body) != `{"error":"boom"}` {
		t.Fatalf("unexpected transport error %#v", transportErr)
	}
	if transportErr.Error() != "request failed with status code 500" {
		t.Fatalf("unexpected message %q", transportErr.Error())
	}
}

func TestRESTTransport_RoutesThroughProxy(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Host != "erp.virtual:44300" {
			t.Errorf("expected absolute-form request for virtual host, got %q", r.URL.String())
		}
		if r.Header.Get("Proxy-Authorization") != "Bearer conn-token" {
			t.Errorf("expected proxy authorization, got %q", r.Header.Get("Proxy-Authorization"))
		}
		if r.Header.Get("SAP-Connectivity-SCC-Location_ID") != "loc-1" {
			t.Errorf("expected location header")
		}
		_, _ = w.Write([]byte("from-proxy"))
	}))
	defer proxy.Close()

	proxyURL, err := url.Parse(proxy.URL)
	if err != nil {
		t.Fatalf("parse proxy url: %v", err)
	}
	portNumber, err := strconv.Atoi(proxyURL.Port())
	if err != nil {
		t.Fatalf("parse proxy port: %v", err)
	}

	adapter := NewRESTTransport(nil)
	for i := 0; i < 2; i++ {
		res, err := adapter.Send(context.Background(), core.EffectiveRequestConfig{
			BaseURL: "http://erp.virtual:44300",
			Path:    "/sap/bc/ping",
			Headers: map[string]string{
				"Proxy-Authorization":              "Bearer conn-token",
				"SAP-Connectivity-SCC-Location_ID": "loc-1",
			},
			Proxy: &core.ProxySettings{Protocol: "http", Host: proxyURL.Hostname(), Port: portNumber},
		})
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if string(res.Body) != "from-proxy" {
			t.Fatalf("expected proxied response, got %q", res.Body)
		}
	}
	if len(adapter.proxiedClient) != 1 {
		t.Fatalf("expected one proxied client per proxy address, got %d", len(adapter.proxiedClient))
	}
}

func TestStripTunnelHeadersOnlyForHTTPS(t *testing.T) {
	build := func(target string) *http.Request {
		req, err := http.NewRequest(http.MethodGet, target, nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Proxy-Authorization", "Bearer conn-token")
		req.Header.Set("SAP-Connectivity-SCC-Location_ID", "loc-1")
		req.Header.Set("Accept", "application/json")
		return req
	}

	secure := build("https://erp.virtual:44300/ping")
	stripTunnelHeaders(secure)
	if secure.Header.Get("Proxy-Authorization") != "" {
		t.Fatalf("expected proxy authorization to stay off the tunnelled request")
	}
	if secure.Header.Get("Accept") != "application/json" || secure.Header.Get("SAP-Connectivity-SCC-Location_ID") != "loc-1" {
		t.Fatalf("expected other headers to be kept, got %v", secure.Header)
	}

	plain := build("http://erp.virtual:44300/ping")
	stripTunnelHeaders(plain)
	if plain.Header.Get("Proxy-Authorization") != "Bearer conn-token" {
		t.Fatalf("expected proxy authorization on absolute-form http request")
	}
}

func TestProxyConnectHeaderKeepsTunnelCredentials(t *testing.T) {
	ctx := withProxyConnectHeader(context.Background(), map[string]string{
		"Proxy-Authorization": "Bearer conn-token",
		"Accept":              "application/json",
	})
	header, _ := ctx.Value(proxyConnectHeaderKey{}).(http.Header)
	if header.Get("Proxy-Authorization") != "Bearer conn-token" {
		t.Fatalf("expected proxy authorization on CONNECT, got %v", header)
	}
	if header.Get("Accept") != "" {
		t.Fatalf("expected only proxy headers on CONNECT, got %v", header)
	}
}

func TestRESTTransport_ResponseLimitReturnsRichError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	adapter := NewRESTTransport(server.Client())
	adapter.MaxResponseBodyBytes = 4

	_, err := adapter.Send(context.Background(), core.EffectiveRequestConfig{BaseURL: server.URL})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", rich.Category)
	}
	if rich.TextCode != core.DestinationErrorUpstream {
		t.Fatalf("expected %q text code, got %q", core.DestinationErrorUpstream, rich.TextCode)
	}
}

func TestResolveURL(t *testing.T) {
	target, err := ResolveURL("https://api.example/base/", "items", nil)
	if err != nil || target.String() != "https://api.example/base/items" {
		t.Fatalf("unexpected url %v %v", target, err)
	}
	target, err = ResolveURL("https://api.example/base", "https://other.example/x", nil)
	if err != nil || target.String() != "https://other.example/x" {
		t.Fatalf("expected absolute path to win, got %v %v", target, err)
	}
	target, err = ResolveURL("https://api.example", "", nil)
	if err != nil || target.String() != "https://api.example" {
		t.Fatalf("expected base url, got %v %v", target, err)
	}
	if _, err := ResolveURL("not-a-url", "/x", nil); !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error for relative base, got %v", err)
	}
}

func TestRESTTransport_NilReturnsRichError(t *testing.T) {
	var adapter *RESTTransport
	_, err := adapter.Send(context.Background(), core.EffectiveRequestConfig{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal rich error, got %v", err)
	}
}
