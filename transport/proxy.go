package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type proxyConnectHeaderKey struct{}

// DefaultProxyClient clones http.DefaultTransport and routes every request
// through proxyURL. Headers for CONNECT tunnels are taken from the request
// context so one client can serve many tokens.
func DefaultProxyClient(proxyURL *url.URL) HTTPDoer {
	base, ok := http.DefaultTransport.(*http.Transport)
	var roundTripper *http.Transport
	if ok {
		roundTripper = base.Clone()
	} else {
		roundTripper = &http.Transport{}
	}
	roundTripper.Proxy = http.ProxyURL(proxyURL)
	roundTripper.GetProxyConnectHeader = func(ctx context.Context, _ *url.URL, _ string) (http.Header, error) {
		header, _ := ctx.Value(proxyConnectHeaderKey{}).(http.Header)
		return header, nil
	}
	return &http.Client{Transport: roundTripper, Timeout: defaultRESTClientTimeout}
}

// withProxyConnectHeader copies proxy headers (Proxy-* and the cloud
// connector location) so they also reach the proxy on CONNECT.
func withProxyConnectHeader(ctx context.Context, headers map[string]string) context.Context {
	header := http.Header{}
	for key, value := range headers {
		canonical := http.CanonicalHeaderKey(strings.TrimSpace(key))
		if strings.HasPrefix(canonical, "Proxy-") || strings.HasPrefix(canonical, "Sap-Connectivity-") {
			header.Set(canonical, value)
		}
	}
	if len(header) == 0 {
		return ctx
	}
	return context.WithValue(ctx, proxyConnectHeaderKey{}, header)
}

// stripTunnelHeaders drops Proxy-* headers from an https request. They are
// sent on CONNECT and must not reach the origin inside the tunnel.
func stripTunnelHeaders(req *http.Request) {
	if req == nil || req.URL == nil || !strings.EqualFold(req.URL.Scheme, "https") {
		return
	}
	for key := range req.Header {
		if strings.HasPrefix(http.CanonicalHeaderKey(key), "Proxy-") {
			req.Header.Del(key)
		}
	}
}
