package core

import (
	"net/textproto"
	"sort"
	"strconv"
	"strings"
)

// MergeHeaders combines caller headers with connectivity headers. Keys are
// compared in canonical form. Every connectivity header is kept and wins over a
// caller header with the same name. Keys of one map that collide after
// canonicalisation are applied in sorted order, so the last of them wins.
func MergeHeaders(caller map[string]string, connectivity map[string]string) map[string]string {
	merged := make(map[string]string, len(caller)+len(connectivity))
	for _, source := range []map[string]string{caller, connectivity} {
		keys := make([]string, 0, len(source))
		for key := range source {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			merged[textproto.CanonicalMIMEHeaderKey(trimmed)] = source[key]
		}
	}
	return merged
}

// BuildRequestConfig derives the request submitted to the transport. The basic
// auth block is always populated from the record; it stays empty for records
// without credentials.
func BuildRequestConfig(
	record CredentialRecord,
	options RequestOptions,
	connectivity *ConnectivityContext,
) EffectiveRequestConfig {
	cfg := EffectiveRequestConfig{
		BaseURL: record.URL,
		Method:  strings.ToUpper(strings.TrimSpace(options.Method)),
		Path:    options.Path,
		Query:   cloneStringMap(options.Query),
		Headers: MergeHeaders(options.Headers, nil),
		Body:    options.Body,
		BasicAuth: BasicAuth{
			Username: record.Username,
			Password: record.Password,
		},
		Timeout:              options.Timeout,
		MaxResponseBodyBytes: options.MaxResponseBodyBytes,
	}
	if cfg.Method == "" {
		cfg.Method = "GET"
	}
	if connectivity != nil {
		proxy := connectivity.Proxy
		if strings.TrimSpace(proxy.Protocol) == "" {
			proxy.Protocol = "http"
		}
		cfg.Proxy = &proxy
		cfg.Headers = MergeHeaders(options.Headers, connectivity.Headers)
	}
	return cfg
}

// Fields renders the config for diagnostics with secrets redacted.
func (c EffectiveRequestConfig) Fields() map[string]any {
	headers := make(map[string]any, len(c.Headers))
	for key, value := range c.Headers {
		headers[key] = value
	}
	fields := map[string]any{
		"base_url": c.BaseURL,
		"method":   c.Method,
		"path":     c.Path,
		"headers":  RedactSensitiveMap(headers),
	}
	if len(c.Query) > 0 {
		keys := make([]string, 0, len(c.Query))
		for key := range c.Query {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fields["query_keys"] = keys
	}
	if c.BasicAuth.Username != "" {
		fields["auth_username"] = c.BasicAuth.Username
		fields["auth_password"] = RedactedValue
	}
	if c.Proxy != nil {
		fields["proxy"] = c.Proxy.String()
	}
	if c.Timeout > 0 {
		fields["timeout_ms"] = c.Timeout.Milliseconds()
	}
	return fields
}

func (p ProxySettings) String() string {
	protocol := strings.TrimSpace(p.Protocol)
	if protocol == "" {
		protocol = "http"
	}
	host := strings.TrimSpace(p.Host)
	if p.Port > 0 {
		return protocol + "://" + host + ":" + strconv.Itoa(p.Port)
	}
	return protocol + "://" + host
}

func cloneStringMap(input map[string]string) map[string]string {
	if len(input) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}

func headerValue(headers map[string]string, name string) string {
	if value, ok := headers[name]; ok {
		return value
	}
	canonical := textproto.CanonicalMIMEHeaderKey(name)
	for key, value := range headers {
		if textproto.CanonicalMIMEHeaderKey(key) == canonical {
			return value
		}
	}
	return ""
}
