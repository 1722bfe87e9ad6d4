package core

import (
	"fmt"
	"sort"
	"strings"
)

type AuthenticationType string

const (
	AuthenticationNone  AuthenticationType = "NoAuthentication"
	AuthenticationBasic AuthenticationType = "BasicAuthentication"
)

// ParseAuthenticationType accepts only the authentication types this module can
// apply to an outbound request.
func ParseAuthenticationType(raw string) (AuthenticationType, error) {
	switch AuthenticationType(strings.TrimSpace(raw)) {
	case AuthenticationNone:
		return AuthenticationNone, nil
	case AuthenticationBasic:
		return AuthenticationBasic, nil
	default:
		return "", UnsupportedAuthenticationError(raw)
	}
}

type ProxyType string

const (
	ProxyTypeInternet  ProxyType = "Internet"
	ProxyTypeOnPremise ProxyType = "OnPremise"
)

// ParseProxyType maps a destination proxy type onto a routing path. An absent
// value routes over the internet.
func ParseProxyType(raw string) (ProxyType, error) {
	switch trimmed := strings.TrimSpace(raw); ProxyType(trimmed) {
	case "", ProxyTypeInternet:
		return ProxyTypeInternet, nil
	case ProxyTypeOnPremise:
		return ProxyTypeOnPremise, nil
	default:
		return "", UnsupportedProxyTypeError(trimmed)
	}
}

// Payload keys as written by the destination service and by direct
// configuration blocks. Both spellings are accepted for url, user and password.
const (
	PayloadKeyName             = "Name"
	PayloadKeyURL              = "URL"
	PayloadKeyDirectURL        = "url"
	PayloadKeyAuthentication   = "Authentication"
	PayloadKeyUser             = "User"
	PayloadKeyUsername         = "username"
	PayloadKeyPassword         = "Password"
	PayloadKeyDirectPassword   = "password"
	PayloadKeyProxyType        = "ProxyType"
	PayloadKeyLocationID       = "CloudConnectorLocationId"
	PayloadKeyStoreDestination = "destination"
)

// CredentialPayload is the raw attribute set describing one destination.
type CredentialPayload map[string]any

func (p CredentialPayload) String(keys ...string) string {
	for _, key := range keys {
		raw, ok := p[key]
		if !ok || raw == nil {
			continue
		}
		value := strings.TrimSpace(fmt.Sprint(raw))
		if value != "" {
			return value
		}
	}
	return ""
}

func (p CredentialPayload) Has(key string) bool {
	raw, ok := p[key]
	if !ok || raw == nil {
		return false
	}
	return strings.TrimSpace(fmt.Sprint(raw)) != ""
}

func (p CredentialPayload) Clone() CredentialPayload {
	if len(p) == 0 {
		return CredentialPayload{}
	}
	out := make(CredentialPayload, len(p))
	for key, value := range p {
		out[key] = value
	}
	return out
}

// CredentialRecord is a resolved destination. Values are copied on construction
// and on read so a record can be shared between goroutines.
type CredentialRecord struct {
	Name                     string
	URL                      string
	AuthenticationType       AuthenticationType
	Username                 string
	Password                 string
	ProxyType                string
	CloudConnectorLocationID string
	properties               map[string]string
}

var recordKnownKeys = map[string]struct{}{
	PayloadKeyName:           {},
	PayloadKeyURL:            {},
	PayloadKeyDirectURL:      {},
	PayloadKeyAuthentication: {},
	PayloadKeyUser:           {},
	PayloadKeyUsername:       {},
	PayloadKeyPassword:       {},
	PayloadKeyDirectPassword: {},
	PayloadKeyProxyType:      {},
	PayloadKeyLocationID:     {},
}

// NewCredentialRecord validates a payload and builds the record. A payload
// without a direct url must declare a supported authentication type.
func NewCredentialRecord(payload CredentialPayload) (CredentialRecord, error) {
	rawAuth := payload.String(PayloadKeyAuthentication)
	if !payload.Has(PayloadKeyDirectURL) {
		if _, err := ParseAuthenticationType(rawAuth); err != nil {
			return CredentialRecord{}, err
		}
	}

	record := CredentialRecord{
		Name:                     payload.String(PayloadKeyName),
		URL:                      payload.String(PayloadKeyURL, PayloadKeyDirectURL),
		AuthenticationType:       AuthenticationType(rawAuth),
		Username:                 payload.String(PayloadKeyUser, PayloadKeyUsername),
		Password:                 payload.String(PayloadKeyPassword, PayloadKeyDirectPassword),
		ProxyType:                payload.String(PayloadKeyProxyType),
		CloudConnectorLocationID: payload.String(PayloadKeyLocationID),
		properties:               map[string]string{},
	}
	if record.URL == "" {
		return CredentialRecord{}, ConfigurationError(
			"destination url is required",
			map[string]any{"destination": record.Name},
		)
	}
	if record.AuthenticationType == AuthenticationBasic && (record.Username == "" || record.Password == "") {
		return CredentialRecord{}, ConfigurationError(
			"basic authentication requires both user and password",
			map[string]any{"destination": record.Name},
		)
	}
	for key, value := range payload {
		if _, known := recordKnownKeys[key]; known || value == nil {
			continue
		}
		record.properties[key] = fmt.Sprint(value)
	}
	return record, nil
}

// Properties returns destination attributes the record does not model directly.
func (r CredentialRecord) Properties() map[string]string {
	if len(r.properties) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(r.properties))
	for key, value := range r.properties {
		out[key] = value
	}
	return out
}

func (r CredentialRecord) LocationID() string {
	return strings.TrimSpace(r.CloudConnectorLocationID)
}

// Redacted returns a copy safe to log or hand to query callers.
func (r CredentialRecord) Redacted() CredentialRecord {
	out := r
	out.properties = r.Properties()
	if out.Password != "" {
		out.Password = RedactedValue
	}
	for key := range out.properties {
		if shouldRedactKey(key) {
			out.properties[key] = RedactedValue
		}
	}
	return out
}

func (r CredentialRecord) Fields() map[string]any {
	fields := map[string]any{
		"destination":         r.Name,
		"url":                 r.URL,
		"authentication_type": string(r.AuthenticationType),
		"proxy_type":          r.ProxyType,
	}
	if location := r.LocationID(); location != "" {
		fields["cloud_connector_location_id"] = location
	}
	keys := make([]string, 0, len(r.properties))
	for key := range r.properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		fields["properties"] = keys
	}
	return fields
}
