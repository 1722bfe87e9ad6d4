package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// DestinationConfig is one named entry of the destination catalog.
type DestinationConfig struct {
	Kind        string         `koanf:"kind" mapstructure:"kind" json:"kind,omitempty" yaml:"kind,omitempty"`
	Credentials map[string]any `koanf:"credentials" mapstructure:"credentials" json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// DestinationCatalog is the name -> configuration lookup used by the resolver.
type DestinationCatalog interface {
	Destination(name string) (DestinationConfig, bool)
}

// DestinationPayload mirrors the destination service lookup response.
type DestinationPayload struct {
	Owner                    map[string]any    `json:"owner,omitempty"`
	DestinationConfiguration CredentialPayload `json:"destinationConfiguration"`
	AuthTokens               []map[string]any  `json:"authTokens,omitempty"`
}

// DestinationStore looks up a destination referenced by store key.
type DestinationStore interface {
	Lookup(ctx context.Context, storeKey string) (DestinationPayload, error)
}

type ProxySettings struct {
	Protocol string
	Host     string
	Port     int
}

// ConnectivityContext is issued by the connectivity service for one call.
type ConnectivityContext struct {
	Proxy   ProxySettings
	Headers map[string]string
}

// ConnectivityProvider issues proxy settings and headers for a cloud connector
// location. An empty location selects the default connector.
type ConnectivityProvider interface {
	Context(ctx context.Context, locationID string) (ConnectivityContext, error)
}

type BasicAuth struct {
	Username string
	Password string
}

type RequestOptions struct {
	Method               string
	Path                 string
	Query                map[string]string
	Headers              map[string]string
	Body                 any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

// EffectiveRequestConfig is the merged configuration submitted to the transport.
type EffectiveRequestConfig struct {
	BaseURL              string
	Method               string
	Path                 string
	Query                map[string]string
	Headers              map[string]string
	Body                 any
	BasicAuth            BasicAuth
	Proxy                *ProxySettings
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

// HTTPTransport executes one outbound request. Failed exchanges are reported
// as *TransportError.
type HTTPTransport interface {
	Send(ctx context.Context, cfg EffectiveRequestConfig) (TransportResponse, error)
}

// DiagnosticSink receives debug output. It must not influence the call.
type DiagnosticSink interface {
	Request(ctx context.Context, cfg EffectiveRequestConfig)
	Response(ctx context.Context, cfg EffectiveRequestConfig, body ResponseBody)
	Failure(ctx context.Context, cfg EffectiveRequestConfig, err error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
