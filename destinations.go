package destinations

import (
	"fmt"

	"github.com/goliatone/go-destinations/bindings"
	"github.com/goliatone/go-destinations/connectivity"
	"github.com/goliatone/go-destinations/core"
	"github.com/goliatone/go-destinations/destinationservice"
	"github.com/goliatone/go-destinations/transport"
)

type Config = core.Config

type DestinationConfig = core.DestinationConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Destination = core.Destination
type CredentialRecord = core.CredentialRecord
type RequestOptions = core.RequestOptions
type ResponseBody = core.ResponseBody

var (
	WithLogger               = core.WithLogger
	WithLoggerProvider       = core.WithLoggerProvider
	WithMetricsRecorder      = core.WithMetricsRecorder
	WithConfigProvider       = core.WithConfigProvider
	WithOptionsResolver      = core.WithOptionsResolver
	WithCatalog              = core.WithCatalog
	WithDestinationStore     = core.WithDestinationStore
	WithConnectivityProvider = core.WithConnectivityProvider
	WithHTTPTransport        = core.WithHTTPTransport
	WithDiagnosticSink       = core.WithDiagnosticSink
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds a core.Service that sends requests through
// transport.RESTTransport unless WithHTTPTransport says otherwise.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, withDefaultTransport(opts)...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, withDefaultTransport(opts)...)
}

// OptionsFromBindings wires the destination service as the destination store
// and the connectivity service as the proxy provider for whichever of the two
// is bound.
func OptionsFromBindings(services bindings.Services) ([]Option, error) {
	var opts []Option
	if credentials, ok := services.Destination(); ok {
		client, err := destinationservice.New(destinationservice.ConfigFromBinding(credentials))
		if err != nil {
			return nil, fmt.Errorf("destinations: destination service binding: %w", err)
		}
		opts = append(opts, core.WithDestinationStore(client))
	}
	if credentials, ok := services.Connectivity(); ok {
		client, err := connectivity.New(connectivity.ConfigFromBinding(credentials))
		if err != nil {
			return nil, fmt.Errorf("destinations: connectivity binding: %w", err)
		}
		opts = append(opts, core.WithConnectivityProvider(client))
	}
	return opts, nil
}

// OptionsFromEnv reads bindings from VCAP_SERVICES.
func OptionsFromEnv() ([]Option, error) {
	services, err := bindings.FromEnv()
	if err != nil {
		return nil, err
	}
	return OptionsFromBindings(services)
}

func withDefaultTransport(opts []Option) []Option {
	out := make([]Option, 0, len(opts)+1)
	out = append(out, core.WithHTTPTransport(transport.NewRESTTransport(nil)))
	return append(out, opts...)
}
