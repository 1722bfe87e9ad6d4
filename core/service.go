package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	resolver        *Resolver
	dispatcher      *Dispatcher
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	Catalog         DestinationCatalog
	Store           DestinationStore
	Connectivity    ConnectivityProvider
	Transport       HTTPTransport
	Diagnostics     DiagnosticSink
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("destinations", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("destinations"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.transport == nil {
		return nil, fmt.Errorf("core: http transport is required")
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, err
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, err
	}

	catalog := builder.catalog
	if catalog == nil {
		catalog = finalConfig
	}

	var diagnostics DiagnosticSink
	if finalConfig.Debug {
		diagnostics = builder.diagnostics
		if diagnostics == nil {
			diagnostics = NewLoggerDiagnosticSink(logger)
		}
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		resolver:        NewResolver(catalog, builder.store),
		dispatcher:      NewDispatcher(builder.connectivity, builder.transport, diagnostics),
	}, nil
}

// Setup is NewService for callers that only need the defaults plus options.
func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	deps := ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
	}
	if s.resolver != nil {
		deps.Catalog = s.resolver.catalog
		deps.Store = s.resolver.store
	}
	if s.dispatcher != nil {
		deps.Connectivity = s.dispatcher.connectivity
		deps.Transport = s.dispatcher.transport
		deps.Diagnostics = s.dispatcher.diagnostics
	}
	return deps
}

// Destination is a handle over one resolved destination. The record is fixed
// at Connect time; every Run issues a fresh request.
type Destination struct {
	record  CredentialRecord
	service *Service
}

func (d *Destination) Name() string {
	if d == nil {
		return ""
	}
	return d.record.Name
}

func (d *Destination) Record() CredentialRecord {
	if d == nil {
		return CredentialRecord{}
	}
	out := d.record
	out.properties = d.record.Properties()
	return out
}

func (d *Destination) Run(ctx context.Context, options RequestOptions) (ResponseBody, error) {
	if d == nil || d.service == nil || d.service.dispatcher == nil {
		return ResponseBody{}, internalError("destinations: destination handle is not connected")
	}
	startedAt := time.Now()
	body, err := d.service.dispatcher.Dispatch(ctx, d.record, options)
	fields := d.record.Fields()
	fields["method"] = strings.ToUpper(strings.TrimSpace(options.Method))
	fields["path"] = options.Path
	if err == nil {
		fields["response_bytes"] = body.Len()
	}
	d.service.observe(ctx, newOperationOutcome("run", startedAt, err, fields))
	return body, err
}

// Resolve returns the credential record for name without keeping a handle.
func (s *Service) Resolve(ctx context.Context, name string) (CredentialRecord, error) {
	if s == nil || s.resolver == nil {
		return CredentialRecord{}, internalError("destinations: service is not configured")
	}
	return s.resolver.Resolve(ctx, name)
}

// Connect resolves name and returns a handle for issuing requests.
func (s *Service) Connect(ctx context.Context, name string) (*Destination, error) {
	if s == nil || s.resolver == nil {
		return nil, internalError("destinations: service is not configured")
	}
	startedAt := time.Now()
	record, err := s.resolver.Resolve(ctx, name)
	fields := map[string]any{"destination": strings.TrimSpace(name)}
	if err == nil {
		fields = record.Fields()
		if record.Name == "" {
			fields["destination"] = strings.TrimSpace(name)
		}
	}
	s.observe(ctx, newOperationOutcome("connect", startedAt, err, fields))
	if err != nil {
		return nil, err
	}
	if record.Name == "" {
		record.Name = strings.TrimSpace(name)
	}
	return &Destination{record: record, service: s}, nil
}

// Run connects to name and issues a single request.
func (s *Service) Run(ctx context.Context, name string, options RequestOptions) (ResponseBody, error) {
	destination, err := s.Connect(ctx, name)
	if err != nil {
		return ResponseBody{}, err
	}
	return destination.Run(ctx, options)
}
