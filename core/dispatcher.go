package core

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type Dispatcher struct {
	connectivity ConnectivityProvider
	transport    HTTPTransport
	diagnostics  DiagnosticSink
}

func NewDispatcher(connectivity ConnectivityProvider, transport HTTPTransport, diagnostics DiagnosticSink) *Dispatcher {
	return &Dispatcher{
		connectivity: connectivity,
		transport:    transport,
		diagnostics:  diagnostics,
	}
}

// Dispatch issues one request for a resolved destination. Unsupported proxy
// types fail before any I/O. For on-premise destinations the connectivity
// context is fetched first and the HTTP call only starts once it is available.
func (d *Dispatcher) Dispatch(ctx context.Context, record CredentialRecord, options RequestOptions) (ResponseBody, error) {
	if d == nil || d.transport == nil {
		return ResponseBody{}, internalError("destinations: dispatcher requires an http transport")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	proxyType, err := ParseProxyType(record.ProxyType)
	if err != nil {
		return ResponseBody{}, err
	}

	var connectivity *ConnectivityContext
	switch proxyType {
	case ProxyTypeOnPremise:
		resolved, err := d.fetchConnectivity(ctx, record)
		if err != nil {
			return ResponseBody{}, err
		}
		connectivity = &resolved
	case ProxyTypeInternet:
	}

	cfg := BuildRequestConfig(record, options, connectivity)
	d.diagnoseRequest(ctx, cfg)

	response, err := d.transport.Send(ctx, cfg)
	if err != nil {
		failure := transportFailure(record, err)
		d.diagnoseFailure(ctx, cfg, failure)
		return ResponseBody{}, failure
	}

	body := NewResponseBody(response.Body, headerValue(response.Headers, "Content-Type"))
	d.diagnoseResponse(ctx, cfg, body)
	return body, nil
}

func (d *Dispatcher) fetchConnectivity(ctx context.Context, record CredentialRecord) (ConnectivityContext, error) {
	if d.connectivity == nil {
		return ConnectivityContext{}, ConfigurationError(
			"connectivity service is not configured for on-premise destination "+record.Name,
			map[string]any{"destination": record.Name},
		)
	}
	resolved, err := d.connectivity.Context(ctx, record.LocationID())
	if err != nil {
		return ConnectivityContext{}, UpstreamError(StageConnectivity, err, map[string]any{
			"destination":                 record.Name,
			"cloud_connector_location_id": record.LocationID(),
		})
	}
	return resolved, nil
}

func transportFailure(record CredentialRecord, err error) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil && rich.Category == goerrors.CategoryBadInput {
		return err
	}
	return UpstreamError(StageTransport, err, map[string]any{
		"destination": record.Name,
	})
}

func (d *Dispatcher) diagnoseRequest(ctx context.Context, cfg EffectiveRequestConfig) {
	if d.diagnostics == nil {
		return
	}
	d.diagnostics.Request(ctx, cfg)
}

func (d *Dispatcher) diagnoseResponse(ctx context.Context, cfg EffectiveRequestConfig, body ResponseBody) {
	if d.diagnostics == nil {
		return
	}
	d.diagnostics.Response(ctx, cfg, body)
}

func (d *Dispatcher) diagnoseFailure(ctx context.Context, cfg EffectiveRequestConfig, err error) {
	if d.diagnostics == nil {
		return
	}
	d.diagnostics.Failure(ctx, cfg, err)
}
