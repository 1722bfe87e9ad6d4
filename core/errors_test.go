package core

import (
	"errors"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestUpstreamErrorCarriesTransportPayload(t *testing.T) {
	source := &TransportError{
		Message:    "request failed with status code 500",
		StatusCode: 500,
		Body:       []byte(`{"error":"boom"}`),
	}
	err := UpstreamError(StageTransport, source, map[string]any{"destination": "svc"})

	if !IsUpstreamError(err) {
		t.Fatalf("expected upstream error")
	}
	if err.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", err.Category)
	}
	if err.Metadata["status_code"] != 500 {
		t.Fatalf("expected status code metadata, got %#v", err.Metadata["status_code"])
	}
	payload, ok := UpstreamPayload(err)
	if !ok {
		t.Fatalf("expected upstream payload")
	}
	decoded, ok := payload.(map[string]any)
	if !ok || decoded["error"] != "boom" {
		t.Fatalf("expected decoded payload with boom, got %#v", payload)
	}
	if !strings.Contains(err.Error(), "request failed with status code 500") {
		t.Fatalf("expected original message to be kept, got %q", err.Error())
	}
	if UpstreamStage(err) != StageTransport {
		t.Fatalf("expected transport stage, got %q", UpstreamStage(err))
	}
}

func TestUpstreamErrorKeepsTextPayload(t *testing.T) {
	err := UpstreamError(StageConnectivity, &TransportError{StatusCode: 503, Body: []byte("unavailable")}, nil)
	payload, ok := UpstreamPayload(err)
	if !ok || payload != "unavailable" {
		t.Fatalf("expected text payload, got %#v", payload)
	}
}

func TestUpstreamErrorWithoutPayload(t *testing.T) {
	err := UpstreamError(StageDestinationLookup, errors.New("dial tcp: connection refused"), nil)
	if _, ok := UpstreamPayload(err); ok {
		t.Fatalf("expected no payload for network failure")
	}
	if UpstreamStage(err) != StageDestinationLookup {
		t.Fatalf("expected lookup stage, got %q", UpstreamStage(err))
	}
}

func TestErrorClassifiersAreDistinct(t *testing.T) {
	configErr := ConfigurationError("missing destination configuration for svc", nil)
	authErr := UnsupportedAuthenticationError("OAuth2SAMLBearerAssertion")
	proxyErr := UnsupportedProxyTypeError("Carrier-Pigeon")

	if !IsConfigurationError(configErr) || IsUnsupportedProxyType(configErr) {
		t.Fatalf("configuration error misclassified")
	}
	if !IsUnsupportedAuthentication(authErr) || IsConfigurationError(authErr) {
		t.Fatalf("authentication error misclassified")
	}
	if !IsUnsupportedProxyType(proxyErr) || IsUpstreamError(proxyErr) {
		t.Fatalf("proxy type error misclassified")
	}
	if proxyErr.Category != goerrors.CategoryBadInput || proxyErr.Code != 400 {
		t.Fatalf("expected bad input 400, got %q %d", proxyErr.Category, proxyErr.Code)
	}
	if IsConfigurationError(errors.New("plain")) {
		t.Fatalf("plain error must not classify")
	}
}
