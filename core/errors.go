package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DestinationErrorConfiguration             = "DESTINATION_CONFIGURATION_INVALID"
	DestinationErrorUnsupportedAuthentication = "DESTINATION_UNSUPPORTED_AUTHENTICATION"
	DestinationErrorUnsupportedProxyType      = "DESTINATION_UNSUPPORTED_PROXY_TYPE"
	DestinationErrorUpstream                  = "DESTINATION_UPSTREAM_FAILURE"
	DestinationErrorInternal                  = "DESTINATION_INTERNAL_ERROR"
)

// Upstream stages recorded in error metadata.
const (
	StageDestinationLookup = "destination_lookup"
	StageConnectivity      = "connectivity"
	StageTransport         = "transport"
)

const (
	metadataStage        = "stage"
	metadataStatusCode   = "status_code"
	metadataResponseBody = "response_body"
)

// TransportError is returned by HTTP collaborators when an exchange fails. Body
// holds the failed response payload when the upstream produced one.
type TransportError struct {
	Message    string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	message := strings.TrimSpace(e.Message)
	if message == "" && e.Err != nil {
		message = e.Err.Error()
	}
	if message == "" && e.StatusCode > 0 {
		message = fmt.Sprintf("request failed with status code %d", e.StatusCode)
	}
	return message
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func ConfigurationError(message string, metadata map[string]any) *goerrors.Error {
	return newDestinationError(
		"destinations: "+message,
		goerrors.CategoryBadInput,
		DestinationErrorConfiguration,
		metadata,
	)
}

func UnsupportedAuthenticationError(authentication string) *goerrors.Error {
	return newDestinationError(
		fmt.Sprintf("destinations: authentication type %s is not supported", strings.TrimSpace(authentication)),
		goerrors.CategoryBadInput,
		DestinationErrorUnsupportedAuthentication,
		map[string]any{"authentication_type": strings.TrimSpace(authentication)},
	)
}

func UnsupportedProxyTypeError(proxyType string) *goerrors.Error {
	return newDestinationError(
		fmt.Sprintf("destinations: proxy type %s is not supported", strings.TrimSpace(proxyType)),
		goerrors.CategoryBadInput,
		DestinationErrorUnsupportedProxyType,
		map[string]any{"proxy_type": strings.TrimSpace(proxyType)},
	)
}

// UpstreamError wraps a failure of the destination store, the connectivity
// service or the HTTP transport. The failed response body, if any, is carried
// in metadata and exposed through UpstreamPayload.
func UpstreamError(stage string, source error, metadata map[string]any) *goerrors.Error {
	fields := cloneFields(metadata)
	fields[metadataStage] = stage

	message := "destinations: " + stage + " failed"
	var transportErr *TransportError
	if errors.As(source, &transportErr) {
		if transportErr.StatusCode > 0 {
			fields[metadataStatusCode] = transportErr.StatusCode
		}
		if len(transportErr.Body) > 0 {
			fields[metadataResponseBody] = decodePayload(transportErr.Body)
		}
	}
	var rich *goerrors.Error
	if goerrors.As(source, &rich) && rich != nil {
		for _, key := range []string{metadataStatusCode, metadataResponseBody} {
			if value, ok := rich.Metadata[key]; ok {
				if _, exists := fields[key]; !exists {
					fields[key] = value
				}
			}
		}
	}
	if source != nil {
		message = message + ": " + source.Error()
	}

	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryExternal)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	}
	err.WithCode(http.StatusBadGateway).
		WithTextCode(DestinationErrorUpstream).
		WithMetadata(fields)
	return err
}

func IsConfigurationError(err error) bool {
	return hasTextCode(err, DestinationErrorConfiguration)
}

func IsUnsupportedAuthentication(err error) bool {
	return hasTextCode(err, DestinationErrorUnsupportedAuthentication)
}

func IsUnsupportedProxyType(err error) bool {
	return hasTextCode(err, DestinationErrorUnsupportedProxyType)
}

func IsUpstreamError(err error) bool {
	return hasTextCode(err, DestinationErrorUpstream)
}

// UpstreamPayload returns the decoded body of the failed upstream response.
func UpstreamPayload(err error) (any, bool) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil || rich.TextCode != DestinationErrorUpstream {
		return nil, false
	}
	value, ok := rich.Metadata[metadataResponseBody]
	return value, ok
}

// UpstreamStage reports which collaborator produced an upstream failure.
func UpstreamStage(err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return ""
	}
	stage, _ := rich.Metadata[metadataStage].(string)
	return stage
}

func internalError(message string) *goerrors.Error {
	return newDestinationError(message, goerrors.CategoryInternal, DestinationErrorInternal, nil)
}

func newDestinationError(message string, category goerrors.Category, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(destinationHTTPStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func hasTextCode(err error, textCode string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return false
	}
	return rich.TextCode == textCode
}

func decodePayload(body []byte) any {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return decoded
	}
	return string(body)
}

func destinationHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
