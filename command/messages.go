package command

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-destinations/core"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
)

const (
	TypeRunDestination    = "destinations.command.run"
	TypeUpsertDestination = "destinations.command.entry.upsert"
	TypeDeleteDestination = "destinations.command.entry.delete"
)

// RunDestinationMessage issues one request against a named destination.
type RunDestinationMessage struct {
	Destination string
	Request     core.RequestOptions
}

func (RunDestinationMessage) Type() string { return TypeRunDestination }

func (m RunDestinationMessage) Validate() error {
	if strings.TrimSpace(m.Destination) == "" {
		return commandValidationError("destination", "destination name is required")
	}
	if m.Request.Timeout < 0 {
		return commandValidationError("timeout", "timeout must be >= 0")
	}
	return nil
}

type UpsertDestinationMessage struct {
	Entry sqlstore.DestinationEntry
}

func (UpsertDestinationMessage) Type() string { return TypeUpsertDestination }

func (m UpsertDestinationMessage) Validate() error {
	if strings.TrimSpace(m.Entry.Name) == "" {
		return commandValidationError("name", "destination name is required")
	}
	raw := strings.TrimSpace(m.Entry.URL)
	if raw == "" {
		return commandValidationError("url", "destination url is required")
	}
	if parsed, err := url.Parse(raw); err != nil || !parsed.IsAbs() {
		return commandValidationError("url", "destination url must be absolute")
	}
	if m.Entry.Authentication != "" {
		if _, err := core.ParseAuthenticationType(m.Entry.Authentication); err != nil {
			return commandValidationError("authentication", "unsupported authentication type")
		}
	}
	if _, err := core.ParseProxyType(m.Entry.ProxyType); err != nil {
		return commandValidationError("proxy_type", "unsupported proxy type")
	}
	return nil
}

type DeleteDestinationMessage struct {
	Name string
}

func (DeleteDestinationMessage) Type() string { return TypeDeleteDestination }

func (m DeleteDestinationMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return commandValidationError("name", "destination name is required")
	}
	return nil
}
