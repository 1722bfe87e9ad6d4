package query

import "strings"

const (
	TypeResolveDestination = "destinations.query.resolve"
	TypeListDestinations   = "destinations.query.entry.list"
)

type ResolveDestinationMessage struct {
	Destination string
}

func (ResolveDestinationMessage) Type() string { return TypeResolveDestination }

func (m ResolveDestinationMessage) Validate() error {
	if strings.TrimSpace(m.Destination) == "" {
		return queryValidationError("destination", "destination name is required")
	}
	return nil
}

type ListDestinationsMessage struct{}

func (ListDestinationsMessage) Type() string { return TypeListDestinations }

func (ListDestinationsMessage) Validate() error { return nil }
