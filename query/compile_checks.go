package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-destinations/core"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
)

var (
	_ gocmd.Querier[ResolveDestinationMessage, core.CredentialRecord]     = (*ResolveDestinationQuery)(nil)
	_ gocmd.Querier[ListDestinationsMessage, []sqlstore.DestinationEntry] = (*ListDestinationsQuery)(nil)

	_ DestinationResolver = (*core.Service)(nil)
	_ DestinationLister   = (*sqlstore.DestinationStore)(nil)
)
