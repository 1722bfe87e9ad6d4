package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-destinations/core"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
)

var (
	_ gocmd.Commander[RunDestinationMessage]    = (*RunDestinationCommand)(nil)
	_ gocmd.Commander[UpsertDestinationMessage] = (*UpsertDestinationCommand)(nil)
	_ gocmd.Commander[DeleteDestinationMessage] = (*DeleteDestinationCommand)(nil)

	_ Runner            = (*core.Service)(nil)
	_ DestinationWriter = (*sqlstore.DestinationStore)(nil)
)
