package sqlstore

import "github.com/goliatone/go-destinations/core"

var _ core.DestinationStore = (*DestinationStore)(nil)
