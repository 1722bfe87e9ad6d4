package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func destinationEntryHandlers() repository.ModelHandlers[*destinationEntryRecord] {
	return repository.ModelHandlers[*destinationEntryRecord]{
		NewRecord: func() *destinationEntryRecord {
			return &destinationEntryRecord{}
		},
		GetID: func(record *destinationEntryRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *destinationEntryRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(record *destinationEntryRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.Name)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
