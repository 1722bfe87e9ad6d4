package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type destinationEntryRecord struct {
	bun.BaseModel `bun:"table:destination_entries,alias:de"`

	ID                       string            `bun:"id,pk"`
	Name                     string            `bun:"name,notnull"`
	URL                      string            `bun:"url,notnull"`
	Authentication           string            `bun:"authentication,notnull"`
	Username                 string            `bun:"username,notnull"`
	EncryptedPassword        []byte            `bun:"encrypted_password"`
	ProxyType                string            `bun:"proxy_type,notnull"`
	CloudConnectorLocationID string            `bun:"cloud_connector_location_id,notnull"`
	Properties               map[string]string `bun:"properties,type:jsonb,notnull"`
	CreatedAt                time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt                time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// DestinationEntry is a destination as kept in the destination_entries table.
// Password is plaintext on write and empty on List; HasPassword reports
// whether an encrypted password is stored.
type DestinationEntry struct {
	Name                     string
	URL                      string
	Authentication           string
	Username                 string
	Password                 string
	HasPassword              bool
	ProxyType                string
	CloudConnectorLocationID string
	Properties               map[string]string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

func (r *destinationEntryRecord) toEntry() DestinationEntry {
	if r == nil {
		return DestinationEntry{}
	}
	return DestinationEntry{
		Name:                     r.Name,
		URL:                      r.URL,
		Authentication:           r.Authentication,
		Username:                 r.Username,
		HasPassword:              len(r.EncryptedPassword) > 0,
		ProxyType:                r.ProxyType,
		CloudConnectorLocationID: r.CloudConnectorLocationID,
		Properties:               copyProperties(r.Properties),
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}
}

func copyProperties(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
