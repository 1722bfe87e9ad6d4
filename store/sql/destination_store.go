package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-destinations/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DestinationStore serves destination lookups from the destination_entries
// table. It answers the same shape as the destination service so a catalog
// entry can point either way.
type DestinationStore struct {
	db      *bun.DB
	repo    repository.Repository[*destinationEntryRecord]
	secrets core.SecretProvider
}

func (s *DestinationStore) Lookup(ctx context.Context, storeKey string) (core.DestinationPayload, error) {
	if s == nil || s.repo == nil {
		return core.DestinationPayload{}, fmt.Errorf("sqlstore: destination store is not configured")
	}
	key := strings.TrimSpace(storeKey)
	record, err := s.find(ctx, key)
	if err != nil {
		return core.DestinationPayload{}, err
	}
	if record == nil {
		return core.DestinationPayload{}, &core.TransportError{
			Message:    fmt.Sprintf("destination %q not found", key),
			StatusCode: http.StatusNotFound,
		}
	}

	payload := core.CredentialPayload{
		core.PayloadKeyName:           record.Name,
		core.PayloadKeyURL:            record.URL,
		core.PayloadKeyAuthentication: record.Authentication,
		core.PayloadKeyProxyType:      record.ProxyType,
	}
	if record.Username != "" {
		payload[core.PayloadKeyUser] = record.Username
	}
	if record.CloudConnectorLocationID != "" {
		payload[core.PayloadKeyLocationID] = record.CloudConnectorLocationID
	}
	if len(record.EncryptedPassword) > 0 {
		password, err := s.openPassword(ctx, record.EncryptedPassword)
		if err != nil {
			return core.DestinationPayload{}, err
		}
		payload[core.PayloadKeyPassword] = password
	}
	for key, value := range record.Properties {
		if _, taken := payload[key]; !taken {
			payload[key] = value
		}
	}
	return core.DestinationPayload{DestinationConfiguration: payload}, nil
}

// Upsert inserts entry or replaces the stored entry with the same name.
func (s *DestinationStore) Upsert(ctx context.Context, entry DestinationEntry) (DestinationEntry, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return DestinationEntry{}, fmt.Errorf("sqlstore: destination store is not configured")
	}
	record, err := s.newRecord(ctx, entry)
	if err != nil {
		return DestinationEntry{}, err
	}

	var saved DestinationEntry
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := new(destinationEntryRecord)
		selectErr := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.name = ?", record.Name).
			Limit(1).
			Scan(ctx)
		switch {
		case errors.Is(selectErr, sql.ErrNoRows):
			inserted, createErr := s.repo.CreateTx(ctx, tx, record)
			if createErr != nil {
				return createErr
			}
			saved = inserted.toEntry()
			return nil
		case selectErr != nil:
			return selectErr
		}

		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		properties, marshalErr := json.Marshal(record.Properties)
		if marshalErr != nil {
			return marshalErr
		}
		_, updateErr := tx.NewUpdate().
			Model((*destinationEntryRecord)(nil)).
			Set("url = ?", record.URL).
			Set("authentication = ?", record.Authentication).
			Set("username = ?", record.Username).
			Set("encrypted_password = ?", record.EncryptedPassword).
			Set("proxy_type = ?", record.ProxyType).
			Set("cloud_connector_location_id = ?", record.CloudConnectorLocationID).
			Set("properties = ?", string(properties)).
			Set("updated_at = ?", record.UpdatedAt).
			Where("id = ?", existing.ID).
			Exec(ctx)
		if updateErr != nil {
			return updateErr
		}
		saved = record.toEntry()
		return nil
	})
	if err != nil {
		return DestinationEntry{}, err
	}
	return saved, nil
}

func (s *DestinationStore) Delete(ctx context.Context, name string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: destination store is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("sqlstore: destination name is required")
	}
	_, err := s.db.NewDelete().
		Model((*destinationEntryRecord)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	return err
}

// List returns every stored entry ordered by name, without passwords.
func (s *DestinationStore) List(ctx context.Context) ([]DestinationEntry, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: destination store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("name ASC"))
	if err != nil {
		return nil, err
	}
	out := make([]DestinationEntry, 0, len(records))
	for _, record := range records {
		out = append(out, record.toEntry())
	}
	return out, nil
}

func (s *DestinationStore) find(ctx context.Context, name string) (*destinationEntryRecord, error) {
	if name == "" {
		return nil, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("name", "=", name),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (s *DestinationStore) newRecord(ctx context.Context, entry DestinationEntry) (*destinationEntryRecord, error) {
	name := strings.TrimSpace(entry.Name)
	if name == "" {
		return nil, fmt.Errorf("sqlstore: destination name is required")
	}
	url := strings.TrimSpace(entry.URL)
	if url == "" {
		return nil, fmt.Errorf("sqlstore: destination url is required")
	}
	authentication := strings.TrimSpace(entry.Authentication)
	if authentication == "" {
		authentication = string(core.AuthenticationNone)
	}
	proxyType := strings.TrimSpace(entry.ProxyType)
	if proxyType == "" {
		proxyType = string(core.ProxyTypeInternet)
	}

	var sealed []byte
	if entry.Password != "" {
		if s.secrets == nil {
			return nil, fmt.Errorf("sqlstore: secret provider is required to store a password")
		}
		encrypted, err := s.secrets.Encrypt(ctx, []byte(entry.Password))
		if err != nil {
			return nil, fmt.Errorf("sqlstore: encrypt password: %w", err)
		}
		sealed = encrypted
	}

	now := time.Now().UTC()
	return &destinationEntryRecord{
		ID:                       uuid.NewString(),
		Name:                     name,
		URL:                      url,
		Authentication:           authentication,
		Username:                 strings.TrimSpace(entry.Username),
		EncryptedPassword:        sealed,
		ProxyType:                proxyType,
		CloudConnectorLocationID: strings.TrimSpace(entry.CloudConnectorLocationID),
		Properties:               copyProperties(entry.Properties),
		CreatedAt:                now,
		UpdatedAt:                now,
	}, nil
}

func (s *DestinationStore) openPassword(ctx context.Context, sealed []byte) (string, error) {
	if s.secrets == nil {
		return "", fmt.Errorf("sqlstore: secret provider is required to read a stored password")
	}
	plaintext, err := s.secrets.Decrypt(ctx, sealed)
	if err != nil {
		return "", fmt.Errorf("sqlstore: decrypt password: %w", err)
	}
	return string(plaintext), nil
}
