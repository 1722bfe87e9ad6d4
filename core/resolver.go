package core

import (
	"context"
	"strings"
)

type SourceKind string

const (
	SourceDirect   SourceKind = "direct"
	SourceIndirect SourceKind = "indirect"
)

// DestinationSource tells the resolver where credentials come from: inline
// credentials or a key into the destination store.
type DestinationSource struct {
	Kind        SourceKind
	StoreKey    string
	Credentials CredentialPayload
}

// ClassifySource splits a credentials block into a direct or an indirect
// source. A store reference takes precedence over an inline url.
func ClassifySource(name string, credentials CredentialPayload) (DestinationSource, error) {
	if storeKey := credentials.String(PayloadKeyStoreDestination); storeKey != "" {
		return DestinationSource{Kind: SourceIndirect, StoreKey: storeKey}, nil
	}
	if credentials.Has(PayloadKeyDirectURL) {
		return DestinationSource{Kind: SourceDirect, Credentials: credentials.Clone()}, nil
	}
	return DestinationSource{}, ConfigurationError(
		"missing credentials configuration for destination "+name,
		map[string]any{"destination": name},
	)
}

type Resolver struct {
	catalog DestinationCatalog
	store   DestinationStore
}

func NewResolver(catalog DestinationCatalog, store DestinationStore) *Resolver {
	return &Resolver{catalog: catalog, store: store}
}

// Resolve turns a destination name into a credential record. Nothing is
// cached; every call reads the catalog and, for store references, the store.
func (r *Resolver) Resolve(ctx context.Context, name string) (CredentialRecord, error) {
	if r == nil || r.catalog == nil {
		return CredentialRecord{}, internalError("destinations: resolver requires a destination catalog")
	}
	name = strings.TrimSpace(name)
	entry, ok := r.catalog.Destination(name)
	if !ok {
		return CredentialRecord{}, ConfigurationError(
			"missing destination configuration for "+name,
			map[string]any{"destination": name},
		)
	}
	if entry.Credentials == nil {
		return CredentialRecord{}, ConfigurationError(
			"external service configuration without credentials is not supported",
			map[string]any{"destination": name},
		)
	}

	source, err := ClassifySource(name, CredentialPayload(entry.Credentials))
	if err != nil {
		return CredentialRecord{}, err
	}

	switch source.Kind {
	case SourceIndirect:
		return r.resolveFromStore(ctx, name, source.StoreKey)
	case SourceDirect:
		return NewCredentialRecord(source.Credentials)
	default:
		return CredentialRecord{}, internalError("destinations: unknown destination source " + string(source.Kind))
	}
}

func (r *Resolver) resolveFromStore(ctx context.Context, name string, storeKey string) (CredentialRecord, error) {
	if r.store == nil {
		return CredentialRecord{}, ConfigurationError(
			"destination store is not configured for destination "+name,
			map[string]any{"destination": name, "store_key": storeKey},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := r.store.Lookup(ctx, storeKey)
	if err != nil {
		return CredentialRecord{}, UpstreamError(StageDestinationLookup, err, map[string]any{
			"destination": name,
			"store_key":   storeKey,
		})
	}
	return NewCredentialRecord(payload.DestinationConfiguration)
}
