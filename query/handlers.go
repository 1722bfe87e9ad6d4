package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-destinations/core"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
)

type DestinationResolver interface {
	Resolve(ctx context.Context, name string) (core.CredentialRecord, error)
}

type DestinationLister interface {
	List(ctx context.Context) ([]sqlstore.DestinationEntry, error)
}

type ResolveDestinationQuery struct {
	resolver DestinationResolver
}

func NewResolveDestinationQuery(resolver DestinationResolver) *ResolveDestinationQuery {
	return &ResolveDestinationQuery{resolver: resolver}
}

// Query resolves the destination and returns it with secrets redacted.
func (q *ResolveDestinationQuery) Query(ctx context.Context, msg ResolveDestinationMessage) (core.CredentialRecord, error) {
	if q == nil || q.resolver == nil {
		return core.CredentialRecord{}, queryDependencyError("query: destination resolver is required")
	}
	if err := msg.Validate(); err != nil {
		return core.CredentialRecord{}, err
	}
	record, err := q.resolver.Resolve(ctx, strings.TrimSpace(msg.Destination))
	if err != nil {
		return core.CredentialRecord{}, err
	}
	return record.Redacted(), nil
}

type ListDestinationsQuery struct {
	lister DestinationLister
}

func NewListDestinationsQuery(lister DestinationLister) *ListDestinationsQuery {
	return &ListDestinationsQuery{lister: lister}
}

func (q *ListDestinationsQuery) Query(ctx context.Context, _ ListDestinationsMessage) ([]sqlstore.DestinationEntry, error) {
	if q == nil || q.lister == nil {
		return nil, queryDependencyError("query: destination lister is required")
	}
	return q.lister.List(ctx)
}
