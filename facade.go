package destinations

import (
	"context"
	"fmt"

	gocmd "github.com/goliatone/go-command"
	destcommand "github.com/goliatone/go-destinations/command"
	"github.com/goliatone/go-destinations/core"
	destquery "github.com/goliatone/go-destinations/query"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
)

type CommandQueryService interface {
	destcommand.Runner
	destquery.DestinationResolver
}

type Commands struct {
	Run    *destcommand.RunDestinationCommand
	Upsert *destcommand.UpsertDestinationCommand
	Delete *destcommand.DeleteDestinationCommand
}

type Queries struct {
	Resolve *destquery.ResolveDestinationQuery
	List    *destquery.ListDestinationsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

// EntryStore is the writable destination table behind the entry commands.
type EntryStore interface {
	destcommand.DestinationWriter
	destquery.DestinationLister
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	entries EntryStore
}

func WithEntryStore(store EntryStore) FacadeOption {
	return func(options *facadeOptions) {
		options.entries = store
	}
}

// NewFacade wires command and query handlers over service. Entry commands use
// the configured SQL destination store when no EntryStore is given; without
// one they report a missing dependency.
func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("destinations: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	entries := cfg.entries
	if entries == nil {
		entries = resolveEntryStore(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Run:    destcommand.NewRunDestinationCommand(service),
		Upsert: destcommand.NewUpsertDestinationCommand(entries),
		Delete: destcommand.NewDeleteDestinationCommand(entries),
	}
	facade.queries = Queries{
		Resolve: destquery.NewResolveDestinationQuery(service),
		List:    destquery.NewListDestinationsQuery(entries),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// Run executes the run command and returns the collected response body.
func (f *Facade) Run(ctx context.Context, msg destcommand.RunDestinationMessage) (ResponseBody, error) {
	if f == nil {
		return ResponseBody{}, fmt.Errorf("destinations: facade is nil")
	}
	collector := gocmd.NewResult[ResponseBody]()
	if err := f.commands.Run.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return ResponseBody{}, err
	}
	body, _ := collector.Load()
	return body, nil
}

func resolveEntryStore(service CommandQueryService) EntryStore {
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	store, ok := provider.Dependencies().Store.(*sqlstore.DestinationStore)
	if !ok || store == nil {
		return nil
	}
	return store
}
