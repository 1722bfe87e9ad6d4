// Package gocommand publishes the destination commands and queries on the
// go-command dispatcher so hosts can drive them by message type.
package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	destinations "github.com/goliatone/go-destinations"
	destcommand "github.com/goliatone/go-destinations/command"
	"github.com/goliatone/go-destinations/core"
	destquery "github.com/goliatone/go-destinations/query"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
)

// ValidateMessageContract checks that msg has a non-empty Type() and passes
// its own Validate(), if any.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// Registration holds the dispatcher subscriptions made by Register.
type Registration struct {
	registry      *command.Registry
	subscriptions []commanddispatcher.Subscription
}

func (r *Registration) Registry() *command.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Close drops every subscription. Safe to call more than once.
func (r *Registration) Close() {
	if r == nil {
		return
	}
	for _, subscription := range r.subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	r.subscriptions = nil
}

func (r *Registration) track(subscription commanddispatcher.Subscription, handler any) error {
	r.subscriptions = append(r.subscriptions, subscription)
	return r.registry.RegisterCommand(handler)
}

// Register subscribes the facade handlers on the dispatcher and records them
// in registry. A nil registry gets a fresh one. The registry is initialized
// before Register returns.
func Register(registry *command.Registry, facade *destinations.Facade, runnerOpts ...runner.Option) (*Registration, error) {
	if facade == nil {
		return nil, fmt.Errorf("gocommand: facade is required")
	}
	if registry == nil {
		registry = command.NewRegistry()
	}
	commands := facade.Commands()
	queries := facade.Queries()
	if commands.Run == nil || queries.Resolve == nil {
		return nil, fmt.Errorf("gocommand: facade handlers are not configured")
	}

	reg := &Registration{registry: registry}
	steps := []func() error{
		func() error {
			return reg.track(commanddispatcher.SubscribeCommand[destcommand.RunDestinationMessage](commands.Run, runnerOpts...), commands.Run)
		},
		func() error {
			return reg.track(commanddispatcher.SubscribeCommand[destcommand.UpsertDestinationMessage](commands.Upsert, runnerOpts...), commands.Upsert)
		},
		func() error {
			return reg.track(commanddispatcher.SubscribeCommand[destcommand.DeleteDestinationMessage](commands.Delete, runnerOpts...), commands.Delete)
		},
		func() error {
			return reg.track(commanddispatcher.SubscribeQuery[destquery.ResolveDestinationMessage, core.CredentialRecord](queries.Resolve, runnerOpts...), queries.Resolve)
		},
		func() error {
			return reg.track(commanddispatcher.SubscribeQuery[destquery.ListDestinationsMessage, []sqlstore.DestinationEntry](queries.List, runnerOpts...), queries.List)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			reg.Close()
			return nil, err
		}
	}
	if err := registry.Initialize(); err != nil {
		reg.Close()
		return nil, err
	}
	return reg, nil
}

// Run dispatches a run message and returns the response body the command
// stored on the context.
func Run(ctx context.Context, msg destcommand.RunDestinationMessage) (core.ResponseBody, error) {
	if err := ValidateMessageContract(msg); err != nil {
		return core.ResponseBody{}, err
	}
	collector := command.NewResult[core.ResponseBody]()
	if err := commanddispatcher.Dispatch(command.ContextWithResult(ctx, collector), msg); err != nil {
		return core.ResponseBody{}, err
	}
	body, _ := collector.Load()
	return body, nil
}

func Upsert(ctx context.Context, entry sqlstore.DestinationEntry) error {
	return commanddispatcher.Dispatch(ctx, destcommand.UpsertDestinationMessage{Entry: entry})
}

func Delete(ctx context.Context, name string) error {
	return commanddispatcher.Dispatch(ctx, destcommand.DeleteDestinationMessage{Name: name})
}

// Resolve returns the redacted credential record for name.
func Resolve(ctx context.Context, name string) (core.CredentialRecord, error) {
	return commanddispatcher.Query[destquery.ResolveDestinationMessage, core.CredentialRecord](ctx, destquery.ResolveDestinationMessage{Destination: name})
}

func List(ctx context.Context) ([]sqlstore.DestinationEntry, error) {
	return commanddispatcher.Query[destquery.ListDestinationsMessage, []sqlstore.DestinationEntry](ctx, destquery.ListDestinationsMessage{})
}
