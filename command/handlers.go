package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-destinations/core"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
)

type Runner interface {
	Run(ctx context.Context, name string, options core.RequestOptions) (core.ResponseBody, error)
}

type DestinationWriter interface {
	Upsert(ctx context.Context, entry sqlstore.DestinationEntry) (sqlstore.DestinationEntry, error)
	Delete(ctx context.Context, name string) error
}

type RunDestinationCommand struct {
	runner Runner
}

func NewRunDestinationCommand(runner Runner) *RunDestinationCommand {
	return &RunDestinationCommand{runner: runner}
}

// Execute stores the core.ResponseBody in the context result collector when
// one is attached.
func (c *RunDestinationCommand) Execute(ctx context.Context, msg RunDestinationMessage) error {
	if c == nil || c.runner == nil {
		return commandDependencyError("command: destination runner is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := c.runner.Run(ctx, strings.TrimSpace(msg.Destination), msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, body)
	return nil
}

type UpsertDestinationCommand struct {
	writer DestinationWriter
}

func NewUpsertDestinationCommand(writer DestinationWriter) *UpsertDestinationCommand {
	return &UpsertDestinationCommand{writer: writer}
}

func (c *UpsertDestinationCommand) Execute(ctx context.Context, msg UpsertDestinationMessage) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: destination writer is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	saved, err := c.writer.Upsert(ctx, msg.Entry)
	if err != nil {
		return err
	}
	storeResult(ctx, saved)
	return nil
}

type DeleteDestinationCommand struct {
	writer DestinationWriter
}

func NewDeleteDestinationCommand(writer DestinationWriter) *DeleteDestinationCommand {
	return &DeleteDestinationCommand{writer: writer}
}

func (c *DeleteDestinationCommand) Execute(ctx context.Context, msg DeleteDestinationMessage) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: destination writer is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.writer.Delete(ctx, strings.TrimSpace(msg.Name))
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
