package gocommand_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	destinations "github.com/goliatone/go-destinations"
	"github.com/goliatone/go-destinations/adapters/gocommand"
	destcommand "github.com/goliatone/go-destinations/command"
	"github.com/goliatone/go-destinations/core"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
)

type okMessage struct{}

func (okMessage) Type() string { return "destinations.test.ok" }

type untypedMessage struct{}

func (untypedMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "destinations.test.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type fakeService struct {
	runs []string
}

func (s *fakeService) Run(_ context.Context, name string, options core.RequestOptions) (core.ResponseBody, error) {
	s.runs = append(s.runs, name+" "+options.Path)
	return core.NewResponseBody([]byte(`{"ok":true}`), "application/json"), nil
}

func (s *fakeService) Resolve(_ context.Context, name string) (core.CredentialRecord, error) {
	return core.NewCredentialRecord(core.CredentialPayload{
		"Name":           name,
		"URL":            "https://svc.example",
		"Authentication": "BasicAuthentication",
		"User":           "u",
		"Password":       "secret",
	})
}

type fakeEntries struct {
	entries []sqlstore.DestinationEntry
	deleted []string
}

func (s *fakeEntries) Upsert(_ context.Context, entry sqlstore.DestinationEntry) (sqlstore.DestinationEntry, error) {
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *fakeEntries) Delete(_ context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *fakeEntries) List(context.Context) ([]sqlstore.DestinationEntry, error) {
	return s.entries, nil
}

func register(t *testing.T) (*fakeService, *fakeEntries) {
	t.Helper()
	service := &fakeService{}
	entries := &fakeEntries{}
	facade, err := destinations.NewFacade(service, destinations.WithEntryStore(entries))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	reg, err := gocommand.Register(command.NewRegistry(), facade)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	t.Cleanup(reg.Close)
	return service, entries
}

func TestValidateMessageContract(t *testing.T) {
	if err := gocommand.ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := gocommand.ValidateMessageContract(untypedMessage{}); err == nil {
		t.Fatalf("expected empty type to fail")
	}
	if err := gocommand.ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegisterRequiresFacade(t *testing.T) {
	if _, err := gocommand.Register(nil, nil); err == nil {
		t.Fatalf("expected error for nil facade")
	}
}

func TestRunThroughDispatcher(t *testing.T) {
	service, _ := register(t)

	body, err := gocommand.Run(context.Background(), destcommand.RunDestinationMessage{
		Destination: "orders",
		Request:     core.RequestOptions{Method: "GET", Path: "/v1/orders"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if body.String() != `{"ok":true}` {
		t.Fatalf("unexpected body %q", body.String())
	}
	if len(service.runs) != 1 || service.runs[0] != "orders /v1/orders" {
		t.Fatalf("unexpected runs %v", service.runs)
	}
}

func TestRunRejectsInvalidMessage(t *testing.T) {
	service, _ := register(t)

	if _, err := gocommand.Run(context.Background(), destcommand.RunDestinationMessage{}); err == nil {
		t.Fatalf("expected validation error for missing destination")
	}
	if len(service.runs) != 0 {
		t.Fatalf("expected no runs, got %v", service.runs)
	}
}

func TestResolveThroughDispatcherIsRedacted(t *testing.T) {
	register(t)

	record, err := gocommand.Resolve(context.Background(), "orders")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if record.Name != "orders" {
		t.Fatalf("unexpected name %q", record.Name)
	}
	if record.Password != core.RedactedValue {
		t.Fatalf("expected redacted password, got %q", record.Password)
	}
}

func TestEntryCommandsThroughDispatcher(t *testing.T) {
	_, entries := register(t)
	ctx := context.Background()

	entry := sqlstore.DestinationEntry{Name: "billing", URL: "https://billing.example", ProxyType: "Internet"}
	if err := gocommand.Upsert(ctx, entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	listed, err := gocommand.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "billing" {
		t.Fatalf("unexpected entries %+v", listed)
	}
	if err := gocommand.Delete(ctx, "billing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(entries.deleted) != 1 || entries.deleted[0] != "billing" {
		t.Fatalf("unexpected deletes %v", entries.deleted)
	}
}
