package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	destmigrations "github.com/goliatone/go-destinations/migrations"
	"github.com/goliatone/go-destinations/security"
	sqlstore "github.com/goliatone/go-destinations/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

type storeConfig struct {
	driver string
	dsn    string
	debug  bool
}

func (c storeConfig) GetDebug() bool {
	return c.debug
}

func (c storeConfig) GetDriver() string {
	return c.driver
}

func (c storeConfig) GetServer() string {
	return c.dsn
}

func (c storeConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func (c storeConfig) GetOtelIdentifier() string {
	return "go-destinations"
}

type openedStore struct {
	client *persistence.Client
	store  *sqlstore.DestinationStore
}

func (s *openedStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// openStore connects to the destination_entries database and applies the
// embedded migrations for its dialect.
func openStore(ctx context.Context, cfg storeConfig, appKey string) (*openedStore, error) {
	dialectName, err := destmigrations.DialectForDriver(cfg.driver)
	if err != nil {
		return nil, err
	}
	driver := "sqlite3"
	var dialect schema.Dialect = sqlitedialect.New()
	if dialectName == destmigrations.DialectPostgres {
		driver = "postgres"
		dialect = pgdialect.New()
	}
	cfg.driver = driver

	sqlDB, err := sql.Open(driver, cfg.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	}
	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("persistence client: %w", err)
	}

	_, err = destmigrations.Register(ctx, func(_ context.Context, target string, _ string, fsys fs.FS) error {
		if target != dialectName {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, destmigrations.WithValidationTargets(dialectName))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var opts []sqlstore.FactoryOption
	if appKey != "" {
		secrets, err := security.NewAppKeySecretProviderFromString(appKey)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		opts = append(opts, sqlstore.WithSecretProvider(secrets))
	}
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &openedStore{client: client, store: factory.DestinationStore()}, nil
}
