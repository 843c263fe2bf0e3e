// Package dbtest starts a throwaway postgres for repository tests.
package dbtest

import (
	"context"
	"database/sql"

	"moswords/internal/database"

	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Postgres starts a postgres:16 container, migrates it and returns a bun
// handle plus a cleanup func that closes the handle and removes the container.
func Postgres(ctx context.Context) (*bun.DB, func(), error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("moswords"),
		postgres.WithUsername("moswords"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dbtest.Postgres.Run")
	}

	terminate := func() { _ = container.Terminate(context.Background()) }

	connStr, err := container.ConnectionString(ctx, "sslmode=disable", "application_name=test")
	if err != nil {
		terminate()
		return nil, nil, errors.Wrap(err, "dbtest.Postgres.ConnectionString")
	}

	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	db := bun.NewDB(sqlDB, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		terminate()
		return nil, nil, errors.Wrap(err, "dbtest.Postgres.Ping")
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		terminate()
		return nil, nil, err
	}

	cleanup := func() {
		db.Close()
		terminate()
	}
	return db, cleanup, nil
}

// Truncate empties the given tables.
func Truncate(ctx context.Context, db *bun.DB, tables ...string) error {
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+t+" CASCADE"); err != nil {
			return errors.Wrapf(err, "dbtest.Truncate %s", t)
		}
	}
	return nil
}
