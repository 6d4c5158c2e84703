// Package dbtest builds gateways backed by an on-disk SQLite file with the
// users table already created. Only tests import it.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"user-service/internal/config"
	"user-service/internal/database"
	"user-service/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

func SQLiteDriver(t testing.TB) database.Driver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	return database.Driver{
		Name:    sqliteshim.ShimName,
		DSN:     path,
		Dialect: func() schema.Dialect { return sqlitedialect.New() },
	}
}

// NewGateway returns a gateway in the given connect mode whose database
// already has the users table. It is closed when the test ends.
func NewGateway(t testing.TB, mode string) database.Gateway {
	t.Helper()
	ctx := context.Background()

	cfg := config.DatabaseConfig{ConnectMode: mode, MaxOpenConns: 4, MaxIdleConns: 2}
	gw, err := database.New(ctx, cfg, database.WithDriver(SQLiteDriver(t)))
	if err != nil {
		t.Fatalf("Failed to create gateway: %v", err)
	}
	t.Cleanup(func() { gw.Close() })

	err = gw.WithConn(ctx, func(ctx context.Context, db bun.IDB) error {
		return CreateSchema(ctx, db)
	})
	if err != nil {
		t.Fatalf("Failed to create users table: %v", err)
	}
	return gw
}

func CreateSchema(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	return err
}

// CountUsers returns the number of rows in the users table.
func CountUsers(t testing.TB, gw database.Gateway) int {
	t.Helper()
	var count int
	err := gw.WithConn(context.Background(), func(ctx context.Context, db bun.IDB) error {
		var err error
		count, err = db.NewSelect().Model((*models.User)(nil)).Count(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	return count
}
