package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"user-service/internal/apperror"
	"user-service/internal/config"
	"user-service/internal/logger"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/schema"
)

// Gateway hands out database handles. WithConn releases the handle on every
// exit path of fn, including panics.
type Gateway interface {
	WithConn(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Driver selects the database/sql driver and bun dialect behind a gateway.
type Driver struct {
	Name    string
	DSN     string
	Dialect func() schema.Dialect
}

func PostgresDriver(cfg config.DatabaseConfig) Driver {
	return Driver{
		Name:    "postgres",
		DSN:     cfg.DSN(),
		Dialect: func() schema.Dialect { return pgdialect.New() },
	}
}

type Option func(*options)

type options struct {
	driver *Driver
	log    *logger.Logger
}

// WithDriver replaces the lib/pq driver, e.g. with SQLite in tests.
func WithDriver(d Driver) Option {
	return func(o *options) { o.driver = &d }
}

func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New builds the gateway for cfg.ConnectMode. The pooled gateway connects
// eagerly; the per-request gateway does not touch the database until used.
func New(ctx context.Context, cfg config.DatabaseConfig, opts ...Option) (Gateway, error) {
	o := options{log: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	driver := PostgresDriver(cfg)
	if o.driver != nil {
		driver = *o.driver
	}

	switch cfg.ConnectMode {
	case config.ConnectPerRequest, "":
		return NewPerRequest(driver, cfg.ConnectTimeout, o.log), nil
	case config.ConnectPooled:
		return NewPooled(ctx, driver, cfg, o.log)
	default:
		return nil, apperror.Configuration("database.New", fmt.Sprintf("unknown connect mode %q", cfg.ConnectMode))
	}
}

func open(ctx context.Context, driver Driver, timeout time.Duration, tune func(*sql.DB)) (*bun.DB, error) {
	sqldb, err := sql.Open(driver.Name, driver.DSN)
	if err != nil {
		return nil, apperror.Connection("database.open", err)
	}
	tune(sqldb)

	pingCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, apperror.Connection("database.ping", err)
	}

	return bun.NewDB(sqldb, driver.Dialect()), nil
}

// PerRequestGateway opens a fresh connection for every WithConn call and
// closes it afterwards. Nothing is pooled or reused.
type PerRequestGateway struct {
	driver  Driver
	timeout time.Duration
	log     *logger.Logger
}

func NewPerRequest(driver Driver, connectTimeout time.Duration, log *logger.Logger) *PerRequestGateway {
	return &PerRequestGateway{driver: driver, timeout: connectTimeout, log: log}
}

func (g *PerRequestGateway) connect(ctx context.Context) (*bun.DB, error) {
	db, err := open(ctx, g.driver, g.timeout, func(sqldb *sql.DB) {
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
	})
	if err != nil {
		g.log.Error("DATABASE", fmt.Sprintf("Failed to open %s connection: %v", g.driver.Name, err))
		return nil, err
	}
	g.log.LogDatabase("OPEN", g.driver.Name, "per-request connection opened")
	return db, nil
}

func (g *PerRequestGateway) release(db *bun.DB) {
	if err := db.Close(); err != nil {
		g.log.Warn("DATABASE", fmt.Sprintf("Failed to close connection: %v", err))
		return
	}
	g.log.LogDatabase("CLOSE", g.driver.Name, "per-request connection closed")
}

func (g *PerRequestGateway) WithConn(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	db, err := g.connect(ctx)
	if err != nil {
		return err
	}
	defer g.release(db)

	return fn(ctx, db)
}

func (g *PerRequestGateway) Ping(ctx context.Context) error {
	db, err := g.connect(ctx)
	if err != nil {
		return err
	}
	g.release(db)
	return nil
}

func (g *PerRequestGateway) Close() error {
	return nil
}

// PooledGateway keeps one *bun.DB for the life of the process and hands each
// WithConn call a dedicated connection checked out of its pool.
type PooledGateway struct {
	db  *bun.DB
	log *logger.Logger
}

func NewPooled(ctx context.Context, driver Driver, cfg config.DatabaseConfig, log *logger.Logger) (*PooledGateway, error) {
	db, err := open(ctx, driver, cfg.ConnectTimeout, func(sqldb *sql.DB) {
		if cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxLifetime > 0 {
			sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
		}
	})
	if err != nil {
		log.Error("DATABASE", fmt.Sprintf("Failed to open %s pool: %v", driver.Name, err))
		return nil, err
	}
	log.Info("DATABASE", fmt.Sprintf("Connection pool ready (max open %d, max idle %d)", cfg.MaxOpenConns, cfg.MaxIdleConns))
	return &PooledGateway{db: db, log: log}, nil
}

func (g *PooledGateway) WithConn(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		g.log.Error("DATABASE", fmt.Sprintf("Failed to acquire pooled connection: %v", err))
		return apperror.Connection("database.acquire", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			g.log.Warn("DATABASE", fmt.Sprintf("Failed to release pooled connection: %v", err))
		}
	}()

	return fn(ctx, &conn)
}

func (g *PooledGateway) Ping(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		return apperror.Connection("database.ping", err)
	}
	return nil
}

func (g *PooledGateway) Close() error {
	return g.db.Close()
}
