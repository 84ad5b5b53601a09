package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

func NewConnection(cfg *config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch Dialect(cfg.Database.Driver) {
	case DialectMySQL:
		db, err = sql.Open("mysql", cfg.DatabaseDSN())
	case DialectSQLite:
		db, err = sql.Open("sqlite", cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Database.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxConnections)
	}
	if cfg.Database.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(cfg.Database.ConnectionLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Open returns the repository selected by database.driver together with a
// function that releases its connection.
func Open(ctx context.Context, cfg *config.Config) (Repository, func() error, error) {
	if cfg.Database.Driver == "mongo" {
		repo, err := NewMongoRepository(ctx, cfg.Database.MongoURI, cfg.Database.Name, cfg.Database.Collection)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() error { return repo.Close(context.Background()) }, nil
	}

	conn, err := NewConnection(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := NewRepository(conn, Dialect(cfg.Database.Driver))
	if err := repo.CreateSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return repo, conn.Close, nil
}
