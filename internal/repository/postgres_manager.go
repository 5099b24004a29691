package repository

import (
	"context"
	"database/sql"

	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/repository/migrations"
	"github.com/pressly/goose/v3"
)

// PostgresManager vends Postgres-backed Stores and runs goose migrations.
type PostgresManager struct{}

// NewPostgresManager constructs a PostgresManager.
func NewPostgresManager() *PostgresManager {
	return &PostgresManager{}
}

// Bind returns a Store over db.
func (m *PostgresManager) Bind(db dbx.DBTX) Store {
	return NewRepository(db)
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUp(ctx, db, ".")
}
