package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names.
const (
	CommentTable = "COMMENT"
	VersionTable = "VERSION"
)

// schema lists the idempotent bootstrap statements per dialect.
// ISSUE_ID and PROJECT_ID reference tables owned by other layers, so they
// carry no foreign key constraint here.
var schema = map[Dialect][]string{
	SQLite: {
		`CREATE TABLE IF NOT EXISTS COMMENT (
			ID           INTEGER  PRIMARY KEY AUTOINCREMENT,
			COMMENT      TEXT     NOT NULL,
			CREATED_TIME DATETIME NOT NULL,
			UPDATED_TIME DATETIME NOT NULL,
			CREATOR      TEXT     NOT NULL DEFAULT '',
			ISSUE_ID     INTEGER  NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS IDX_COMMENT_ISSUE_ID ON COMMENT (ISSUE_ID)`,
		`CREATE TABLE IF NOT EXISTS VERSION (
			ID         TEXT PRIMARY KEY,
			PROJECT_ID TEXT NOT NULL,
			NAME       TEXT NOT NULL,
			UNIQUE (PROJECT_ID, NAME)
		)`,
		`CREATE INDEX IF NOT EXISTS IDX_VERSION_PROJECT_ID ON VERSION (PROJECT_ID)`,
	},
	Postgres: {
		`CREATE TABLE IF NOT EXISTS COMMENT (
			ID           BIGSERIAL   PRIMARY KEY,
			COMMENT      TEXT        NOT NULL,
			CREATED_TIME TIMESTAMPTZ NOT NULL,
			UPDATED_TIME TIMESTAMPTZ NOT NULL,
			CREATOR      TEXT        NOT NULL DEFAULT '',
			ISSUE_ID     BIGINT      NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS IDX_COMMENT_ISSUE_ID ON COMMENT (ISSUE_ID)`,
		`CREATE TABLE IF NOT EXISTS VERSION (
			ID         TEXT PRIMARY KEY,
			PROJECT_ID TEXT NOT NULL,
			NAME       TEXT NOT NULL,
			UNIQUE (PROJECT_ID, NAME)
		)`,
		`CREATE INDEX IF NOT EXISTS IDX_VERSION_PROJECT_ID ON VERSION (PROJECT_ID)`,
	},
}

// ensureSchema creates missing tables and indexes. It is safe to run on
// every open.
func (d *DB) ensureSchema(ctx context.Context) error {
	return WithConn(ctx, d, func(conn *sql.Conn) error {
		for i, stmt := range schema[d.dialect] {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
