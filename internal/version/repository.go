package version

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/evcraddock/issue-tracker/internal/db"
)

// ErrInvalid marks input rejected before any storage access.
var ErrInvalid = errors.New("invalid version")

var validate = validator.New(validator.WithRequiredStructEnabled())

const (
	insertSQL          = "INSERT INTO VERSION (ID, PROJECT_ID, NAME) VALUES (?, ?, ?)"
	selectByProjectSQL = "SELECT ID, PROJECT_ID, NAME FROM VERSION WHERE PROJECT_ID = ? ORDER BY NAME ASC, ID ASC"
)

// Repository provides persistence for project versions.
type Repository struct {
	provider db.Provider
	log      *slog.Logger
	newID    func() string
}

// NewRepository creates a version repository.
func NewRepository(provider db.Provider, logger *slog.Logger) *Repository {
	return &Repository{provider: provider, log: logger, newID: uuid.NewString}
}

// Add stores v and returns its ID. An empty ID is replaced by a new UUID;
// v itself is not modified.
func (r *Repository) Add(ctx context.Context, v *Version) (string, error) {
	if err := validate.Struct(v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	id := v.ID
	if id == "" {
		id = r.newID()
	}

	err := db.WithConn(ctx, r.provider, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, r.provider.Rebind(insertSQL), id, v.ProjectID, v.Name); err != nil {
			return fmt.Errorf("inserting version: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "error while adding version to DB",
			"version_id", id, "project_id", v.ProjectID, "error", err)
		return "", db.NewStorageError("add version", err)
	}

	return id, nil
}

// CheckProjectID rejects a blank project ID with ErrInvalid.
func CheckProjectID(projectID string) error {
	if err := validate.Var(projectID, "required"); err != nil {
		return fmt.Errorf("%w: project id is required", ErrInvalid)
	}
	return nil
}

// ListByProject returns a project's versions ordered by name.
func (r *Repository) ListByProject(ctx context.Context, projectID string) ([]*Version, error) {
	if err := CheckProjectID(projectID); err != nil {
		return nil, err
	}

	versions := []*Version{}

	err := db.WithConn(ctx, r.provider, func(conn *sql.Conn) (err error) {
		rows, err := conn.QueryContext(ctx, r.provider.Rebind(selectByProjectSQL), projectID)
		if err != nil {
			return fmt.Errorf("listing versions: %w", err)
		}
		defer func() {
			if closeErr := rows.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("closing rows: %w", closeErr)
			}
		}()

		for rows.Next() {
			var v Version
			if err := rows.Scan(&v.ID, &v.ProjectID, &v.Name); err != nil {
				return fmt.Errorf("scanning version: %w", err)
			}
			versions = append(versions, &v)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating versions: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "error while getting versions from DB", "project_id", projectID, "error", err)
		return nil, db.NewStorageError("list versions", err)
	}

	return versions, nil
}
