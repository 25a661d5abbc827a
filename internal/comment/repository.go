package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/issue-tracker/internal/db"
)

// ErrInvalid marks input rejected before any storage access.
var ErrInvalid = errors.New("invalid comment")

var validate = validator.New(validator.WithRequiredStructEnabled())

const (
	selectByIssueSQL = "SELECT ID, COMMENT, CREATED_TIME, UPDATED_TIME, CREATOR, ISSUE_ID FROM COMMENT WHERE ISSUE_ID = ? ORDER BY ID ASC"
	insertSQL        = "INSERT INTO COMMENT (COMMENT, CREATED_TIME, UPDATED_TIME, CREATOR, ISSUE_ID) VALUES (?, ?, ?, ?, ?)"
	deleteSQL        = "DELETE FROM COMMENT WHERE ID = ?"
	updateSQL        = "UPDATE COMMENT SET COMMENT = ?, UPDATED_TIME = ? WHERE ID = ?"
)

// Repository provides CRUD operations for comments. Each call acquires its
// own connection from the provider and releases it before returning.
type Repository struct {
	provider db.Provider
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces the clock used to stamp created and updated times.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// NewRepository creates a comment repository.
func NewRepository(provider db.Provider, logger *slog.Logger, opts ...Option) *Repository {
	r := &Repository{provider: provider, log: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListByIssue returns the comments on an issue, oldest first.
func (r *Repository) ListByIssue(ctx context.Context, issueID int64) ([]*Comment, error) {
	comments := []*Comment{}

	err := db.WithConn(ctx, r.provider, func(conn *sql.Conn) (err error) {
		rows, err := conn.QueryContext(ctx, r.provider.Rebind(selectByIssueSQL), issueID)
		if err != nil {
			return fmt.Errorf("listing comments: %w", err)
		}
		defer func() {
			if closeErr := rows.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("closing rows: %w", closeErr)
			}
		}()

		for rows.Next() {
			var (
				c                Comment
				created, updated db.Timestamp
			)
			if err := rows.Scan(&c.ID, &c.Body, &created, &updated, &c.Creator, &c.IssueID); err != nil {
				return fmt.Errorf("scanning comment: %w", err)
			}
			c.CreatedTime = FormatTime(created.Time)
			c.UpdatedTime = FormatTime(updated.Time)
			comments = append(comments, &c)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating comments: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "error while getting comments from DB", "issue_id", issueID, "error", err)
		return nil, db.NewStorageError("list comments", err)
	}

	return comments, nil
}

// Add inserts a new comment. Both timestamps are set to the current time;
// the generated ID is not reported back.
func (r *Repository) Add(ctx context.Context, c *Comment) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	now := r.now().UTC()
	err := db.WithConn(ctx, r.provider, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, r.provider.Rebind(insertSQL),
			c.Body, now, now, c.Creator, c.IssueID,
		); err != nil {
			return fmt.Errorf("inserting comment: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "error while adding comment to DB",
			"comment_id", c.ID, "issue_id", c.IssueID, "error", err)
		return db.NewStorageError("add comment", err)
	}

	r.log.DebugContext(ctx, "comment inserted", "issue_id", c.IssueID)
	return nil
}

// DeleteByID removes a comment. A missing ID is not an error.
func (r *Repository) DeleteByID(ctx context.Context, commentID int64) error {
	var affected int64
	err := db.WithConn(ctx, r.provider, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, r.provider.Rebind(deleteSQL), commentID)
		if err != nil {
			return fmt.Errorf("deleting comment: %w", err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "error while deleting comment from DB", "comment_id", commentID, "error", err)
		return db.NewStorageError("delete comment", err)
	}

	r.log.DebugContext(ctx, "comment deleted", "comment_id", commentID, "rows", affected)
	return nil
}

// Edit replaces the body of an existing comment and refreshes its updated
// time. Creator, issue and created time are left alone.
func (r *Repository) Edit(ctx context.Context, c *Comment) error {
	// Edits address the comment by ID; the owning issue is never rewritten.
	if err := validate.StructExcept(c, "IssueID"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalid)
	}

	now := r.now().UTC()
	var affected int64
	err := db.WithConn(ctx, r.provider, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, r.provider.Rebind(updateSQL), c.Body, now, c.ID)
		if err != nil {
			return fmt.Errorf("updating comment: %w", err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "error while editing comment in DB", "comment_id", c.ID, "error", err)
		return db.NewStorageError("edit comment", err)
	}

	r.log.DebugContext(ctx, "comment updated", "comment_id", c.ID, "rows", affected)
	return nil
}
