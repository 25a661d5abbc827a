// Package web provides the JSON API server over the comment and version
// repositories.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/issue-tracker/internal/comment"
	"github.com/evcraddock/issue-tracker/internal/logging"
	"github.com/evcraddock/issue-tracker/internal/version"
)

// CommentStore is the comment persistence the API needs.
type CommentStore interface {
	ListByIssue(ctx context.Context, issueID int64) ([]*comment.Comment, error)
	Add(ctx context.Context, c *comment.Comment) error
	Edit(ctx context.Context, c *comment.Comment) error
	DeleteByID(ctx context.Context, commentID int64) error
}

// VersionStore is the version persistence the API needs.
type VersionStore interface {
	Add(ctx context.Context, v *version.Version) (string, error)
	ListByProject(ctx context.Context, projectID string) ([]*version.Version, error)
}

// Server is the API HTTP server.
type Server struct {
	comments CommentStore
	versions VersionStore
	log      *slog.Logger
	handler  http.Handler
}

// NewServer wires the API routes.
func NewServer(comments CommentStore, versions VersionStore, logger *slog.Logger) *Server {
	s := &Server{
		comments: comments,
		versions: versions,
		log:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/issues/{id}/comments", s.apiListComments)
	mux.HandleFunc("POST /api/issues/{id}/comments", s.apiAddComment)
	mux.HandleFunc("PUT /api/comments/{id}", s.apiEditComment)
	mux.HandleFunc("DELETE /api/comments/{id}", s.apiDeleteComment)
	mux.HandleFunc("GET /api/projects/{id}/versions", s.apiListVersions)
	mux.HandleFunc("POST /api/projects/{id}/versions", s.apiAddVersion)

	s.handler = logging.RequestLogger(logger)(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down API server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
