package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/evcraddock/issue-tracker/internal/comment"
	"github.com/evcraddock/issue-tracker/internal/db"
	"github.com/evcraddock/issue-tracker/internal/logging"
	"github.com/evcraddock/issue-tracker/internal/version"
	"github.com/evcraddock/issue-tracker/internal/web"
)

func TestListByIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/issues/42/comments" {
			t.Errorf("path = %q, want /api/issues/42/comments", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode([]*comment.Comment{{ID: 1, Body: "first", IssueID: 42}}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer srv.Close()

	comments, err := New(srv.URL).ListByIssue(context.Background(), 42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
	if comments[0].Body != "first" {
		t.Errorf("body = %q", comments[0].Body)
	}
}

func TestAddSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/issues/7/comments" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["comment"] != "hello" || body["creator"] != "bob" {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := New(srv.URL+"/").Add(context.Background(), &comment.Comment{Body: "hello", Creator: "bob", IssueID: 7})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestServerError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		badRequest bool
	}{
		{"json error", http.StatusBadRequest, `{"error":"comment is required"}`, "comment is required", true},
		{"plain error", http.StatusBadGateway, "upstream gone", "server error: Bad Gateway", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(srv.URL).DeleteByID(context.Background(), 1)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", apiErr.Error(), tt.wantMsg)
			}
			if apiErr.BadRequest() != tt.badRequest {
				t.Errorf("BadRequest() = %v, want %v", apiErr.BadRequest(), tt.badRequest)
			}
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New(url).ListByIssue(context.Background(), 1); err == nil {
		t.Fatal("expected error from closed server")
	}
}

func TestVersionsRejectEmptyProject(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	versions := New(srv.URL).Versions()
	ctx := context.Background()

	if _, err := versions.Add(ctx, &version.Version{Name: "1.0.0"}); !errors.Is(err, version.ErrInvalid) {
		t.Errorf("add: err = %v, want version.ErrInvalid", err)
	}
	if _, err := versions.ListByProject(ctx, ""); !errors.Is(err, version.ErrInvalid) {
		t.Errorf("list: err = %v, want version.ErrInvalid", err)
	}
	if calls != 0 {
		t.Errorf("server called %d times, want 0", calls)
	}
}

func TestProjectPathEscapes(t *testing.T) {
	if got := projectPath("a b/c"); got != "/api/projects/a%20b%2Fc/versions" {
		t.Errorf("projectPath = %q", got)
	}
}

// TestAgainstAPIServer drives the real API server over HTTP.
func TestAgainstAPIServer(t *testing.T) {
	d, err := db.OpenPath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer d.Close()

	logger := logging.Discard()
	api := web.NewServer(comment.NewRepository(d, logger), version.NewRepository(d, logger), logger)
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx := context.Background()
	c := New(srv.URL)

	empty, err := c.ListByIssue(ctx, 5)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty list = %#v, want empty non-nil slice", empty)
	}

	if err := c.Add(ctx, &comment.Comment{Body: "remote", Creator: "carol", IssueID: 5}); err != nil {
		t.Fatalf("add: %v", err)
	}
	comments, err := c.ListByIssue(ctx, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 1 || comments[0].Creator != "carol" {
		t.Fatalf("comments = %+v", comments)
	}

	if err := c.Edit(ctx, &comment.Comment{ID: comments[0].ID, Body: "edited"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	comments, err = c.ListByIssue(ctx, 5)
	if err != nil {
		t.Fatalf("list after edit: %v", err)
	}
	if comments[0].Body != "edited" {
		t.Errorf("body = %q, want edited", comments[0].Body)
	}

	if err := c.DeleteByID(ctx, comments[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	versions := c.Versions()
	id, err := versions.Add(ctx, &version.Version{ProjectID: "tracker", Name: "2.0.0"})
	if err != nil {
		t.Fatalf("add version: %v", err)
	}
	if id == "" {
		t.Error("expected generated version ID")
	}

	list, err := versions.ListByProject(ctx, "tracker")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(list) != 1 || list[0].ID != id || list[0].Name != "2.0.0" {
		t.Errorf("versions = %+v", list)
	}

	_, err = versions.Add(ctx, &version.Version{ProjectID: "tracker"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.BadRequest() {
		t.Errorf("expected bad request for missing name, got %v", err)
	}
}
