package version

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/evcraddock/issue-tracker/internal/db"
	"github.com/evcraddock/issue-tracker/internal/logging"
)

func TestAddAndListByProject(t *testing.T) {
	repo, rec := testSetup(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, &Version{ID: "v-1", ProjectID: "tracker", Name: "1.0.0"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id != "v-1" {
		t.Errorf("id = %q, want caller-supplied %q", id, "v-1")
	}

	versions, err := repo.ListByProject(ctx, "tracker")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []*Version{{ID: "v-1", ProjectID: "tracker", Name: "1.0.0"}}
	if diff := cmp.Diff(want, versions); diff != "" {
		t.Errorf("versions mismatch (-want +got):\n%s", diff)
	}
	if n := rec.Count(slog.LevelError); n != 0 {
		t.Errorf("logged %d errors", n)
	}
}

func TestAddGeneratesID(t *testing.T) {
	repo, _ := testSetup(t)
	v := &Version{ProjectID: "tracker", Name: "2.0.0"}

	id, err := repo.Add(context.Background(), v)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("generated id %q is not a UUID: %v", id, err)
	}
	if v.ID != "" {
		t.Errorf("input mutated: ID = %q", v.ID)
	}
}

func TestListByProjectOrderAndScope(t *testing.T) {
	repo, _ := testSetup(t)
	ctx := context.Background()

	for _, v := range []*Version{
		{ProjectID: "tracker", Name: "1.1.0"},
		{ProjectID: "tracker", Name: "1.0.0"},
		{ProjectID: "other", Name: "0.1.0"},
		{ProjectID: "tracker", Name: "1.2.0"},
	} {
		if _, err := repo.Add(ctx, v); err != nil {
			t.Fatalf("add %s/%s: %v", v.ProjectID, v.Name, err)
		}
	}

	versions, err := repo.ListByProject(ctx, "tracker")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var names []string
	for _, v := range versions {
		names = append(names, v.Name)
	}
	if diff := cmp.Diff([]string{"1.0.0", "1.1.0", "1.2.0"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestListByProjectEmpty(t *testing.T) {
	repo, _ := testSetup(t)

	versions, err := repo.ListByProject(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if versions == nil || len(versions) != 0 {
		t.Errorf("versions = %v, want empty slice", versions)
	}
}

func TestAddDuplicateNameIsStorageError(t *testing.T) {
	repo, rec := testSetup(t)
	ctx := context.Background()

	if _, err := repo.Add(ctx, &Version{ProjectID: "tracker", Name: "1.0.0"}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := repo.Add(ctx, &Version{ProjectID: "tracker", Name: "1.0.0"})
	if !db.IsStorageError(err) {
		t.Fatalf("err = %v, want StorageError", err)
	}
	if n := rec.Count(slog.LevelError); n != 1 {
		t.Errorf("logged %d errors, want 1", n)
	}
}

func TestValidation(t *testing.T) {
	provider := &failingProvider{}
	logger, rec := logging.NewRecorder()
	repo := NewRepository(provider, logger)

	tests := []struct {
		name string
		v    *Version
	}{
		{"nil", nil},
		{"missing project", &Version{Name: "1.0"}},
		{"missing name", &Version{ProjectID: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Add(context.Background(), tt.v)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := repo.ListByProject(context.Background(), ""); !errors.Is(err, ErrInvalid) {
		t.Errorf("list without project: err = %v, want ErrInvalid", err)
	}

	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
	if n := rec.Count(slog.LevelError); n != 0 {
		t.Errorf("logged %d errors, want 0", n)
	}
}

func TestConnectivityFailureLoggedOnce(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		call func(r *Repository) error
	}{
		{"add", func(r *Repository) error {
			_, err := r.Add(ctx, &Version{ProjectID: "p", Name: "1"})
			return err
		}},
		{"list", func(r *Repository) error {
			_, err := r.ListByProject(ctx, "p")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, rec := logging.NewRecorder()
			repo := NewRepository(&failingProvider{}, logger)

			err := tt.call(repo)
			if !db.IsStorageError(err) {
				t.Fatalf("err = %v, want StorageError", err)
			}
			errs := rec.Records(slog.LevelError)
			if len(errs) != 1 {
				t.Fatalf("logged %d errors, want 1", len(errs))
			}
			if v, ok := logging.Attr(errs[0], "project_id"); !ok || v.String() != "p" {
				t.Errorf("project_id = %v, want %q", v, "p")
			}
		})
	}
}

type failingProvider struct {
	calls int
}

func (p *failingProvider) Conn(context.Context) (*sql.Conn, error) {
	p.calls++
	return nil, errors.New("connection refused")
}

func (p *failingProvider) Rebind(query string) string { return query }

func testSetup(t *testing.T) (*Repository, *logging.Recorder) {
	t.Helper()
	d, err := db.OpenPath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	logger, rec := logging.NewRecorder()
	return NewRepository(d, logger), rec
}
