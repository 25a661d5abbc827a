// Package version provides the project version model and data access.
package version

// Version is a release line of a project that issues can be filed against.
type Version struct {
	ID        string `json:"id" validate:"omitempty,max=64"`
	ProjectID string `json:"project_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
}
