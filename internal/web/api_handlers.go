package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/issue-tracker/internal/comment"
	"github.com/evcraddock/issue-tracker/internal/version"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiStoreError maps repository errors onto status codes.
func apiStoreError(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, comment.ErrInvalid) || errors.Is(err, version.ErrInvalid) {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	apiError(w, fmt.Sprintf("%s: %v", action, err), http.StatusInternalServerError)
}

// pathID parses the {id} path value as a positive integer.
func pathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		apiError(w, "invalid "+what+" ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// apiListComments returns the comments on an issue.
func (s *Server) apiListComments(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issue")
	if !ok {
		return
	}

	comments, err := s.comments.ListByIssue(r.Context(), issueID)
	if err != nil {
		apiStoreError(w, "loading comments", err)
		return
	}
	apiJSON(w, comments, http.StatusOK)
}

// apiAddComment adds a comment to an issue.
func (s *Server) apiAddComment(w http.ResponseWriter, r *http.Request) {
	issueID, ok := pathID(w, r, "issue")
	if !ok {
		return
	}

	var req struct {
		Comment string `json:"comment"`
		Creator string `json:"creator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Comment) == "" {
		apiError(w, "comment is required", http.StatusBadRequest)
		return
	}

	c := &comment.Comment{
		Body:    strings.TrimSpace(req.Comment),
		Creator: strings.TrimSpace(req.Creator),
		IssueID: issueID,
	}
	if err := s.comments.Add(r.Context(), c); err != nil {
		apiStoreError(w, "adding comment", err)
		return
	}

	apiJSON(w, map[string]interface{}{"issue_id": issueID, "created": true}, http.StatusCreated)
}

// apiEditComment replaces a comment's body. Unknown IDs are a no-op, so the
// reply only echoes the ID.
func (s *Server) apiEditComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "comment")
	if !ok {
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Comment) == "" {
		apiError(w, "comment is required", http.StatusBadRequest)
		return
	}

	if err := s.comments.Edit(r.Context(), &comment.Comment{ID: id, Body: strings.TrimSpace(req.Comment)}); err != nil {
		apiStoreError(w, "editing comment", err)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id}, http.StatusOK)
}

// apiDeleteComment removes a comment. Unknown IDs succeed.
func (s *Server) apiDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "comment")
	if !ok {
		return
	}

	if err := s.comments.DeleteByID(r.Context(), id); err != nil {
		apiStoreError(w, "deleting comment", err)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// apiListVersions returns a project's versions.
func (s *Server) apiListVersions(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.PathValue("id"))

	versions, err := s.versions.ListByProject(r.Context(), projectID)
	if err != nil {
		apiStoreError(w, "loading versions", err)
		return
	}
	apiJSON(w, versions, http.StatusOK)
}

// apiAddVersion adds a version to a project.
func (s *Server) apiAddVersion(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.PathValue("id"))

	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	id, err := s.versions.Add(r.Context(), &version.Version{
		ID:        strings.TrimSpace(req.ID),
		ProjectID: projectID,
		Name:      strings.TrimSpace(req.Name),
	})
	if err != nil {
		apiStoreError(w, "adding version", err)
		return
	}

	apiJSON(w, map[string]string{"id": id}, http.StatusCreated)
}
