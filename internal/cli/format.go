package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/user"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/evcraddock/issue-tracker/internal/comment"
	"github.com/evcraddock/issue-tracker/internal/version"
)

var headerColor = color.New(color.FgCyan, color.Bold)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printCommentList prints comments in text format.
func printCommentList(w io.Writer, comments []*comment.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments.")
		return
	}

	for _, c := range comments {
		headerColor.Fprintf(w, "[%s] #%d (%s)", c.CreatedTime, c.ID, creatorLabel(c.Creator))
		if c.UpdatedTime != c.CreatedTime {
			fmt.Fprintf(w, " edited %s", c.UpdatedTime)
		}
		fmt.Fprintf(w, "\n  %s\n\n", c.Body)
	}
}

// printVersionTable prints versions as a formatted table.
func printVersionTable(out io.Writer, versions []*version.Version) error {
	if len(versions) == 0 {
		fmt.Fprintln(out, "No versions found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "NAME\tID"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "----\t--"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, v := range versions {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", truncate(v.Name, 40), v.ID); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d versions\n", len(versions))
	return nil
}

func creatorLabel(creator string) string {
	if creator == "" {
		return "anonymous"
	}
	return creator
}

// defaultCreator is the login name of the current user, if known.
func defaultCreator() string {
	if v := os.Getenv("ITRACK_CREATOR"); v != "" {
		return v
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
