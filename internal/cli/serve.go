package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/issue-tracker/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Long:  "Start an HTTP server exposing comments and versions as a JSON API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: config or 8080)")

	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if s.db == nil {
		return fmt.Errorf("serve needs a local database; unset --server and ITRACK_SERVER_URL")
	}
	if port == 0 {
		port = s.cfg.Server.Port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(s.comments, s.versions, s.log)
	return srv.ListenAndServe(ctx, port)
}
