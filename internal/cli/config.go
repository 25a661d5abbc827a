package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/issue-tracker/internal/config"
	"github.com/evcraddock/issue-tracker/internal/db"
	"github.com/evcraddock/issue-tracker/internal/logging"
)

// configSetters maps settable keys onto config fields. An empty value
// clears the key so the environment or defaults apply again.
var configSetters = map[string]func(cfg *config.Config, value string) error{
	"server.url": func(cfg *config.Config, v string) error {
		cfg.Server.URL = v
		return nil
	},
	"server.port": func(cfg *config.Config, v string) error {
		if v == "" {
			cfg.Server.Port = 0
			return nil
		}
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port: %s", v)
		}
		cfg.Server.Port = port
		return nil
	},
	"database.driver": func(cfg *config.Config, v string) error {
		switch v {
		case "", db.DriverSQLite3, db.DriverSQLite, db.DriverPostgres:
			cfg.Database.Driver = v
			return nil
		}
		return fmt.Errorf("unsupported database driver %q (want %s, %s or %s)",
			v, db.DriverSQLite3, db.DriverSQLite, db.DriverPostgres)
	},
	"database.dsn": func(cfg *config.Config, v string) error {
		cfg.Database.DSN = v
		return nil
	},
	"log.level": func(cfg *config.Config, v string) error {
		if _, err := logging.ParseLevel(v); err != nil {
			return err
		}
		cfg.Log.Level = strings.ToLower(v)
		return nil
	},
	"log.file": func(cfg *config.Config, v string) error {
		cfg.Log.File = v
		return nil
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change itrack settings",
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after the config file, .env, ITRACK_* variables and flags are applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value in the config file",
		Long:  "Set a value in the config file. Keys: " + strings.Join(configKeys(), ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], strings.TrimSpace(args[1])

			set, ok := configSetters[key]
			if !ok {
				return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(configKeys(), ", "))
			}

			// Only the file's own contents are rewritten, never env or defaults.
			cfg, err := config.ReadFile(flagConfig)
			if err != nil {
				return err
			}
			if err := set(&cfg, value); err != nil {
				return err
			}
			if err := config.Save(flagConfig, cfg); err != nil {
				return err
			}

			if value == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s.\n", key)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}
