package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/issue-tracker/internal/db"
)

// isolate points HOME and the working directory at fresh temp dirs and
// clears ITRACK_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, k := range []string{"ITRACK_DB_DRIVER", "ITRACK_DB_DSN", "ITRACK_LOG_LEVEL", "ITRACK_LOG_FILE", "ITRACK_DEV", "ITRACK_PORT", "ITRACK_SERVER_URL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return home
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, db.DriverSQLite3, cfg.Database.Driver)
	assert.Equal(t, filepath.Join(home, ".config", "itrack", "tracker.db"), cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Dev)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestSaveAndLoad(t *testing.T) {
	home := isolate(t)

	cfg := Config{
		Database: db.Config{Driver: db.DriverSQLite, DSN: "/var/lib/itrack/tracker.db"},
		Log:      LogConfig{Level: "debug", Dev: true, MaxSizeMB: 20, MaxBackups: 5},
		Server:   ServerConfig{Port: 9090, URL: "http://tracker.internal:8080"},
	}
	require.NoError(t, Save("", cfg))

	path := filepath.Join(home, ".config", "itrack", "config.yaml")
	info, err := os.Stat(path)
	require.NoError(t, err, "config file not found")
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestReadFileSkipsEnvAndDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	require.NoError(t, Save(path, Config{Log: LogConfig{Level: "warn"}}))
	t.Setenv("ITRACK_LOG_LEVEL", "debug")
	t.Setenv("ITRACK_PORT", "7001")

	cfg, err = ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Config{Log: LogConfig{Level: "warn"}}, cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [oops"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, Config{
		Database: db.Config{Driver: db.DriverSQLite3, DSN: "/from/file.db"},
		Server:   ServerConfig{Port: 7000},
	}))

	t.Setenv("ITRACK_DB_DRIVER", db.DriverPostgres)
	t.Setenv("ITRACK_DB_DSN", "postgres://tracker@localhost/tracker")
	t.Setenv("ITRACK_PORT", "7001")
	t.Setenv("ITRACK_DEV", "true")
	t.Setenv("ITRACK_LOG_FILE", "/tmp/itrack.log")
	t.Setenv("ITRACK_SERVER_URL", "http://tracker.internal:8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, db.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://tracker@localhost/tracker", cfg.Database.DSN)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.True(t, cfg.Log.Dev)
	assert.Equal(t, "/tmp/itrack.log", cfg.Log.File)
	assert.Equal(t, "http://tracker.internal:8080", cfg.Server.URL)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("ITRACK_LOG_LEVEL=warn\nITRACK_DB_DSN=/from/dotenv.db\n"), 0o600))
	t.Setenv("ITRACK_DB_DSN", "/from/env.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/from/env.db", cfg.Database.DSN)
}

func TestBadEnvValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ITRACK_PORT", "eighty"},
		{"ITRACK_DEV", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			assert.Error(t, err)
		})
	}
}
