package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	fs.Bool("sync", false, "command flag")
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(parseFlags(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
db: from-file.db
server:
  addr: ":9000"
  user_id: alice
  cors_origins: ["http://localhost:5173"]
sync:
  interval: 10m
quiz:
  idle_ttl: 5m
sheet:
  content_col: C
`)
	t.Setenv("KNOLNOTES_SERVER__ADDR", ":9100")
	t.Setenv("KNOLNOTES_LOG__LEVEL", "debug")

	cfg, err := Load(parseFlags(t, "--config", path, "--db", "from-flag.db"))
	require.NoError(t, err)

	assert.Equal(t, "from-flag.db", cfg.DB, "flags beat the file")
	assert.Equal(t, ":9100", cfg.Server.Addr, "env beats the file")
	assert.Equal(t, "alice", cfg.Server.UserID, "unchanged flags keep file values")
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Quiz.IdleTTL)
	assert.Equal(t, "C", cfg.Sheet.ContentCol)
	assert.Equal(t, "B", cfg.Sheet.HiddenCol, "unset keys keep defaults")
}

func TestLoadInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(parseFlags(t, "--log-format", "xml"))
	assert.Error(t, err)

	path := writeConfig(t, "sheet:\n  start_row: 0\n")
	_, err = Load(parseFlags(t, "--config", path))
	assert.Error(t, err)

	_, err = Load(parseFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KNOLNOTES_SERVER__USER_ID=bob\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("KNOLNOTES_SERVER__USER_ID") })

	cfg, err := Load(parseFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Server.UserID)
}
