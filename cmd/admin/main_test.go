package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, initialPassword string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
log:
  level: error
db:
  driver: sqlite
  dsn: `+filepath.Join(dir, "test.db")+`
session:
  secret: cli-secret
admin:
  username: root
  initialPassword: "`+initialPassword+`"
sitemap:
  path: `+filepath.Join(dir, "sitemap.xml")+`
`), 0o600))
	return cfgPath
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "root-pw")

	var out bytes.Buffer
	require.NoError(t, run([]string{"admin", "-c", cfgPath, "create-user", "-u", "carol", "-p", "pw", "-r", "blogger"}, &out))
	assert.Contains(t, out.String(), "created carol (blogger)")

	out.Reset()
	require.NoError(t, run([]string{"admin", "-c", cfgPath, "list-users"}, &out))
	assert.Contains(t, out.String(), "root")
	assert.Contains(t, out.String(), "carol")

	out.Reset()
	require.NoError(t, run([]string{"admin", "-c", cfgPath, "reset-password", "-u", "carol", "-p", "new"}, &out))
	assert.Contains(t, out.String(), "password reset for carol")

	assert.Error(t, run([]string{"admin", "-c", cfgPath, "reset-password", "-u", "ghost", "-p", "x"}, &out))

	out.Reset()
	require.NoError(t, run([]string{"admin", "-c", cfgPath, "purge-sessions"}, &out))
	assert.Contains(t, out.String(), "purged 0 expired sessions")

	out.Reset()
	require.NoError(t, run([]string{"admin", "-c", cfgPath, "sitemap"}, &out))
	assert.FileExists(t, filepath.Join(dir, "sitemap.xml"))
}

func TestRun_WithoutInitialPasswordRequiresAdminFirst(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADMIN_PASSWORD", "")
	cfgPath := writeConfig(t, dir, "")

	var out bytes.Buffer
	err := run([]string{"admin", "-c", cfgPath, "create-user", "-u", "carol", "-p", "pw", "-r", "blogger"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD")
	assert.Error(t, run([]string{"admin", "-c", cfgPath, "list-users"}, &out), "no admin yet")

	require.NoError(t, run([]string{"admin", "-c", cfgPath, "create-user", "-u", "boss", "-p", "pw", "-r", "admin"}, &out))
	assert.Contains(t, out.String(), "created boss (admin)")

	out.Reset()
	require.NoError(t, run([]string{"admin", "-c", cfgPath, "create-user", "-u", "carol", "-p", "pw"}, &out))
	assert.Contains(t, out.String(), "created carol (blogger)")

	out.Reset()
	require.NoError(t, run([]string{"admin", "-c", cfgPath, "list-users"}, &out))
	assert.Contains(t, out.String(), "boss")
	assert.Contains(t, out.String(), "admin")
	assert.Contains(t, out.String(), "carol")
}
