package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o600))
	t.Setenv("CHANSYNC_CONFIG_PATH", dir)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHANSYNC_CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.RemotePageSize)
	assert.Equal(t, "default", cfg.Source("remote_page_size"))
	assert.True(t, cfg.AdminRoleSet().Contains("editingteacher"))
	assert.True(t, cfg.MemberRoleSet().Contains("student"))
	assert.False(t, cfg.IsDeferredSource("enrol_cohort"))
}

func TestLoadFromFile(t *testing.T) {
	writeConfigFile(t, `
remote_base_url: https://chat.example.edu/api
remote_team_slug: campus
admin_roles:
  - teacher
member_roles:
  - student
  - guest
deferred_sources:
  - enrol_cohort
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.edu/api", cfg.RemoteBaseURL)
	assert.Equal(t, "file", cfg.Source("remote_base_url"))
	assert.True(t, cfg.AdminRoleSet().Contains("teacher"))
	assert.False(t, cfg.AdminRoleSet().Contains("editingteacher"))
	assert.True(t, cfg.MemberRoleSet().Contains("guest"))
	assert.True(t, cfg.IsDeferredSource("enrol_cohort"))
	assert.False(t, cfg.IsDeferredSource("enrol_manual"))
}

func TestEnvOverridesFile(t *testing.T) {
	writeConfigFile(t, "remote_team_slug: campus\n")
	t.Setenv("CHANSYNC_REMOTE_TEAM_SLUG", "other-campus")
	t.Setenv("CHANSYNC_ADMIN_ROLES", "manager, coursecreator")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "other-campus", cfg.RemoteTeamSlug)
	assert.Equal(t, "environment", cfg.Source("remote_team_slug"))
	assert.True(t, cfg.AdminRoleSet().Contains("manager"))
	assert.True(t, cfg.AdminRoleSet().Contains("coursecreator"))
}

func TestValidate(t *testing.T) {
	cfg := newDefault()
	cfg.finalize()
	assert.NoError(t, cfg.Validate())

	cfg.RemotePageSize = 0
	assert.Error(t, cfg.Validate())
}

func TestRoleSet(t *testing.T) {
	set := ParseRoleSet("teacher, manager,,student ")
	assert.True(t, set.Contains("teacher"))
	assert.True(t, set.Contains("student"))
	assert.False(t, set.Contains(""))
	assert.True(t, set.ContainsAny([]string{"nobody", "manager"}))
	assert.False(t, set.ContainsAny([]string{"nobody"}))
	assert.Len(t, set.List(), 3)
}

func TestReloadUpdatesBoundLookups(t *testing.T) {
	t.Setenv("CHANSYNC_CONFIG_PATH", t.TempDir())

	cfg := Get()
	require.NoError(t, Reload())

	// Lookups captured before a reload must observe values loaded after it.
	isDeferred := cfg.IsDeferredSource
	adminRoles := cfg.AdminRoleSet
	require.False(t, isDeferred("enrol_cohort"))

	t.Setenv("CHANSYNC_DEFERRED_SOURCES", "enrol_cohort")
	t.Setenv("CHANSYNC_ADMIN_ROLES", "coursecreator")
	require.NoError(t, Reload())

	assert.True(t, isDeferred("enrol_cohort"))
	assert.True(t, adminRoles().Contains("coursecreator"))
	assert.False(t, adminRoles().Contains("editingteacher"))
	assert.Same(t, cfg, Get())
}

func TestAttributesRedactsSecrets(t *testing.T) {
	t.Setenv("CHANSYNC_CONFIG_PATH", t.TempDir())
	t.Setenv("CHANSYNC_REMOTE_API_SECRET", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)

	for _, attr := range cfg.Attributes() {
		if attr.Name == "remote_api_secret" {
			assert.Equal(t, "(redacted)", attr.Value)
		}
	}
}
