package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noleftovers/nlv/internal/task"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Dedupe)
	assert.Equal(t, task.StyleDate, cfg.ProvenanceStyle)
	assert.Equal(t, "# No Leftovers", cfg.Header)
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().MasterPath, cfg.MasterPath)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".nlv.yaml")
	content := `master_path: notes/leftovers.md
provenance_style: wikilink
max_tasks: 5
dedupe: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes/leftovers.md", cfg.MasterPath)
	assert.Equal(t, task.StyleWikilink, cfg.ProvenanceStyle)
	assert.Equal(t, 5, cfg.MaxTasks)
	assert.False(t, cfg.Dedupe)
	// Untouched fields keep defaults.
	assert.Equal(t, Default().Model, cfg.Model)
}

func TestLoadFileInvalidStyle(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".nlv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provenance_style: fancy\n"), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NLV_API_KEY", "sk-test")
	t.Setenv("NLV_MODEL", "claude-test-model")
	t.Setenv("NLV_MAX_TASKS", "7")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "claude-test-model", cfg.Model)
	assert.Equal(t, 7, cfg.MaxTasks)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".nlv.yaml")
	cfg := Default()
	cfg.MasterPath = "vault/leftovers.md"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "vault/leftovers.md", loaded.MasterPath)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Model = "" }},
		{"empty master path", func(c *Config) { c.MasterPath = "" }},
		{"zero max tasks", func(c *Config) { c.MaxTasks = 0 }},
		{"bad style", func(c *Config) { c.ProvenanceStyle = "semantic" }},
		{"empty date format", func(c *Config) { c.DateFormat = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
