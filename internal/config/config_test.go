package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KEYFORGE_QMK_DIR", "KEYFORGE_OUTPUT_DIR", "KEYFORGE_DATA_DIR",
		"KEYFORGE_BUILD_COMMAND", "KEYFORGE_KILL_GRACE_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_CreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "keyforge.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be written")

	assert.Equal(t, filepath.Join(dir, "qmk_firmware"), cfg.GetOutputDir())
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dir, "data", "history.duckdb"), cfg.GetHistoryPath())
	assert.Equal(t, 90*24*time.Hour, cfg.GetRetention())

	bc := cfg.BuildConfig()
	assert.Equal(t, []string{"qmk", "compile", "-kb", "{keyboard}", "-km", "{keymap}"}, bc.Command)
	assert.Equal(t, filepath.Join(dir, "qmk_firmware"), bc.WorkDir)
	assert.Equal(t, bc.WorkDir, bc.ArtifactDir)
	assert.Equal(t, 5*time.Second, bc.KillGrace)

	// Generated sources land where the compile command looks for the keymap.
	keymapDir := filepath.Join(cfg.GetOutputDir(), cfg.KeymapDir("crkbd/rev1", "mine"))
	assert.Equal(t, filepath.Join(bc.WorkDir, "keyboards", "crkbd", "rev1", "keymaps", "mine"), keymapDir)

	// Reloading the written file gives the same settings.
	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfig_ParsesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "keyforge.yaml")
	content := `
toolchain:
  qmk_directory: /opt/qmk
  command: [make, "{keyboard}:{keymap}"]
  artifact_directory: build
  kill_grace_seconds: 2
storage:
  output_directory: /srv/out
history:
  enabled: false
  retention_days: 0
generation:
  deterministic: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/qmk", cfg.Toolchain.QMKDirectory)
	assert.Equal(t, "/srv/out", cfg.GetOutputDir())
	assert.Equal(t, filepath.Join("keyboards", "macro", "keymaps", "mine"), cfg.KeymapDir("macro", "mine"))
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir(), "unset keys keep defaults")
	assert.False(t, cfg.History.Enabled)
	assert.Zero(t, cfg.GetRetention())
	assert.True(t, cfg.Generation.Deterministic)

	bc := cfg.BuildConfig()
	assert.Equal(t, []string{"make", "{keyboard}:{keymap}"}, bc.Command)
	assert.Equal(t, filepath.Join(dir, "build"), bc.ArtifactDir)
	assert.Equal(t, 2*time.Second, bc.KillGrace)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keyforge.yaml")
		require.NoError(t, os.WriteFile(path, []byte("toolchain: [unclosed"), 0644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("empty command", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keyforge.yaml")
		require.NoError(t, os.WriteFile(path, []byte("toolchain:\n  command: []\n"), 0644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "command")
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("KEYFORGE_QMK_DIR", "/env/qmk")
	t.Setenv("KEYFORGE_OUTPUT_DIR", "out-from-env")
	t.Setenv("KEYFORGE_BUILD_COMMAND", "qmk compile -j 4 -kb {keyboard} -km {keymap}")
	t.Setenv("KEYFORGE_KILL_GRACE_SECONDS", "9")

	cfg, err := LoadConfig(filepath.Join(dir, "keyforge.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/env/qmk", cfg.Toolchain.QMKDirectory)
	assert.Equal(t, filepath.Join(dir, "out-from-env"), cfg.GetOutputDir())
	assert.Equal(t, []string{"qmk", "compile", "-j", "4", "-kb", "{keyboard}", "-km", "{keymap}"}, cfg.Toolchain.Command)
	assert.Equal(t, 9, cfg.Toolchain.KillGraceSeconds)
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("KEYFORGE_DATA_DIR")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KEYFORGE_DATA_DIR=/from/dotenv\n"), 0644))

	cfg, err := LoadConfig(filepath.Join(dir, "keyforge.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.GetDataDir())
}

func TestEnsureDirectories(t *testing.T) {
	t.Run("default leaves the QMK directory alone", func(t *testing.T) {
		root := t.TempDir()
		cfg := DefaultConfig()
		cfg.resolvePaths(root)

		require.NoError(t, cfg.EnsureDirectories())
		info, err := os.Stat(cfg.GetDataDir())
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		_, err = os.Stat(cfg.GetOutputDir())
		assert.True(t, os.IsNotExist(err), "QMK directory should not be created")
	})

	t.Run("explicit output directory is created", func(t *testing.T) {
		root := t.TempDir()
		cfg := DefaultConfig()
		cfg.Storage.OutputDirectory = "out"
		cfg.resolvePaths(root)

		require.NoError(t, cfg.EnsureDirectories())
		info, err := os.Stat(filepath.Join(root, "out"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestKeymapDir(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("keyboards", "crkbd", "rev1", "keymaps", "mine"), cfg.KeymapDir("crkbd/rev1", "mine"))

	cfg.Storage.KeymapPath = ""
	assert.Equal(t, "mine", cfg.KeymapDir("crkbd/rev1", "mine"))
}
