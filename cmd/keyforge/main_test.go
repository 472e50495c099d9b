package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/keyforge/backend/internal/build"
	"github.com/keyforge/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDescription = `{
  "keyboard_name": "macro3",
  "matrix_size": {"rows": 1, "cols": 3},
  "layouts": {
    "LAYOUT": {"layout": [
      {"matrix": [0, 0], "x": 0, "y": 0},
      {"matrix": [0, 1], "x": 1, "y": 0},
      {"matrix": [0, 2], "x": 2, "y": 0}
    ]}
  }
}`

const testLayout = `
name: Macro
keyboard: macro3
variant: LAYOUT
keymap: mine
layers:
  - name: Base
    keys:
      - {position: {row: 0, col: 0}, keycode: KC_A}
      - {position: {row: 0, col: 1}, keycode: KC_B}
      - {position: {row: 0, col: 2}, keycode: KC_C}
`

func TestLayoutFlagsLoad(t *testing.T) {
	dir := t.TempDir()
	desc := filepath.Join(dir, "info.json")
	layout := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(desc, []byte(testDescription), 0644))
	require.NoError(t, os.WriteFile(layout, []byte(testLayout), 0644))

	f := layoutFlags{description: desc, layout: layout}
	in, err := f.load()
	require.NoError(t, err)

	assert.Equal(t, "macro3", in.geometry.Keyboard)
	assert.Equal(t, 3, in.mapping.Len())
	cfg := config.DefaultConfig()
	assert.Equal(t, filepath.Join("keyboards", "macro3", "keymaps", "mine"), f.outputDir(cfg, in))

	f.out = "elsewhere"
	assert.Equal(t, "elsewhere", f.outputDir(cfg, in))

	f.variant = "LAYOUT_missing"
	_, err = f.load()
	assert.Error(t, err)
}

func TestFailureMessage(t *testing.T) {
	code := 2
	assert.EqualError(t, failure(build.Failed{Reason: "NON_ZERO_EXIT", ExitCode: &code}),
		"build failed (NON_ZERO_EXIT, exit code 2)")

	cause := errors.New("exec: \"qmk\": executable file not found in $PATH")
	err := failure(build.Failed{Reason: "SPAWN_FAILED", Err: cause})
	assert.ErrorIs(t, err, cause)

	assert.EqualError(t, failure(build.Failed{Reason: "GENERATION_FAILED"}), "build failed (GENERATION_FAILED)")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0f8fad5b", shortID("0f8fad5b-d9cb-469f-a165-70867728950e"))
	assert.Equal(t, "abc", shortID("abc"))
}
