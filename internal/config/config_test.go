package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nope.conf"))
	assert.Equal(t, Default(), c)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.conf")
	c := &Config{
		LogoPath:    "",
		Alpha:       0.45,
		OverlayType: "boxes",
		Catalogs:    "M,NGC,LEDA",
	}
	require.NoError(t, c.Save(path))

	got := Load(path)
	assert.Equal(t, c, got)
}

func TestLoadForgivingOnDamage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.conf")

	// short file: only a logo line
	require.NoError(t, os.WriteFile(path, []byte("/tmp/logo.png\n"), 0o644))
	c := Load(path)
	assert.Equal(t, "/tmp/logo.png", c.LogoPath)
	assert.InDelta(t, 0.6, c.Alpha, 1e-9)
	assert.Equal(t, "circles", c.OverlayType)

	// bad alpha and bad overlay type keep their defaults
	require.NoError(t, os.WriteFile(path, []byte("\nnot-a-number\ntriangles\nM\n"), 0o644))
	c = Load(path)
	assert.InDelta(t, 0.6, c.Alpha, 1e-9)
	assert.Equal(t, "circles", c.OverlayType)
	assert.Equal(t, "M", c.Catalogs)

	// a saved fully transparent alpha is kept, not reverted
	require.NoError(t, os.WriteFile(path, []byte("\n0.00\ncircles\n\n"), 0o644))
	c = Load(path)
	assert.InDelta(t, 0.0, c.Alpha, 1e-9)

	// out-of-range values still fall back
	require.NoError(t, os.WriteFile(path, []byte("\n1.50\ncircles\n\n"), 0o644))
	c = Load(path)
	assert.InDelta(t, 0.6, c.Alpha, 1e-9)
}

func TestValidate(t *testing.T) {
	c := Default()
	assert.NoError(t, c.Validate())

	c.Alpha = 1.5
	assert.Error(t, c.Validate())
	c.Alpha = 0.6

	c.OverlayType = "triangles"
	assert.Error(t, c.Validate())
	c.OverlayType = "boxes"

	c.LogoPath = filepath.Join(t.TempDir(), "missing.png")
	assert.Error(t, c.Validate())
}

func TestSelectedCodes(t *testing.T) {
	c := Default()
	assert.Nil(t, c.SelectedCodes())

	c.Catalogs = " M , LEDA ,,NGC"
	assert.Equal(t, map[string]bool{"M": true, "LEDA": true, "NGC": true}, c.SelectedCodes())
}

func TestApplyOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogs.yaml")

	// missing file is fine
	reg := catalog.DefaultRegistry()
	require.NoError(t, ApplyOverrides(path, reg))

	body := "- code: NGC\n  color: \"#123456\"\n  selected: false\n- code: NoSuch\n  color: \"#ffffff\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, ApplyOverrides(path, reg))

	def, ok := reg.Lookup("NGC")
	require.True(t, ok)
	assert.Equal(t, "#123456", def.Color)
	assert.False(t, def.SelectedByDefault)

	// malformed YAML is an error
	require.NoError(t, os.WriteFile(path, []byte(":\n -"), 0o644))
	assert.Error(t, ApplyOverrides(path, reg))
}

func TestAsYAML(t *testing.T) {
	out := Default().AsYAML()
	assert.Contains(t, out, "overlay_alpha")
	assert.Contains(t, out, "overlay_type: circles")
}
