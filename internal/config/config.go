// Package config persists the per-user annotation settings: the legacy
// line-oriented settings file plus an optional YAML file of catalog
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
)

// Config holds the persisted annotation settings.
type Config struct {
	LogoPath    string  `yaml:"logo_path"`
	Alpha       float64 `yaml:"overlay_alpha"`
	OverlayType string  `yaml:"overlay_type"` // "circles" or "boxes"

	// Catalogs is the saved catalog selection as a comma list of codes.
	// Empty means the per-catalog defaults apply.
	Catalogs string `yaml:"catalogs"`
}

// Default returns the settings used before anything is saved.
func Default() *Config {
	return &Config{
		LogoPath:    "",
		Alpha:       0.6,
		OverlayType: "circles",
		Catalogs:    "",
	}
}

// Load reads the settings file. Loading is forgiving: a missing file, short
// file or unparseable line falls back to the default for that field, so an
// old or damaged settings file never blocks a run.
func Load(filename string) *Config {
	c := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		return c
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) > 0 {
		c.LogoPath = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64); err == nil && v >= 0 && v <= 1 {
			c.Alpha = v
		}
	}
	if len(lines) > 2 {
		t := strings.TrimSpace(lines[2])
		if t == "circles" || t == "boxes" {
			c.OverlayType = t
		}
	}
	if len(lines) > 3 {
		c.Catalogs = strings.TrimSpace(lines[3])
	}
	return c
}

// Save writes the settings file, creating its directory when needed. The
// format is one value per line, matching what Load reads.
func (c *Config) Save(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	body := fmt.Sprintf("%s\n%.2f\n%s\n%s\n", c.LogoPath, c.Alpha, c.OverlayType, c.Catalogs)
	if err := os.WriteFile(filename, []byte(body), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("overlay_alpha must be in (0, 1], got %v", c.Alpha)
	}
	if c.OverlayType != "circles" && c.OverlayType != "boxes" {
		return fmt.Errorf("overlay_type must be \"circles\" or \"boxes\", got %q", c.OverlayType)
	}
	if c.LogoPath != "" {
		if info, err := os.Stat(c.LogoPath); err != nil || info.IsDir() {
			return fmt.Errorf("logo_path does not point to a file: %s", c.LogoPath)
		}
	}
	return nil
}

// SelectedCodes parses the saved catalog selection. nil means "use the
// per-catalog defaults".
func (c *Config) SelectedCodes() map[string]bool {
	s := strings.TrimSpace(c.Catalogs)
	if s == "" {
		return nil
	}
	enabled := make(map[string]bool)
	for _, code := range strings.Split(s, ",") {
		if code = strings.TrimSpace(code); code != "" {
			enabled[code] = true
		}
	}
	return enabled
}

// AsYAML renders the settings for debug logging.
func (c *Config) AsYAML() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %+v", *c)
	}
	return string(data)
}

// catalogOverride is one entry of the overrides YAML file.
type catalogOverride struct {
	Code     string `yaml:"code"`
	Color    string `yaml:"color"`
	Selected *bool  `yaml:"selected"`
}

// ApplyOverrides loads the catalog overrides file and applies it to the
// registry. A missing file is not an error; a malformed one is.
func ApplyOverrides(filename string, reg *catalog.Registry) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read overrides: %w", err)
	}
	var overrides []catalogOverride
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse overrides %s: %w", filename, err)
	}
	for _, o := range overrides {
		reg.Override(o.Code, o.Color, o.Selected)
	}
	return nil
}

// SettingsPath returns the settings file path inside a config directory.
func SettingsPath(configDir string) string {
	return filepath.Join(configDir, "settings.conf")
}

// OverridesPath returns the catalog overrides path inside a config
// directory.
func OverridesPath(configDir string) string {
	return filepath.Join(configDir, "catalogs.yaml")
}
