// Package config holds the tunable settings of a session. The embedded
// default_config.yaml is the single source of defaults; a user file is
// decoded on top of it so that only the keys it mentions change.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jnav/internal/editor"
	"github.com/oakwood-commons/jnav/internal/keymap"
	"github.com/oakwood-commons/jnav/pkg/loader"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// DefaultConfigYAML returns a copy of the embedded default config.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type AppConfig struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	RepositoryURL string `yaml:"repository_url"`
}

type EditorConfig struct {
	Mode       string `yaml:"mode"`
	WordBreaks string `yaml:"word_breaks"`
	Prompt     string `yaml:"prompt"`
}

type ViewerConfig struct {
	ExpandDepth int `yaml:"expand_depth"`
	LimitLength int `yaml:"limit_length"`
	Indent      int `yaml:"indent"`
}

type CompletionConfig struct {
	Suggestions           int `yaml:"suggestions"`
	SearchResultChunkSize int `yaml:"search_result_chunk_size"`
	SearchLoadChunkSize   int `yaml:"search_load_chunk_size"`
}

type ReactivityConfig struct {
	QueryDebounce   Duration `yaml:"query_debounce"`
	ResizeDebounce  Duration `yaml:"resize_debounce"`
	SpinnerInterval Duration `yaml:"spinner_interval"`
}

type InputConfig struct {
	Format     string `yaml:"format"`
	MaxStreams int    `yaml:"max_streams"`
}

type FilterConfig struct {
	Engine       string `yaml:"engine"`
	CacheEntries int64  `yaml:"cache_entries"`
}

type HintsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full configuration file.
type Config struct {
	App        AppConfig           `yaml:"app"`
	Editor     EditorConfig        `yaml:"editor"`
	Viewer     ViewerConfig        `yaml:"viewer"`
	Completion CompletionConfig    `yaml:"completion"`
	Reactivity ReactivityConfig    `yaml:"reactivity"`
	Input      InputConfig         `yaml:"input"`
	Filter     FilterConfig        `yaml:"filter"`
	Hints      HintsConfig         `yaml:"hints"`
	Keybinds   map[string][]string `yaml:"keybinds"`
}

// Default decodes the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if len(embeddedDefaultConfig) == 0 {
		return cfg, errors.New("embedded default config is empty")
	}
	if err := yaml.Unmarshal(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults overlaid with the file at path. An empty path
// loads only the defaults.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ResolvePath picks the config file to read: the explicit path if given,
// else $XDG_CONFIG_HOME/jnav/config.yaml, else ~/.config/jnav/config.yaml.
// Implicit locations that do not exist resolve to "".
func ResolvePath(explicit, appName string) string {
	if explicit != "" {
		return explicit
	}
	var candidate string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, appName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", appName, "config.yaml")
	}
	if candidate == "" {
		return ""
	}
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if _, err := editor.ParseMode(c.Editor.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Viewer.LimitLength < 0 {
		errs = append(errs, fmt.Errorf("viewer.limit_length must be >= 0, got %d", c.Viewer.LimitLength))
	}
	if c.Viewer.Indent < 0 {
		errs = append(errs, fmt.Errorf("viewer.indent must be >= 0, got %d", c.Viewer.Indent))
	}
	if c.Completion.Suggestions < 1 {
		errs = append(errs, fmt.Errorf("completion.suggestions must be >= 1, got %d", c.Completion.Suggestions))
	}
	if c.Completion.SearchResultChunkSize < 1 || c.Completion.SearchLoadChunkSize < 1 {
		errs = append(errs, errors.New("completion chunk sizes must be >= 1"))
	}
	for name, d := range map[string]Duration{
		"query_debounce":   c.Reactivity.QueryDebounce,
		"resize_debounce":  c.Reactivity.ResizeDebounce,
		"spinner_interval": c.Reactivity.SpinnerInterval,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("reactivity.%s must not be negative", name))
		}
	}
	if c.Reactivity.SpinnerInterval == 0 {
		errs = append(errs, errors.New("reactivity.spinner_interval must be > 0"))
	}
	if _, err := loader.ParseFormat(c.Input.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Input.MaxStreams < 0 {
		errs = append(errs, fmt.Errorf("input.max_streams must be >= 0, got %d", c.Input.MaxStreams))
	}
	switch strings.ToLower(c.Filter.Engine) {
	case "", "jq", "cel":
	default:
		errs = append(errs, fmt.Errorf("filter.engine must be jq or cel, got %q", c.Filter.Engine))
	}
	if _, err := c.Keymaps(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// EditMode returns the parsed editor mode.
func (c Config) EditMode() editor.Mode {
	m, _ := editor.ParseMode(c.Editor.Mode)
	return m
}

// WordBreaks returns the configured break characters.
func (c Config) WordBreaks() []rune { return []rune(c.Editor.WordBreaks) }

// Keymaps merges the keybinds section over the built-in bindings.
func (c Config) Keymaps() (keymap.Set, error) {
	return keymap.Merge(keymap.Defaults(), c.Keybinds)
}
