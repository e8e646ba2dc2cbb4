package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/jnav/internal/config"
	"github.com/oakwood-commons/jnav/internal/editor"
	"github.com/oakwood-commons/jnav/pkg/settings"
)

// editModeValue is a pflag.Value restricted to the editor modes.
type editModeValue struct {
	mode editor.Mode
}

func newEditModeValue() *editModeValue { return &editModeValue{mode: editor.ModeInsert} }

func (v *editModeValue) String() string { return v.mode.String() }

func (v *editModeValue) Set(s string) error {
	m, err := editor.ParseMode(s)
	if err != nil {
		return err
	}
	v.mode = m
	return nil
}

func (*editModeValue) Type() string { return "mode" }

var _ pflag.Value = (*editModeValue)(nil)

// loadConfig merges the defaults, the config file and the flags the user
// actually set, then validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := config.ResolvePath(configFile, settings.CliBinaryName)
	cfg, err := config.Load(path)
	if err != nil {
		if path != "" {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		return cfg, err
	}
	applyFlagOverrides(&cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config, fs *pflag.FlagSet) {
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("edit-mode") {
		cfg.Editor.Mode = editMode.String()
	}
	if changed("indent") {
		cfg.Viewer.Indent = indent
	}
	if changed("expand-depth") {
		cfg.Viewer.ExpandDepth = expandDepth
	}
	if changed("limit-length") {
		cfg.Viewer.LimitLength = limitLength
	}
	if changed("suggestions") {
		cfg.Completion.Suggestions = suggestions
	}
	if changed("max-streams") {
		cfg.Input.MaxStreams = maxStreams
	}
	if changed("format") {
		cfg.Input.Format = strings.ToLower(inputFormat)
	}
	if changed("engine") {
		cfg.Filter.Engine = strings.ToLower(engine)
	}
	if changed("no-hint") && noHint {
		cfg.Hints.Enabled = false
	}
}
