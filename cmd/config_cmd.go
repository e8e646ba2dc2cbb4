package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jnav/internal/config"
	"github.com/oakwood-commons/jnav/pkg/settings"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print jnav version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return nil
	},
}

// configCmd prints the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the merged configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := config.ResolvePath(configFile, settings.CliBinaryName)
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		return writeConfig(cmd, cfg)
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(config.DefaultConfigYAML())
		return err
	},
}

func writeConfig(cmd *cobra.Command, cfg config.Config) error {
	out := cmd.OutOrStdout()
	switch configOutput {
	case "", "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		return enc.Close()
	case "json":
		// Round-trip through YAML so durations and field names match the file.
		raw, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		var obj map[string]any
		if err := yaml.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
		data, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		return fmt.Errorf("invalid output for config: %s (use yaml|json)", configOutput)
	}
}

// cliVersionString builds the version line for `jnav version` and --version.
func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}
