package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jnav/internal/config"
	"github.com/oakwood-commons/jnav/internal/filter"
	"github.com/oakwood-commons/jnav/internal/ui"
	"github.com/oakwood-commons/jnav/pkg/loader"
	"github.com/oakwood-commons/jnav/pkg/logger"
	"github.com/oakwood-commons/jnav/pkg/settings"
)

var (
	configFile   string
	configOutput string
	logFile      string
	debug        bool
	noColor      bool
	noHint       bool
	query        string
	engine       string
	inputFormat  string
	indent       int
	maxStreams   int
	suggestions  int
	expandDepth  int
	limitLength  int
	editMode     = newEditModeValue()
)

var (
	rootCtx = context.Background()
	logSink io.WriteCloser
	runUIFn = ui.Run
)

// stdinSrc is where documents are read from when no file is given.
var stdinSrc io.Reader = os.Stdin

// errNoInput is returned when jnav is started without a file on an
// interactive stdin.
var errNoInput = errors.New("no input: pass a file or pipe JSON on stdin")

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [file]",
	Short: "Explore JSON interactively with jq filters",
	Long: `jnav opens JSON (or YAML/TOML) documents in a terminal viewer and re-runs a
jq filter as you type. Results are shown as a collapsible tree.

Input is read from the file argument, or from stdin when the argument is
omitted or "-".`,
	Example: "\n  jnav data.json\n  curl -s https://api.github.com/repos/golang/go | jnav\n  jnav --engine cel --query '_.items' data.yaml\n",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// debug => zap.DebugLevel (-1), else zap.InfoLevel (0)
		var level int8
		if debug {
			level = -1
		}
		sink, err := logger.OpenSink(logFile)
		if err != nil {
			return err
		}
		logSink = sink
		var w io.Writer
		if sink != nil {
			w = sink
		}
		lgr := logger.Get(level, w)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

		run := settings.NewCliParams()
		run.MinLogLevel = level
		run.LogFile = logFile
		run.ConfigFile = configFile
		run.NoColor = noColor
		run.NoHint = noHint

		ctx := logger.WithLogger(context.Background(), lgr)
		rootCtx = settings.IntoContext(ctx, run)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logSink != nil {
			logger.Sync()
			_ = logSink.Close()
			logSink = nil
		}
	},
	RunE: runRoot,
}

func runRoot(cmd *cobra.Command, args []string) error {
	lgr := logger.FromContext(rootCtx)
	run, ok := settings.FromContext(rootCtx)
	if !ok {
		run = settings.NewCliParams()
	}
	if len(args) == 1 {
		run.Input.Path = args[0]
	}
	if run.Input.FromStdin() && stdinSrc == os.Stdin && !stdinIsPiped() {
		_ = cmd.Help()
		return errNoInput
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	keymaps, err := cfg.Keymaps()
	if err != nil {
		return err
	}
	for _, conflict := range keymaps.Conflicts() {
		lgr.Info("conflicting keybinding", "detail", conflict)
	}

	docs, skipped, err := loadInput(*lgr, run.Input, cfg.Input)
	if err != nil {
		return err
	}

	eval, functions, err := newEvaluator(cfg.Filter)
	if err != nil {
		return err
	}
	if c, ok := eval.(*filter.Cache); ok {
		defer c.Close()
	}

	width, height := detectTerminalSize()
	progOpts, cleanup := getProgramOptions()
	defer cleanup()

	q := query
	if !cmd.Flags().Changed("query") {
		q = defaultQuery(eval.Name())
	}

	lgr.V(1).Info("starting viewer", "documents", len(docs), "engine", eval.Name(), "width", width, "height", height)
	return runUIFn(ui.Options{
		Config:    cfg,
		Keymaps:   keymaps,
		Inputs:    docs,
		Evaluator: eval,
		Functions: functions,
		Query:     q,
		Skipped:   skipped,
		NoHint:    run.NoHint || !cfg.Hints.Enabled,
		NoColor:   run.NoColor || os.Getenv("NO_COLOR") != "",
		Logger:    *lgr,
		Width:     width,
		Height:    height,
	}, progOpts...)
}

// loadInput reads every document of the input. The errors of documents that
// had to be skipped are logged and returned for the viewer to report.
func loadInput(lgr logr.Logger, in settings.Input, ic config.InputConfig) ([]any, []error, error) {
	format, err := loader.ParseFormat(ic.Format)
	if err != nil {
		return nil, nil, err
	}
	name := in.Path
	if in.FromStdin() {
		name = "stdin"
	}
	res, err := loader.LoadFile(in.Path, stdinSrc, loader.Options{Format: format, MaxStreams: ic.MaxStreams})
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", name, err)
	}
	for _, skipped := range res.Skipped {
		lgr.Info("skipped malformed document", "input", name, "error", skipped.Error())
	}
	if res.Truncated {
		lgr.Info("stopped reading input", "input", name, "max_streams", ic.MaxStreams)
	}
	return res.Documents, res.Skipped, nil
}

// defaultQuery is the identity filter of the engine, used when --query is
// not given.
func defaultQuery(engine string) string {
	if engine == "cel" {
		return "_"
	}
	return "."
}

// newEvaluator builds the configured engine behind the result cache and
// returns the engine's function list for the help screen.
func newEvaluator(fc config.FilterConfig) (filter.Evaluator, []string, error) {
	base, err := filter.New(fc.Engine)
	if err != nil {
		return nil, nil, err
	}
	var functions []string
	if f, ok := base.(interface{ Functions() []string }); ok {
		functions = f.Functions()
	}
	cached, err := filter.NewCache(base, fc.CacheEntries)
	if err != nil {
		return nil, nil, err
	}
	return cached, functions, nil
}

func init() { //nolint:gochecknoinits
	flags := rootCmd.Flags()
	flags.StringVarP(&query, "query", "q", "", `initial filter (default "." for jq, "_" for cel)`)
	flags.Var(editMode, "edit-mode", "editor mode: insert|overwrite (default from config)")
	flags.IntVar(&indent, "indent", 0, "spaces per tree level (default from config)")
	flags.BoolVar(&noHint, "no-hint", false, "suppress hint messages")
	flags.IntVar(&maxStreams, "max-streams", 0, "stop reading after N documents (default from config; 0 = all)")
	flags.IntVar(&suggestions, "suggestions", 0, "number of suggestions shown at once (default from config)")
	flags.IntVar(&expandDepth, "expand-depth", 0, "expand containers up to this depth (default from config)")
	flags.IntVar(&limitLength, "limit-length", 0, "show at most N array elements (default from config)")
	flags.StringVar(&engine, "engine", "", "filter engine: jq|cel (default from config)")
	flags.StringVar(&inputFormat, "format", "", "input format: auto|json|yaml|toml (default from config)")
	flags.BoolVar(&noColor, "no-color", false, "disable color output")

	pflags := rootCmd.PersistentFlags()
	pflags.StringVar(&configFile, "config-file", "", "path to a YAML config file")
	pflags.StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	pflags.BoolVar(&debug, "debug", false, "log at debug level")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)

	configCmd.PersistentFlags().StringVarP(&configOutput, "output", "o", "yaml", "output format: yaml|json")
	configCmd.AddCommand(configDefaultCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
