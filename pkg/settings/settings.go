// Package settings provides build metadata, per-run options, and context
// helpers used by the jnav command and its packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "jnav"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Input describes where documents are read from.
type Input struct {
	// Path is the input file; "" or "-" reads standard input.
	Path string
}

// FromStdin reports whether the input is standard input.
func (i Input) FromStdin() bool { return i.Path == "" || i.Path == "-" }

// Run holds the options of a single execution.
type Run struct {
	MinLogLevel int8
	// LogFile receives the JSON log; "" discards log output.
	LogFile    string
	ConfigFile string
	Input      Input
	NoColor    bool
	NoHint     bool
}

// NewCliParams returns the defaults for a CLI run: info level logging to
// nowhere, reading standard input.
func NewCliParams() *Run {
	return &Run{MinLogLevel: 0}
}
