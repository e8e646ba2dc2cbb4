package ui

import (
	tea "charm.land/bubbletea/v2"
)

// Run starts the program and blocks until the user quits. Width and height
// in opts seed the layout before the terminal reports its size. Extra
// ProgramOptions (e.g., custom IO) are passed to tea.NewProgram.
func Run(opts Options, progOpts ...tea.ProgramOption) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer m.Close()

	if opts.Width > 0 && opts.Height > 0 {
		progOpts = append(progOpts, tea.WithWindowSize(opts.Width, opts.Height))
	}
	_, err = tea.NewProgram(m, progOpts...).Run()
	return err
}
