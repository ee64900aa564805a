package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/recipe"
)

var shellenvCmd = &cobra.Command{
	Use:   "shellenv [tool]",
	Short: "Print the shell lines toolstrap adds to startup files",
	Long: `Print the lines an install appends to shell startup files, without
writing anything. Without a tool, print the PATH line for the shared
<prefix>/bin directory.

Usage in shell profile:
  eval "$(toolstrap shellenv node)"

Usage for one-off sessions:
  eval "$(toolstrap --prefix /opt/tools shellenv go)"`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := firstArg(args)
		s, err := loadSettings(name, "")
		if err != nil {
			return err
		}
		return writeShellenv(os.Stdout, s, name)
	},
}

func writeShellenv(w io.Writer, s config.Settings, name string) error {
	if name == "" {
		fmt.Fprintf(w, "export PATH=\"%s:$PATH\"\n", s.BinDir())
		return nil
	}
	r, ok := recipe.Get(name)
	if !ok {
		return &usageError{err: fmt.Errorf("unknown tool %q: must be one of %v", name, recipe.Names())}
	}
	for _, line := range r.ShellLines(s.Prefix) {
		fmt.Fprintln(w, line)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(shellenvCmd)
}
