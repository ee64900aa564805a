package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/toolstrap/internal/install"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tools installed from release archives",
	Long: `List the Go, Node.js and Python installs recorded in
$TOOLSTRAP_HOME/state.json, one line per tool and prefix.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings("", "")
		if err != nil {
			return err
		}
		state, err := install.NewStateManager(s.HomeDir).Load()
		if err != nil {
			return err
		}
		writeList(os.Stdout, state.List())
		return nil
	},
}

func writeList(w io.Writer, records []install.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No tools installed.")
		return
	}
	fmt.Fprintf(w, "%-8s  %-12s  %-10s  %s\n", "TOOL", "VERSION", "VERIFIED", "LINK")
	for _, r := range records {
		v := r.Version
		if r.Build != "" {
			v += "+" + r.Build
		}
		verified := "yes"
		if !r.Verified {
			verified = "NO"
		}
		fmt.Fprintf(w, "%-8s  %-12s  %-10s  %s -> %s\n", r.Tool, v, verified, r.Link, r.InstallDir)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
