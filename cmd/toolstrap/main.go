package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/toolstrap/internal/buildinfo"
	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool

	prefixFlag       string
	skipChecksumFlag bool
	forceGzFlag      bool
	skipShellRCFlag  bool
	skipDepsFlag     bool
)

var rootCmd = &cobra.Command{
	Use:   "toolstrap",
	Short: "Install developer toolchains and services on Linux",
	Long: `toolstrap installs Go, Node.js and Python from verified upstream
archives, and Zsh, Docker and PostgreSQL from the distribution's
package manager.

Archives are checked against the vendor's published SHA-256 manifest
before anything under the install prefix changes. Re-running an install
is safe: links are swapped in place and shell startup files are only
appended to when a line is missing.

Examples:
  toolstrap node
  toolstrap go 1.23.4
  toolstrap --prefix /opt/tools python
  toolstrap postgres 16`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Only print errors")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Print progress messages")
	pf.BoolVar(&debugFlag, "debug", false, "Print debug messages, including every command run")
	pf.StringVar(&prefixFlag, "prefix", "", "Installation prefix (default /usr/local)")
	pf.BoolVar(&skipChecksumFlag, "skip-checksum", false, "Continue without checksum verification when the manifest is unavailable")
	pf.BoolVar(&forceGzFlag, "force-gz", false, "Always download the .tar.gz archive")
	pf.BoolVar(&skipShellRCFlag, "skip-shell-rc", false, "Do not modify shell startup files")
	pf.BoolVar(&skipDepsFlag, "skip-deps", false, "Do not install optional distribution packages")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

// determineLogLevel picks the log level from flags, then environment.
// The most verbose setting wins.
func determineLogLevel() slog.Level {
	switch {
	case debugFlag:
		return slog.LevelDebug
	case verboseFlag:
		return slog.LevelInfo
	case quietFlag:
		return slog.LevelError
	}
	switch {
	case config.IsTruthy(os.Getenv(config.EnvDebug)):
		return slog.LevelDebug
	case config.IsTruthy(os.Getenv(config.EnvVerbose)):
		return slog.LevelInfo
	case config.IsTruthy(os.Getenv(config.EnvQuiet)):
		return slog.LevelError
	}
	return slog.LevelWarn
}

func initLogger() {
	level := determineLogLevel()
	h := log.NewTaggedHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	log.SetDefault(log.New(h))
	if level == slog.LevelError {
		quietFlag = true
	}
}

// usageError marks errors caused by invalid arguments or flags.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a positional-argument validator so its errors map to
// ExitUsage.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	interrupted := ctx.Err() != nil
	stop()
	if err == nil {
		return
	}

	if strings.HasPrefix(err.Error(), "unknown command") {
		err = &usageError{err: err}
	}
	code := exitCodeFor(err)
	if interrupted && errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "[ERROR] Interrupted")
		exitWithCode(ExitInterrupted)
	}
	printError(err, toolForCommand(cmd))
	if code == ExitUsage && cmd != nil {
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", cmd.CommandPath())
	}
	exitWithCode(code)
}
