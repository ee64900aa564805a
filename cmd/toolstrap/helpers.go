package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/errmsg"
	"github.com/tsukumogami/toolstrap/internal/httputil"
	"github.com/tsukumogami/toolstrap/internal/recipe"
	"github.com/tsukumogami/toolstrap/internal/secrets"
	"github.com/tsukumogami/toolstrap/internal/sysinstall"
	"github.com/tsukumogami/toolstrap/internal/userconfig"
)

// downloadTimeout bounds a whole archive download. Metadata requests are
// bounded separately by the response header timeout.
const downloadTimeout = 30 * time.Minute

// printInfo prints an informational message unless quiet mode is enabled
func printInfo(a ...interface{}) {
	if !quietFlag {
		fmt.Println(a...)
	}
}

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// printError prints the tagged diagnostic line for err, with a suggestion
// when one is available.
func printError(err error, tool string) {
	fmt.Fprintln(os.Stderr, "[ERROR] "+errmsg.Format(err, &errmsg.ErrorContext{ToolName: tool}))
}

// loadSettings layers the global flags, environment and config file for
// tool. requested is the positional version argument, if any.
func loadSettings(tool, requested string) (config.Settings, error) {
	cfg, err := userconfig.Load()
	if err != nil {
		return config.Settings{}, err
	}
	flags := config.Flags{
		Version:      requested,
		Prefix:       prefixFlag,
		SkipChecksum: skipChecksumFlag,
		ForceGz:      forceGzFlag,
		SkipShellRC:  skipShellRCFlag,
		SkipDeps:     skipDepsFlag,
	}
	sec := config.Secrets{
		GitHubToken: secrets.Lookup("github_token"),
		PGPassword:  secrets.Lookup("pg_password"),
	}
	return config.Load(tool, flags, cfg.Defaults(), sec)
}

// newHTTPClient returns the hardened client used for metadata and archive
// downloads.
func newHTTPClient(s config.Settings) *http.Client {
	return httputil.NewSecureClient(httputil.ClientOptions{
		Timeout:               downloadTimeout,
		ResponseHeaderTimeout: s.APITimeout,
	})
}

// toolForCommand returns the tool a command installs, or "".
func toolForCommand(cmd *cobra.Command) string {
	if cmd == nil {
		return ""
	}
	name := cmd.Name()
	if r, ok := recipe.Get(name); ok {
		return r.Name
	}
	for _, n := range sysinstall.Names() {
		if n == name {
			return n
		}
	}
	return ""
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
