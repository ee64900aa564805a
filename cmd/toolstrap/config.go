package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tsukumogami/toolstrap/internal/secrets"
	"github.com/tsukumogami/toolstrap/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage toolstrap configuration",
	Long: `Manage toolstrap configuration settings.

Configuration is stored in $TOOLSTRAP_HOME/config.toml (default
~/.toolstrap/config.toml). Command-line flags and environment variables
take precedence over the file.

Examples:
  toolstrap config get prefix
  toolstrap config set prefix /opt/tools
  toolstrap config set secrets.pg_password   (reads the value from stdin)
  toolstrap config list`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get the current value of a configuration setting. Secrets are shown
as "(set)" and never printed.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := userconfig.Load()
		if err != nil {
			return err
		}
		value, ok := cfg.Get(args[0])
		if !ok {
			printAvailableKeys(os.Stderr)
			return &usageError{err: fmt.Errorf("unknown config key: %s", args[0])}
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value. An empty value clears the key.

Secrets (keys starting with "secrets.") are read from stdin when no value
is given, so they stay out of shell history.`,
	Args: usageArgs(cobra.RangeArgs(1, 2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		name, isSecret := strings.CutPrefix(strings.ToLower(key), "secrets.")
		if isSecret && !isKnownSecret(name) {
			return &usageError{err: fmt.Errorf("unknown secret %q", name)}
		}

		var value string
		switch {
		case len(args) == 2:
			value = args[1]
		case isSecret:
			v, err := readSecretFromStdin(name)
			if err != nil {
				return err
			}
			value = v
		default:
			return &usageError{err: fmt.Errorf("missing value for %s", key)}
		}

		cfg, err := userconfig.Load()
		if err != nil {
			return err
		}
		if err := cfg.Set(key, value); err != nil {
			printAvailableKeys(os.Stderr)
			return &usageError{err: err}
		}
		if err := cfg.Save(); err != nil {
			return err
		}

		if isSecret {
			printInfof("%s saved\n", key)
		} else {
			printInfof("%s = %s\n", key, value)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration values",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := userconfig.Load()
		if err != nil {
			return err
		}
		for _, key := range userconfig.SortedKeys() {
			if strings.HasPrefix(key, "secrets.") {
				continue
			}
			value, _ := cfg.Get(key)
			fmt.Printf("%-14s %s\n", key, value)
		}
		for _, k := range secrets.KnownKeys() {
			state := "(not set)"
			if secrets.IsSet(k.Name) {
				state = "(set)"
			}
			fmt.Printf("%-14s %s\n", "secrets."+k.Name, state)
		}
		return nil
	},
}

func printAvailableKeys(w io.Writer) {
	keys := userconfig.AvailableKeys()
	fmt.Fprintf(w, "Available keys:\n")
	for _, k := range userconfig.SortedKeys() {
		fmt.Fprintf(w, "  %s - %s\n", k, keys[k])
	}
}

func isKnownSecret(name string) bool {
	for _, k := range secrets.KnownKeys() {
		if k.Name == name {
			return true
		}
	}
	return false
}

// stdinReader and stdinIsTerminal are replaced in tests.
var (
	stdinReader     io.Reader = os.Stdin
	stdinIsTerminal           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// readSecretFromStdin reads one line. On a terminal the input is not
// echoed.
func readSecretFromStdin(name string) (string, error) {
	if stdinIsTerminal() {
		fmt.Fprintf(os.Stderr, "Enter value for %s: ", name)
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return validateSecret(string(data))
	}

	line, err := bufio.NewReader(stdinReader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return validateSecret(strings.TrimRight(line, "\r\n"))
}

func validateSecret(v string) (string, error) {
	if strings.TrimSpace(v) == "" {
		return "", errors.New("empty secret value")
	}
	return v, nil
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
