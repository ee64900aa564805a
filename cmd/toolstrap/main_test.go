package main

import (
	"log/slog"
	"testing"
)

func TestDetermineLogLevel(t *testing.T) {
	origQuiet := quietFlag
	origVerbose := verboseFlag
	origDebug := debugFlag
	defer func() {
		quietFlag = origQuiet
		verboseFlag = origVerbose
		debugFlag = origDebug
	}()

	tests := []struct {
		name       string
		quietF     bool
		verboseF   bool
		debugF     bool
		envQuiet   string
		envVerbose string
		envDebug   string
		want       slog.Level
	}{
		{name: "default is WARN", want: slog.LevelWarn},
		{name: "debug flag", debugF: true, want: slog.LevelDebug},
		{name: "verbose flag", verboseF: true, want: slog.LevelInfo},
		{name: "quiet flag", quietF: true, want: slog.LevelError},
		{name: "debug wins over quiet", debugF: true, quietF: true, want: slog.LevelDebug},
		{name: "verbose wins over quiet", verboseF: true, quietF: true, want: slog.LevelInfo},
		{name: "debug env", envDebug: "1", want: slog.LevelDebug},
		{name: "verbose env", envVerbose: "true", want: slog.LevelInfo},
		{name: "quiet env", envQuiet: "yes", want: slog.LevelError},
		{name: "falsy env ignored", envDebug: "0", want: slog.LevelWarn},
		{name: "flag wins over env", quietF: true, envDebug: "1", want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quietFlag = tt.quietF
			verboseFlag = tt.verboseF
			debugFlag = tt.debugF
			t.Setenv("TOOLSTRAP_QUIET", tt.envQuiet)
			t.Setenv("TOOLSTRAP_VERBOSE", tt.envVerbose)
			t.Setenv("TOOLSTRAP_DEBUG", tt.envDebug)

			if got := determineLogLevel(); got != tt.want {
				t.Errorf("determineLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"go", "node", "python", "zsh", "docker", "postgres", "detect", "shellenv", "config", "doctor", "list", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}

	cmd, _, err := rootCmd.Find([]string{"postgresql"})
	if err != nil || cmd.Name() != "postgres" {
		t.Errorf("postgresql alias not registered")
	}
}

func TestToolForCommand(t *testing.T) {
	tests := map[string]string{
		"node":     "node",
		"postgres": "postgres",
		"detect":   "",
	}
	for name, want := range tests {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil {
			t.Fatalf("Find(%q): %v", name, err)
		}
		if got := toolForCommand(cmd); got != want {
			t.Errorf("toolForCommand(%q) = %q, want %q", name, got, want)
		}
	}
	if got := toolForCommand(nil); got != "" {
		t.Errorf("toolForCommand(nil) = %q", got)
	}
}
