// Package shellrc appends exact lines to shell startup files.
//
// A line is appended only when no existing line in the file is
// byte-identical to it. Existing content is never edited or removed, so
// runs for different tools commute and repeated runs are no-ops.
package shellrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/install"
	"github.com/tsukumogami/toolstrap/internal/log"
)

// Owner is the account that should own rc files created on its behalf.
type Owner struct {
	UID int
	GID int
}

// Result reports what Ensure did to one file.
type Result struct {
	Path    string
	Added   []string
	Created bool
}

// Mutator ensures lines are present in files.
type Mutator struct {
	FS     install.FS
	Logger log.Logger

	// Owner, when set, receives ownership of files the mutator creates
	// with DirectFS. Used when running as root on behalf of a sudo user.
	Owner *Owner

	// InsertBefore, when set, places missing lines ahead of the first
	// existing line it matches instead of at the end. Files read top to
	// bottom with first-match semantics need this.
	InsertBefore func(line string) bool
}

// Ensure appends each line of lines missing from path, in order, with a
// single write. Duplicates within lines are appended once.
func (m *Mutator) Ensure(ctx context.Context, path string, lines []string) (Result, error) {
	logger := log.OrDefault(m.Logger)
	res := Result{Path: path}
	for _, l := range lines {
		if strings.ContainsAny(l, "\r\n") {
			return res, fmt.Errorf("rc line must be a single line: %q", l)
		}
	}

	data, err := m.FS.ReadFile(ctx, path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		res.Created = true
		data = nil
	case err != nil:
		return res, fmt.Errorf("failed to read %s: %w", path, err)
	}

	present := make(map[string]bool)
	for _, l := range strings.Split(string(data), "\n") {
		present[l] = true
	}

	var buf bytes.Buffer
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	for _, l := range lines {
		if l == "" || present[l] {
			continue
		}
		present[l] = true
		buf.WriteString(l)
		buf.WriteByte('\n')
		res.Added = append(res.Added, l)
	}
	if len(res.Added) == 0 {
		logger.Debug("Shell file already up to date", "file", path)
		return Result{Path: path}, nil
	}

	if err := m.write(ctx, path, data, buf.Bytes(), res.Added); err != nil {
		return res, fmt.Errorf("failed to update %s: %w", path, err)
	}
	if res.Created && m.Owner != nil && !m.FS.Escalated() {
		if err := os.Chown(path, m.Owner.UID, m.Owner.GID); err != nil {
			logger.Warn("Could not hand created file to its owner", "file", path, "error", err)
		}
	}
	logger.Info("Updated shell file", "file", path, "lines", len(res.Added))
	return res, nil
}

// write appends added to path, or splices it in before the first line
// matching InsertBefore when there is one.
func (m *Mutator) write(ctx context.Context, path string, data, appended []byte, added []string) error {
	if m.InsertBefore == nil || len(data) == 0 {
		return m.FS.AppendFile(ctx, path, appended)
	}
	lines := strings.SplitAfter(string(data), "\n")
	for i, l := range lines {
		if !m.InsertBefore(strings.TrimRight(l, "\r\n")) {
			continue
		}
		var out strings.Builder
		for _, prev := range lines[:i] {
			out.WriteString(prev)
		}
		for _, a := range added {
			out.WriteString(a + "\n")
		}
		for _, rest := range lines[i:] {
			out.WriteString(rest)
		}
		return m.FS.WriteFile(ctx, path, []byte(out.String()))
	}
	return m.FS.AppendFile(ctx, path, appended)
}

// EnsureAll runs Ensure for every path and stops at the first error.
func (m *Mutator) EnsureAll(ctx context.Context, paths, lines []string) ([]Result, error) {
	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		res, err := m.Ensure(ctx, p, lines)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Candidates returns the startup files to update for shell (a path or a
// name such as "/bin/zsh") in home. The interactive file is always
// included; login files are included only when they already exist.
func Candidates(shell, home string, exists func(string) bool) []string {
	if exists == nil {
		exists = fileExists
	}
	in := func(name string) string { return filepath.Join(home, name) }

	switch filepath.Base(shell) {
	case "zsh":
		files := []string{in(".zshrc")}
		if exists(in(".zprofile")) {
			files = append(files, in(".zprofile"))
		}
		return files
	case "bash":
		files := []string{in(".bashrc")}
		switch {
		case exists(in(".bash_profile")):
			files = append(files, in(".bash_profile"))
		case exists(in(".profile")):
			files = append(files, in(".profile"))
		}
		return files
	}
	return []string{in(".profile")}
}

// Target is the user whose shell files are updated.
type Target struct {
	// Name is the login name.
	Name  string
	Home  string
	Shell string
	Owner *Owner
}

// DetectTarget returns the invoking user. When running as root through
// sudo, the sudo user's home and shell are used instead of root's.
func DetectTarget() (Target, error) {
	if name := os.Getenv("SUDO_USER"); name != "" && name != "root" && os.Geteuid() == 0 {
		u, err := user.Lookup(name)
		if err == nil {
			uid, _ := strconv.Atoi(u.Uid)
			gid, _ := strconv.Atoi(u.Gid)
			return Target{Name: name, Home: u.HomeDir, Shell: loginShell(name), Owner: &Owner{UID: uid, GID: gid}}, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Target{}, fmt.Errorf("failed to find home directory: %w", err)
	}
	return Target{Name: os.Getenv("USER"), Home: home, Shell: os.Getenv("SHELL")}, nil
}

// loginShell reads the shell field of name's passwd entry.
func loginShell(name string) string {
	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return ""
	}
	return passwdShell(data, name)
}

func passwdShell(passwd []byte, name string) string {
	for _, line := range strings.Split(string(passwd), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) == 7 && fields[0] == name {
			return fields[6]
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
