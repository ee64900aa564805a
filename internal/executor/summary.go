package executor

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tsukumogami/toolstrap/internal/progress"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(12)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// WriteSummary prints the final summary block for a run.
func WriteSummary(w io.Writer, r *Report) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s installed", r.Recipe.DisplayName, r.Version.String())))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("version", fmt.Sprintf("%s (%s)", r.Version.String(), r.Version.Source))
	row("archive", fmt.Sprintf("%s, %s", r.Artifact.Filename, progress.FormatBytes(r.Bytes)))
	switch {
	case r.Verified && r.Signed:
		row("sha256", r.SHA256+" (verified, signed manifest)")
	case r.Verified:
		row("sha256", r.SHA256+" (verified)")
	default:
		row("sha256", warnStyle.Render(r.SHA256+" (NOT verified)"))
	}
	row("installed", r.Install.InstallDir)
	row("link", r.Install.Link+" -> "+r.Install.InstallDir)
	if len(r.Install.Linked) > 0 {
		row("binaries", strings.Join(r.Install.Linked, ", "))
	}
	if r.Install.MovedAside != "" {
		row("moved", warnStyle.Render(r.Install.MovedAside))
	}
	for _, sh := range r.Shell {
		if len(sh.Added) > 0 {
			row("shell", fmt.Sprintf("%s (+%d lines)", sh.Path, len(sh.Added)))
		} else {
			row("shell", sh.Path+" (unchanged)")
		}
	}
	if len(r.Shell) > 0 {
		b.WriteString("\n  Open a new shell or source your startup file to update PATH.\n")
	}
	fmt.Fprint(w, b.String())
}
