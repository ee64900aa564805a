package sysinstall

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	stepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// WriteSummary prints the final summary block for r.
func WriteSummary(w io.Writer, r *Report) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Display + " installed"))
	b.WriteString("\n")
	if len(r.Packages) > 0 {
		fmt.Fprintf(&b, "  %s%s\n", stepStyle.Render("packages    "), strings.Join(r.Packages, ", "))
	}
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "  %s %s\n", stepStyle.Render("-"), s)
	}
	for _, s := range r.Warnings {
		fmt.Fprintf(&b, "  %s\n", warnStyle.Render("! "+s))
	}
	fmt.Fprint(w, b.String())
}
