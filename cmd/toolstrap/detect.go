package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/profile"
	"github.com/tsukumogami/toolstrap/internal/recipe"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

var detectJSON bool

// detection is what the detect command reports.
type detection struct {
	Kernel         string            `json:"kernel"`
	Machine        string            `json:"machine"`
	Platform       string            `json:"platform"`
	Libc           string            `json:"libc"`
	Distro         string            `json:"distro,omitempty"`
	Family         string            `json:"family,omitempty"`
	PackageManager string            `json:"package_manager,omitempty"`
	ServiceManager string            `json:"service_manager,omitempty"`
	Artifacts      map[string]string `json:"artifacts"`
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the detected platform, distribution and artifact names",
	Long: `Show what toolstrap detects on this host: the platform tag, C library,
distribution family and its package and service managers, and the vendor
target name each archive-based tool would download.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := detect()
		if err != nil {
			return err
		}
		if detectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}
		writeDetection(os.Stdout, d)
		return nil
	},
}

func detect() (*detection, error) {
	kernel, machine, err := platform.Uname()
	if err != nil {
		return nil, err
	}
	tag, err := platform.Detect(kernel, machine)
	if err != nil {
		return nil, err
	}
	d := &detection{
		Kernel:    kernel,
		Machine:   machine,
		Platform:  string(tag),
		Libc:      platform.DetectLibc(),
		Artifacts: map[string]string{},
	}

	runner := sysexec.NewRunner(sysexec.WithLogger(log.Default()))
	if p, distro, err := profile.Detect(runner, log.Default()); err == nil {
		d.Distro = distro.Release.Name
		d.Family = distro.Family
		d.PackageManager = p.PackageManager()
		d.ServiceManager = p.ServiceManager()
	} else {
		log.Default().Warn("Distribution not recognised", "error", err)
	}

	for _, name := range recipe.Names() {
		r, _ := recipe.Get(name)
		if target, err := r.Target(tag, d.Libc); err == nil {
			d.Artifacts[name] = target
		} else {
			d.Artifacts[name] = "unsupported"
		}
	}
	return d, nil
}

func writeDetection(w io.Writer, d *detection) {
	fmt.Fprintf(w, "Kernel:           %s %s\n", d.Kernel, d.Machine)
	fmt.Fprintf(w, "Platform:         %s\n", d.Platform)
	fmt.Fprintf(w, "C library:        %s\n", d.Libc)
	if d.Family != "" {
		fmt.Fprintf(w, "Distribution:     %s (%s)\n", d.Distro, d.Family)
		fmt.Fprintf(w, "Package manager:  %s\n", d.PackageManager)
		fmt.Fprintf(w, "Service manager:  %s\n", d.ServiceManager)
	} else {
		fmt.Fprintf(w, "Distribution:     unsupported\n")
	}
	for _, name := range recipe.Names() {
		fmt.Fprintf(w, "%-18s%s\n", name+" target:", d.Artifacts[name])
	}
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(detectCmd)
}
