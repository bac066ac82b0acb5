package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags. A "dev" build installed with
// go install reports its module version instead.
var Version = "dev"

// versionInfo describes the running binary.
type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func currentVersion() versionInfo {
	v := Version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return versionInfo{
		Version:   v,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gitconverge version",
	Long: `Print the gitconverge version.

Text output is the bare version so scripts can compare it; --output json
also reports the Go toolchain and platform the binary was built for.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := currentVersion()
		return writeOutput(cmd, info, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, info.Version)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
