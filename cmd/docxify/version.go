// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the docxify version and build details",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return writeVersion(os.Stdout, currentBuild(), asJSON)
	},
}

// buildInfo describes the running binary. Pandoc is reported by doctor,
// not here, so version works without it installed.
type buildInfo struct {
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
}

func currentBuild() buildInfo {
	b := buildInfo{
		Version:  version,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 12 {
				b.Revision = s.Value[:12]
			}
		}
	}
	return b
}

func writeVersion(w io.Writer, b buildInfo, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(b)
	}
	_, err := fmt.Fprintf(w, "docxify %s", b.Version)
	if err == nil && b.Revision != "" {
		_, err = fmt.Fprintf(w, " (%s)", b.Revision)
	}
	if err == nil {
		_, err = fmt.Fprintf(w, " %s %s\n", b.Go, b.Platform)
	}
	return err
}

func init() {
	versionCmd.Flags().Bool("json", false, "print build details as JSON")
	rootCmd.AddCommand(versionCmd)
}
