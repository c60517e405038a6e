// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that pandoc can be run",
	Long: `Doctor resolves the configured converter (a local pandoc binary, or a
pandoc image under docker or podman) and reports its version. It exits
non-zero when conversions would fail with a setup error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := newConverter(cmd.Context(), cfg.Converter, logger)
		if err != nil {
			return err
		}
		v, err := conv.Check(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", conv.Name(), err)
		}
		fmt.Printf("ok: %s (%s)\n", conv.Name(), v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
