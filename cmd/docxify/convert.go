// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <files...>",
	Short: "Convert local files to .docx",
	Long: `Convert runs each file through the same pipeline as the web service and
writes <name>.docx into --out-dir. The input format comes from each file's
extension; .zip files must hold a LaTeX project with main.tex at the root.
Existing outputs are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out-dir")

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		result := a.service.ConvertPaths(cmd.Context(), args, outDir, os.Stdout)
		if result.HasFailures() {
			return fmt.Errorf("%d of %d file(s) failed", result.Failed, result.Total())
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().String("out-dir", ".", "directory for the .docx outputs")

	rootCmd.AddCommand(convertCmd)
}
