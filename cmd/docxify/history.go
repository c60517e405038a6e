// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docxify/internal/journal"
	"github.com/pdiddy/docxify/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversions from the journal",
	Long: `History lists the most recent conversions recorded in the journal,
newest first, followed by totals. Only metadata is journaled: formats,
outcome, sizes and timings.`,
	RunE: runHistory,
}

// historyReport is the structure written for --output json and yaml.
type historyReport struct {
	Stats   journal.Stats   `json:"stats" yaml:"stats"`
	Entries []journal.Entry `json:"entries" yaml:"entries"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	output, _ := cmd.Flags().GetString("output")

	if cfg.Journal.Path == "" {
		return fmt.Errorf("journal disabled: set journal.path")
	}
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	stats, err := j.Stats(cmd.Context())
	if err != nil {
		return err
	}
	return writeHistory(os.Stdout, output, historyReport{Stats: stats, Entries: entries})
}

func writeHistory(w io.Writer, output string, r historyReport) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		writeHistoryTable(w, r)
		return nil
	default:
		return fmt.Errorf("unsupported output %q: use table, json or yaml", output)
	}
}

func writeHistoryTable(w io.Writer, r historyReport) {
	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return
	}

	fmt.Fprintf(w, "%-16s  %-6s  %-5s  %-10s  %-9s  %-19s  %8s  %9s\n",
		"When", "Source", "Ext", "Format", "Status", "Error", "Output", "Elapsed")
	fmt.Fprintln(w, strings.Repeat("-", 98))

	for _, e := range r.Entries {
		out := "-"
		if e.OutputBytes > 0 {
			out = humanize.Bytes(uint64(e.OutputBytes))
		}
		fmt.Fprintf(w, "%-16s  %-6s  %-5s  %-10s  %-9s  %-19s  %8s  %9s\n",
			humanize.Time(e.StartedAt), e.Source, e.InputExt, e.Format, e.Status,
			e.ErrorKind, out, e.Duration.Round(time.Millisecond))
	}

	s := r.Stats
	fmt.Fprintf(w, "\n%d conversions", s.Total)
	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		fmt.Fprintf(w, ", %d %s", s.ByStatus[types.ConversionStatus(st)], st)
	}
	fmt.Fprintf(w, "; avg %s, %s produced\n",
		s.AvgDuration.Round(time.Millisecond), humanize.Bytes(uint64(s.OutputBytes)))
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of entries to show")
	historyCmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")

	rootCmd.AddCommand(historyCmd)
}
