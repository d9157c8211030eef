// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the citation database as BibTeX or CSL-YAML",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	mgr, arc, err := openJob(cmd)
	if err != nil {
		return err
	}
	defer arc.Close()

	format, _ := cmd.Flags().GetString("format")
	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "bibtex", "":
		fmt.Fprintln(out, mgr.ExportBibTeX())
	case "csl":
		if err := mgr.ExportCSL(out); err != nil {
			return fmt.Errorf("exporting CSL: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q: use bibtex or csl", format)
	}
	return nil
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List archived citation jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, arc, err := openJob(cmd)
		if err != nil {
			return err
		}
		defer arc.Close()

		jobs, err := arc.ListJobs(cmd.Context())
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No archived jobs.")
			return nil
		}
		for _, j := range jobs {
			fmt.Fprintf(os.Stdout, "%-24s %-8s %4d citations  updated %s\n", j.JobID, j.Style, j.Citations, j.UpdatedAt)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "bibtex", "export format: bibtex or csl")
	exportCmd.Flags().String("output", "", "write to a file instead of stdout")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(jobsCmd)
}
