// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the job's citation database",
	Long: `Validate reviews every citation in the job: validation rate, average
completeness, and an all-pairs duplicate scan. Issues are listed per
citation. Exits non-zero when unvalidated citations remain.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	mgr, arc, err := openJob(cmd)
	if err != nil {
		return err
	}
	defer arc.Close()

	report := mgr.ValidateAll()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(os.Stdout, "Total citations: %d\n", report.Total)
		fmt.Fprintf(os.Stdout, "Validated: %d (%.1f%%)\n", report.Validated, report.ValidationRate*100)
		fmt.Fprintf(os.Stdout, "Average completeness: %.1f%%\n", report.AverageCompleteness*100)
		fmt.Fprintf(os.Stdout, "Duplicates found: %d\n", report.DuplicatesFound)
		for _, issue := range report.Issues {
			fmt.Fprintf(os.Stdout, "  [%s] %s: %s\n", issue.CitationID, issue.Type, issue.Message)
		}
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d citation(s) not validated", report.Failed)
	}
	return nil
}

func init() {
	validateCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(validateCmd)
}
