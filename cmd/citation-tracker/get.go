// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-tracker/internal/citation"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Retrieve a citation by id or number",
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	number, _ := cmd.Flags().GetInt("number")
	if id == "" && number == 0 {
		return fmt.Errorf("provide --id or --number")
	}

	mgr, arc, err := openJob(cmd)
	if err != nil {
		return err
	}
	defer arc.Close()

	var c *citation.Citation
	if id != "" {
		c = mgr.Get(id)
	} else {
		c = mgr.GetByNumber(number)
	}
	if c == nil {
		return fmt.Errorf("citation not found")
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	status := "unvalidated"
	if c.Validated {
		status = fmt.Sprintf("validated (%s)", c.ValidationMethod)
	}
	fmt.Fprintf(os.Stdout, "[%d] %s\n%s\nStatus: %s\nCompleteness: %.0f%%\n",
		c.CitationNumber, c.ID, mgr.FormatBibliographyEntry(c.ID), status, c.CompletenessScore()*100)
	return nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all citations in the job with quality metrics",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	mgr, arc, err := openJob(cmd)
	if err != nil {
		return err
	}
	defer arc.Close()

	citations := mgr.All()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(citations)
	}

	if len(citations) == 0 {
		fmt.Println("No citations in database yet.")
		return nil
	}

	for _, c := range citations {
		status := " "
		if c.Validated {
			status = "v"
		}
		title := c.Title
		if title == "" {
			title = "(no title)"
		}
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "[%3d] %s %-24s %s\n", c.CitationNumber, status, c.ID, title)
	}

	metrics := mgr.Metrics()
	fmt.Fprintf(os.Stdout, "\n%d citations, %.0f%% validated, %.0f%% average completeness\n",
		metrics.Total, metrics.ValidationRate*100, metrics.AverageCompleteness*100)
	return nil
}

func init() {
	getCmd.Flags().String("id", "", "citation id to retrieve")
	getCmd.Flags().Int("number", 0, "citation number to retrieve")
	getCmd.Flags().Bool("json", false, "output the CSL-JSON record")

	listCmd.Flags().Bool("json", false, "output all records as JSON")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
}
