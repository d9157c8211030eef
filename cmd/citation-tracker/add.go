// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-tracker/internal/citation"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a citation by DOI, PMID, or URL",
	Long: `Add validates a DOI against Crossref or a PMID against PubMed, extracts
the metadata into a CSL-JSON record, checks it against the job's existing
citations for duplicates, and assigns it a citation number. URLs are added
as unvalidated webpage citations without a registry lookup.

A record that duplicates an existing citation is merged into it; the
existing citation number is kept.`,
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	doi, _ := cmd.Flags().GetString("doi")
	pmid, _ := cmd.Flags().GetString("pmid")
	rawURL, _ := cmd.Flags().GetString("url")
	citationID, _ := cmd.Flags().GetString("id")
	addedBy, _ := cmd.Flags().GetString("added-by")

	if doi == "" && pmid == "" && rawURL == "" {
		return fmt.Errorf("one of --doi, --pmid, or --url is required")
	}

	mgr, arc, err := openJob(cmd)
	if err != nil {
		return err
	}
	defer arc.Close()

	ctx := cmd.Context()
	var c *citation.Citation
	switch {
	case doi != "":
		c, err = mgr.AddFromDOI(ctx, doi, citationID, addedBy)
	case pmid != "":
		c, err = mgr.AddFromPMID(ctx, pmid, citationID, addedBy)
	default:
		c, err = mgr.AddFromURL(rawURL, citationID, addedBy)
	}
	if err != nil {
		return err
	}

	if err := arc.SaveJob(ctx, mgr.Store); err != nil {
		return fmt.Errorf("archiving job: %w", err)
	}

	status := "unvalidated"
	if c.Validated {
		status = "validated"
	}
	fmt.Fprintf(os.Stdout, "[%d] %s (%s)\n%s\n", c.CitationNumber, c.ID, status, mgr.FormatBibliographyEntry(c.ID))
	return nil
}

func init() {
	addCmd.Flags().String("doi", "", "DOI to validate and add (e.g. 10.1038/s41586-023-06004-0)")
	addCmd.Flags().String("pmid", "", "PubMed ID to validate and add")
	addCmd.Flags().String("url", "", "URL to add as an unvalidated webpage citation")
	addCmd.Flags().String("id", "", "custom citation id (auto-generated when omitted)")
	addCmd.Flags().String("added-by", "", "agent or user adding the citation")

	rootCmd.AddCommand(addCmd)
}
