// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-tracker/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the citation database as MCP tools over stdio",
	Long: `Serve runs an MCP server on stdio exposing the citation operations as
tools for research agents: add_citation, get_citation, validate_citations,
format_citation, list_citations, and export_citations. The job is
archived after every successful add so sessions compose.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	mgr, arc, err := openJob(cmd)
	if err != nil {
		return err
	}
	defer arc.Close()

	jobID, _ := cmd.Flags().GetString("job")
	fmt.Fprintf(os.Stderr, "serving citation tools for job %s\n", jobID)

	srv := mcp.NewServer(mgr, arc, version)
	return srv.Run(cmd.Context())
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
