// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcp exposes the citation manager as MCP (Model Context
// Protocol) tools so research agents can add, validate, and format
// citations. Tool responses are human-readable text blocks; the typed
// contract lives in the manager package.
package mcp

import (
	"context"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/citation-tracker/internal/archive"
	"github.com/pdiddy/citation-tracker/internal/citation"
	"github.com/pdiddy/citation-tracker/internal/manager"
)

// Server wraps a citation manager and exposes it as MCP tools.
type Server struct {
	server  *gomcp.Server
	mgr     *manager.Manager
	archive *archive.Store
}

// NewServer creates an MCP server around mgr. When an archive store is
// given, the job is snapshotted after every successful add.
func NewServer(mgr *manager.Manager, arc *archive.Store, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{mgr: mgr, archive: arc}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "citation-tracker", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type addCitationInput struct {
	DOI        string `json:"doi,omitempty" jsonschema:"DOI to add, e.g. 10.1038/s41586-023-06004-0 (validated against Crossref)"`
	PMID       string `json:"pmid,omitempty" jsonschema:"PubMed ID to add, e.g. 36854710 (validated against PubMed)"`
	URL        string `json:"url,omitempty" jsonschema:"URL to add as an unvalidated webpage citation"`
	CitationID string `json:"citation_id,omitempty" jsonschema:"custom citation id (auto-generated when omitted)"`
	AddedBy    string `json:"added_by,omitempty" jsonschema:"agent or user adding this citation"`
}

type getCitationInput struct {
	CitationID     string `json:"citation_id,omitempty" jsonschema:"citation id to retrieve"`
	CitationNumber int    `json:"citation_number,omitempty" jsonschema:"citation number to retrieve"`
}

type validateCitationsInput struct{}

type formatCitationInput struct {
	CitationIDs []string `json:"citation_ids,omitempty" jsonschema:"citation ids to format"`
	FormatType  string   `json:"format_type,omitempty" jsonschema:"intext or bibliography (default intext)"`
	PageNumber  string   `json:"page_number,omitempty" jsonschema:"page number for a quote (intext only)"`
}

type listCitationsInput struct{}

type exportCitationsInput struct {
	ExportFormat string `json:"export_format,omitempty" jsonschema:"bibtex or csl (default bibtex)"`
}

type textOutput struct {
	Text string `json:"text"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name: "add_citation",
		Description: "Add a citation from a DOI, PMID, or URL. DOIs and PMIDs are validated " +
			"against Crossref and PubMed and their metadata extracted automatically; duplicates " +
			"are detected and merged. Every citation gets a unique number [1], [2], etc.",
	}, s.handleAddCitation)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_citation",
		Description: "Retrieve a citation by id or number, with its formatted reference and validation status.",
	}, s.handleGetCitation)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "validate_citations",
		Description: "Validate all citations: validation rate, completeness, and duplicate scan with an issue list.",
	}, s.handleValidateCitations)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "format_citation",
		Description: "Format citations for in-text use, e.g. (Smith, 2023) [1], or as a numbered bibliography.",
	}, s.handleFormatCitation)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_citations",
		Description: "List all citations with validation status and quality metrics.",
	}, s.handleListCitations)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "export_citations",
		Description: "Export all citations as BibTeX or CSL-YAML.",
	}, s.handleExportCitations)
}

// --- Tool handlers ---

func (s *Server) handleAddCitation(ctx context.Context, _ *gomcp.CallToolRequest, input addCitationInput) (*gomcp.CallToolResult, textOutput, error) {
	var (
		c   *citation.Citation
		err error
	)
	switch {
	case input.DOI != "":
		c, err = s.mgr.AddFromDOI(ctx, input.DOI, input.CitationID, input.AddedBy)
	case input.PMID != "":
		c, err = s.mgr.AddFromPMID(ctx, input.PMID, input.CitationID, input.AddedBy)
	case input.URL != "":
		c, err = s.mgr.AddFromURL(input.URL, input.CitationID, input.AddedBy)
	default:
		return errorResult("provide doi, pmid, or url"), textOutput{}, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("citation validation failed: %s", err)), textOutput{}, nil
	}

	if s.archive != nil {
		if err := s.archive.SaveJob(ctx, s.mgr.Store); err != nil {
			return errorResult(fmt.Sprintf("archiving job: %s", err)), textOutput{}, nil
		}
	}

	validated := "no"
	if c.Validated {
		validated = "yes (" + c.ValidationMethod + ")"
	}
	text := fmt.Sprintf(`Citation added successfully.

- ID: %s
- Number: [%d]
- Validated: %s
- Completeness: %.0f%%

Formatted reference:
[%d] %s

Use in text as: %s`,
		c.ID, c.CitationNumber, validated, c.CompletenessScore()*100,
		c.CitationNumber, s.mgr.FormatBibliographyEntry(c.ID),
		s.mgr.FormatInText([]string{c.ID}, ""))

	return textResult(text)
}

func (s *Server) handleGetCitation(_ context.Context, _ *gomcp.CallToolRequest, input getCitationInput) (*gomcp.CallToolResult, textOutput, error) {
	var c *citation.Citation
	switch {
	case input.CitationID != "":
		c = s.mgr.Get(input.CitationID)
	case input.CitationNumber != 0:
		c = s.mgr.GetByNumber(input.CitationNumber)
	default:
		return errorResult("provide citation_id or citation_number"), textOutput{}, nil
	}
	if c == nil {
		return errorResult("citation not found"), textOutput{}, nil
	}

	text := fmt.Sprintf(`Citation [%d]: %s

%s

Validated: %t (%s)
Completeness: %.0f%%
DOI: %s
PMID: %s
URL: %s`,
		c.CitationNumber, c.ID,
		s.mgr.FormatBibliographyEntry(c.ID),
		c.Validated, orNA(c.ValidationMethod), c.CompletenessScore()*100,
		orNA(c.DOI), orNA(c.PMID), orNA(c.URL))

	return textResult(text)
}

func (s *Server) handleValidateCitations(_ context.Context, _ *gomcp.CallToolRequest, _ validateCitationsInput) (*gomcp.CallToolResult, textOutput, error) {
	report := s.mgr.ValidateAll()

	var b strings.Builder
	fmt.Fprintf(&b, "Citation validation report\n\n")
	fmt.Fprintf(&b, "- Total citations: %d\n", report.Total)
	fmt.Fprintf(&b, "- Validated: %d (%.1f%%)\n", report.Validated, report.ValidationRate*100)
	fmt.Fprintf(&b, "- Failed validation: %d\n", report.Failed)
	fmt.Fprintf(&b, "- Average completeness: %.1f%%\n", report.AverageCompleteness*100)
	fmt.Fprintf(&b, "- Duplicates found: %d\n", report.DuplicatesFound)

	if len(report.Issues) > 0 {
		fmt.Fprintf(&b, "\nIssues:\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", issue.CitationID, issue.Type, issue.Message)
		}
	} else {
		fmt.Fprintf(&b, "\nNo issues found.\n")
	}

	return textResult(b.String())
}

func (s *Server) handleFormatCitation(_ context.Context, _ *gomcp.CallToolRequest, input formatCitationInput) (*gomcp.CallToolResult, textOutput, error) {
	formatType := input.FormatType
	if formatType == "" {
		formatType = "intext"
	}

	switch formatType {
	case "intext":
		if len(input.CitationIDs) == 0 {
			return errorResult("citation_ids required for intext format"), textOutput{}, nil
		}
		return textResult(s.mgr.FormatInText(input.CitationIDs, input.PageNumber))
	case "bibliography":
		return textResult(s.mgr.FormatBibliography(input.CitationIDs))
	default:
		return errorResult(fmt.Sprintf("unknown format_type %q: use intext or bibliography", formatType)), textOutput{}, nil
	}
}

func (s *Server) handleListCitations(_ context.Context, _ *gomcp.CallToolRequest, _ listCitationsInput) (*gomcp.CallToolResult, textOutput, error) {
	citations := s.mgr.All()
	if len(citations) == 0 {
		return textResult("No citations in database yet.")
	}

	metrics := s.mgr.Metrics()

	var b strings.Builder
	fmt.Fprintf(&b, "Citation database summary\n\n")
	fmt.Fprintf(&b, "Total citations: %d\n", metrics.Total)
	fmt.Fprintf(&b, "Validated: %.1f%%\n", metrics.ValidationRate*100)
	fmt.Fprintf(&b, "With DOI: %d (%.1f%%)\n", metrics.WithDOI, metrics.WithDOIPct*100)
	fmt.Fprintf(&b, "With PMID: %d (%.1f%%)\n", metrics.WithPMID, metrics.WithPMIDPct*100)
	fmt.Fprintf(&b, "Average completeness: %.1f%%\n\nCitations:\n", metrics.AverageCompleteness*100)

	for _, c := range citations {
		author := c.FirstAuthorFamily()
		if author == "" {
			author = "Unknown"
		}
		year := "n.d."
		if y := c.Year(); y != 0 {
			year = fmt.Sprintf("%d", y)
		}
		title := c.Title
		if title == "" {
			title = "No title"
		} else if len(title) > 50 {
			title = title[:50] + "..."
		}
		status := "unvalidated"
		if c.Validated {
			status = "validated"
		}
		fmt.Fprintf(&b, "[%d] %s %s (%s): %s\n", c.CitationNumber, status, author, year, title)
	}

	return textResult(b.String())
}

func (s *Server) handleExportCitations(_ context.Context, _ *gomcp.CallToolRequest, input exportCitationsInput) (*gomcp.CallToolResult, textOutput, error) {
	format := input.ExportFormat
	if format == "" {
		format = "bibtex"
	}

	switch format {
	case "bibtex":
		return textResult(s.mgr.ExportBibTeX())
	case "csl":
		var b strings.Builder
		if err := s.mgr.ExportCSL(&b); err != nil {
			return errorResult(fmt.Sprintf("exporting CSL: %s", err)), textOutput{}, nil
		}
		return textResult(b.String())
	default:
		return errorResult(fmt.Sprintf("unknown export_format %q: use bibtex or csl", format)), textOutput{}, nil
	}
}

// --- Helpers ---

func textResult(text string) (*gomcp.CallToolResult, textOutput, error) {
	result := &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
	return result, textOutput{Text: text}, nil
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
