// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manager orchestrates validators, duplicate detection, and the
// citation store for one research job, and renders citations into their
// textual output formats.
package manager

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/citation-tracker/internal/citation"
	"github.com/pdiddy/citation-tracker/internal/dedupe"
	"github.com/pdiddy/citation-tracker/internal/validate"
	"github.com/pdiddy/citation-tracker/pkg/types"
)

// Manager is the single mutator of its store. One instance is scoped to
// one research job.
type Manager struct {
	Store *citation.Store

	doi      *validate.DOIValidator
	pmid     *validate.PMIDValidator
	detector *dedupe.Detector
	log      io.Writer
}

// New creates a manager for the given job. Progress and warnings are
// written to w.
func New(jobID, style string, client *http.Client, cfg types.TrackerConfig, w io.Writer) *Manager {
	if w == nil {
		w = io.Discard
	}
	return &Manager{
		Store:    citation.NewStore(jobID, style),
		doi:      validate.NewDOIValidator(client, cfg.Validator),
		pmid:     validate.NewPMIDValidator(client, cfg.Validator),
		detector: dedupe.NewDetector(cfg.Detector),
		log:      w,
	}
}

// AddFromDOI validates a DOI against Crossref and adds the resulting
// citation to the store. A record that duplicates an existing one is
// merged into the first match, which is returned instead; the new record
// is never separately stored.
func (m *Manager) AddFromDOI(ctx context.Context, doi, citationID, addedBy string) (*citation.Citation, error) {
	c, err := m.doi.CitationFromDOI(ctx, doi, citationID, m.log)
	if err != nil {
		return nil, fmt.Errorf("adding DOI %s: %w", doi, err)
	}
	if c == nil {
		return nil, fmt.Errorf("invalid or not found DOI: %s", doi)
	}

	c.AddedBy = addedBy
	c.AddedAt = time.Now().UTC()

	if dups := m.detector.FindDuplicates(c, m.Store.All(), m.log); len(dups) > 0 {
		fmt.Fprintf(m.log, "merging duplicate %s into %s\n", c.ID, dups[0].ID)
		return dedupe.Merge(dups[0], c), nil
	}

	added := m.Store.Add(c)
	fmt.Fprintf(m.log, "added citation %s [%d]\n", added.ID, added.CitationNumber)
	return added, nil
}

// AddFromPMID validates a PMID against PubMed and adds the resulting
// citation to the store, with the same duplicate handling as AddFromDOI.
func (m *Manager) AddFromPMID(ctx context.Context, pmid, citationID, addedBy string) (*citation.Citation, error) {
	c, err := m.pmid.CitationFromPMID(ctx, pmid, citationID, m.log)
	if err != nil {
		return nil, fmt.Errorf("adding PMID %s: %w", pmid, err)
	}
	if c == nil {
		return nil, fmt.Errorf("invalid or not found PMID: %s", pmid)
	}

	c.AddedBy = addedBy
	c.AddedAt = time.Now().UTC()

	if dups := m.detector.FindDuplicates(c, m.Store.All(), m.log); len(dups) > 0 {
		fmt.Fprintf(m.log, "merging duplicate %s into %s\n", c.ID, dups[0].ID)
		return dedupe.Merge(dups[0], c), nil
	}

	added := m.Store.Add(c)
	fmt.Fprintf(m.log, "added citation %s [%d]\n", added.ID, added.CitationNumber)
	return added, nil
}

// AddFromURL adds a minimal unvalidated webpage citation. No registry is
// consulted. A duplicate returns the existing record unchanged; unlike the
// DOI/PMID paths the new data is not merged in.
func (m *Manager) AddFromURL(rawURL, citationID, addedBy string) (*citation.Citation, error) {
	if citationID == "" {
		citationID = urlCitationID(rawURL)
	}

	c := &citation.Citation{
		ID:               citationID,
		Type:             "webpage",
		URL:              rawURL,
		AddedBy:          addedBy,
		AddedAt:          time.Now().UTC(),
		Validated:        false,
		ValidationMethod: "URL",
	}

	if dups := m.detector.FindDuplicates(c, m.Store.All(), m.log); len(dups) > 0 {
		fmt.Fprintf(m.log, "duplicate URL citation, returning %s\n", dups[0].ID)
		return dups[0], nil
	}

	added := m.Store.Add(c)
	fmt.Fprintf(m.log, "added citation %s [%d]\n", added.ID, added.CitationNumber)
	return added, nil
}

// urlCitationID derives an id from the URL's domain: "web_" plus the host
// with dots replaced by underscores.
func urlCitationID(rawURL string) string {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	if host == "" {
		host = rawURL
	}
	return "web_" + strings.ReplaceAll(host, ".", "_")
}

// Get returns the citation with the given id, or nil.
func (m *Manager) Get(id string) *citation.Citation {
	return m.Store.ByID(id)
}

// GetByNumber returns the citation with the given number, or nil.
func (m *Manager) GetByNumber(n int) *citation.Citation {
	return m.Store.ByNumber(n)
}

// All returns all citations in insertion order.
func (m *Manager) All() []*citation.Citation {
	return m.Store.All()
}

// ClearCaches drops both validators' cached results.
func (m *Manager) ClearCaches() {
	m.doi.ClearCache()
	m.pmid.ClearCache()
}

// Issue describes one problem found by ValidateAll.
type Issue struct {
	CitationID string `json:"citation_id" yaml:"citation_id"`
	Type       string `json:"type" yaml:"type"`
	Message    string `json:"message" yaml:"message"`
}

// Report summarizes a full-store validation pass.
type Report struct {
	Total               int     `json:"total_citations" yaml:"total_citations"`
	Validated           int     `json:"validated" yaml:"validated"`
	Failed              int     `json:"failed" yaml:"failed"`
	ValidationRate      float64 `json:"validation_rate" yaml:"validation_rate"`
	AverageCompleteness float64 `json:"average_completeness" yaml:"average_completeness"`
	DuplicatesFound     int     `json:"duplicates_found" yaml:"duplicates_found"`
	Issues              []Issue `json:"issues" yaml:"issues"`
}

// ValidateAll reviews the whole store: validation counts, average
// completeness, and an all-pairs duplicate scan. The scan compares each
// record against the records after it, so it runs on demand rather than
// on every add.
func (m *Manager) ValidateAll() Report {
	citations := m.Store.All()

	report := Report{Total: len(citations)}
	for _, c := range citations {
		if c.Validated {
			report.Validated++
		}
	}
	report.Failed = report.Total - report.Validated
	if report.Total > 0 {
		report.ValidationRate = float64(report.Validated) / float64(report.Total)
	}
	report.AverageCompleteness = m.Store.AverageCompleteness()

	for _, c := range citations {
		if !c.Validated {
			report.Issues = append(report.Issues, Issue{
				CitationID: c.ID,
				Type:       "not_validated",
				Message:    fmt.Sprintf("citation %s not validated", c.ID),
			})
		}
	}

	for i, c := range citations {
		dups := m.detector.FindDuplicates(c, citations[i+1:], io.Discard)
		if len(dups) == 0 {
			continue
		}
		report.DuplicatesFound++
		ids := make([]string, len(dups))
		for j, d := range dups {
			ids[j] = d.ID
		}
		report.Issues = append(report.Issues, Issue{
			CitationID: c.ID,
			Type:       "duplicate",
			Message:    fmt.Sprintf("possible duplicates: %s", strings.Join(ids, ", ")),
		})
	}

	return report
}

// QualityMetrics summarizes identifier coverage and validation across the
// store.
type QualityMetrics struct {
	Total               int     `json:"total_citations" yaml:"total_citations"`
	ValidationRate      float64 `json:"validation_rate" yaml:"validation_rate"`
	AverageCompleteness float64 `json:"average_completeness" yaml:"average_completeness"`
	WithDOI             int     `json:"citations_with_doi" yaml:"citations_with_doi"`
	WithDOIPct          float64 `json:"citations_with_doi_pct" yaml:"citations_with_doi_pct"`
	WithPMID            int     `json:"citations_with_pmid" yaml:"citations_with_pmid"`
	WithPMIDPct         float64 `json:"citations_with_pmid_pct" yaml:"citations_with_pmid_pct"`
}

// Metrics computes quality metrics for the store. An empty store yields
// an all-zero structure.
func (m *Manager) Metrics() QualityMetrics {
	citations := m.Store.All()
	metrics := QualityMetrics{Total: len(citations)}
	if len(citations) == 0 {
		return metrics
	}

	validated := 0
	for _, c := range citations {
		if c.Validated {
			validated++
		}
		if c.DOI != "" {
			metrics.WithDOI++
		}
		if c.PMID != "" {
			metrics.WithPMID++
		}
	}

	n := float64(len(citations))
	metrics.ValidationRate = float64(validated) / n
	metrics.AverageCompleteness = m.Store.AverageCompleteness()
	metrics.WithDOIPct = float64(metrics.WithDOI) / n
	metrics.WithPMIDPct = float64(metrics.WithPMID) / n
	return metrics
}
