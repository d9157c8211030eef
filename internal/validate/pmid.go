// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/citation-tracker/internal/citation"
	"github.com/pdiddy/citation-tracker/internal/httputil"
	"github.com/pdiddy/citation-tracker/pkg/types"
)

// pubmedFetchBase is the PubMed E-utilities efetch endpoint. Declared as
// a var so tests can substitute an httptest server.
var pubmedFetchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

// NormalizePMID strips an optional "PMID:" prefix and validates that the
// remainder is purely numeric. Returns "" when malformed.
func NormalizePMID(pmid string) string {
	pmid = strings.TrimSpace(pmid)
	if len(pmid) >= 5 && strings.EqualFold(pmid[:5], "PMID:") {
		pmid = strings.TrimSpace(pmid[5:])
	}
	if pmid == "" {
		return ""
	}
	for _, r := range pmid {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return pmid
}

// PMIDValidator validates PubMed IDs via the E-utilities API and extracts
// metadata from the article XML.
type PMIDValidator struct {
	Client *http.Client
	// APIKey raises the NCBI rate limit when set.
	APIKey string

	baseURL   string
	userAgent string
	cache     *resultCache
}

// NewPMIDValidator builds a validator from config, applying defaults.
func NewPMIDValidator(client *http.Client, cfg types.ValidatorConfig) *PMIDValidator {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "citation-tracker/0.1"
	}
	baseURL := cfg.PubMedFetchBase
	if baseURL == "" {
		baseURL = pubmedFetchBase
	}
	return &PMIDValidator{
		Client:    client,
		APIKey:    cfg.PubMedAPIKey,
		baseURL:   baseURL,
		userAgent: userAgent,
		cache:     newResultCache(cfg.CacheTTL, cfg.CacheSize),
	}
}

// Validate checks a PMID against PubMed and returns whether it resolves,
// plus the extracted metadata. Failure semantics match the DOI validator:
// malformed or unknown PMIDs are value signals, registry trouble is an
// error and is never cached.
func (v *PMIDValidator) Validate(ctx context.Context, pmid string, w io.Writer) (bool, *citation.Citation, error) {
	normalized := NormalizePMID(pmid)
	if normalized == "" {
		fmt.Fprintf(w, "warning: invalid PMID format: %q\n", pmid)
		return false, nil, nil
	}

	cacheKey := "pmid:" + normalized
	if entry, ok := v.cache.get(cacheKey); ok {
		return entry.valid, cloneCitation(entry.metadata), nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {normalized},
		"retmode": {"xml"},
		"rettype": {"abstract"},
	}
	if v.APIKey != "" {
		params.Set("api_key", v.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return false, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := httputil.DoWithRetry(ctx, v.Client, req, 0)
	if err != nil {
		return false, nil, fmt.Errorf("PubMed request for %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil, fmt.Errorf("PubMed returned HTTP %d for %s", resp.StatusCode, normalized)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return false, nil, fmt.Errorf("parsing PubMed XML for %s: %w", normalized, err)
	}

	// An empty article set means the PMID does not exist; PubMed answers
	// 200 either way.
	if len(set.Articles) == 0 {
		v.cache.put(cacheKey, false, nil)
		fmt.Fprintf(w, "warning: PMID not found: %s\n", normalized)
		return false, nil, nil
	}

	meta := extractPubMed(set.Articles[0], normalized)
	v.cache.put(cacheKey, true, meta)
	return true, cloneCitation(meta), nil
}

// CitationFromPMID validates a PMID and builds a citation record from the
// registry metadata. Returns (nil, nil) when the PMID is invalid or not
// found. When citationID is empty an id is derived from the first author
// and year, falling back to "pmid<number>".
func (v *PMIDValidator) CitationFromPMID(ctx context.Context, pmid, citationID string, w io.Writer) (*citation.Citation, error) {
	valid, meta, err := v.Validate(ctx, pmid, w)
	if err != nil {
		return nil, err
	}
	if !valid || meta == nil {
		return nil, nil
	}

	if citationID == "" {
		citationID = autoID(meta, "pmid"+NormalizePMID(pmid))
	}

	meta.ID = citationID
	meta.Validated = true
	meta.ValidationMethod = "PMID"
	return meta, nil
}

// ClearCache drops all cached validation results.
func (v *PMIDValidator) ClearCache() {
	v.cache.clear()
}

// extractPubMed maps a PubmedArticle onto a citation record. PubMed
// indexes journal literature, so the type is always article-journal.
func extractPubMed(article pubmedArticle, pmid string) *citation.Citation {
	c := &citation.Citation{
		PMID: pmid,
		Type: "article-journal",
		URL:  "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
	}

	info := article.MedlineCitation.Article
	c.Title = strings.TrimSpace(info.Title)
	c.Abstract = strings.TrimSpace(info.Abstract)
	c.ContainerTitle = info.Journal.Title
	c.ISSN = info.Journal.ISSN
	c.Volume = info.Journal.Issue.Volume
	c.Issue = info.Journal.Issue.Issue
	c.Page = info.Pagination

	if parts := pubDateParts(info.Journal.Issue.PubDate); len(parts) > 0 {
		c.Issued = &citation.Date{DateParts: [][]int{parts}}
	}

	for _, a := range info.Authors {
		if a.LastName == "" {
			continue
		}
		c.Author = append(c.Author, citation.Name{Family: a.LastName, Given: a.ForeName})
	}

	for _, id := range article.ArticleIDs {
		switch id.IDType {
		case "doi":
			c.DOI = id.Value
		case "pmc":
			c.PMCID = id.Value
		}
	}

	return c
}

// pubDateParts converts a PubDate into CSL date parts, degrading to
// year-month or year-only when components are missing or unparseable.
func pubDateParts(d pubmedPubDate) []int {
	var parts []int
	year, err := strconv.Atoi(strings.TrimSpace(d.Year))
	if err != nil {
		return nil
	}
	parts = append(parts, year)

	month := parseMonth(d.Month)
	if month == 0 {
		return parts
	}
	parts = append(parts, month)

	if day, err := strconv.Atoi(strings.TrimSpace(d.Day)); err == nil {
		parts = append(parts, day)
	}
	return parts
}

// monthNames maps English month names and 3-letter abbreviations to
// month numbers.
var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// parseMonth accepts numeric months directly and looks up English names
// case-insensitively. Unrecognized strings yield 0.
func parseMonth(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return monthNames[s]
}

// PubMed E-utilities XML structures.
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation pubmedMedlineCitation `xml:"MedlineCitation"`
	ArticleIDs      []pubmedArticleID     `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type pubmedMedlineCitation struct {
	Article pubmedArticleInfo `xml:"Article"`
}

type pubmedArticleInfo struct {
	Title      string         `xml:"ArticleTitle"`
	Abstract   string         `xml:"Abstract>AbstractText"`
	Journal    pubmedJournal  `xml:"Journal"`
	Pagination string         `xml:"Pagination>MedlinePgn"`
	Authors    []pubmedAuthor `xml:"AuthorList>Author"`
}

type pubmedJournal struct {
	Title string             `xml:"Title"`
	ISSN  string             `xml:"ISSN"`
	Issue pubmedJournalIssue `xml:"JournalIssue"`
}

type pubmedJournalIssue struct {
	Volume  string        `xml:"Volume"`
	Issue   string        `xml:"Issue"`
	PubDate pubmedPubDate `xml:"PubDate"`
}

type pubmedPubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type pubmedArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}
