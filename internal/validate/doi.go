// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks bibliographic identifiers against external
// registries (Crossref for DOIs, PubMed for PMIDs), extracts metadata
// into citation records, and caches the outcomes.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/citation-tracker/internal/citation"
	"github.com/pdiddy/citation-tracker/internal/httputil"
	"github.com/pdiddy/citation-tracker/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// defaultEmail identifies us to the Crossref polite pool when no email is
// configured.
const defaultEmail = "citation-tracker@mesh-intelligence.com"

// doiPattern matches normalized DOIs: "10.1038/nature12345".
var doiPattern = regexp.MustCompile(`^10\.\d{4,}/\S+$`)

// NormalizeDOI lowercases a raw DOI and strips resolver prefixes
// ("https://doi.org/", "doi:"). Returns "" when the result does not match
// the DOI pattern.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"http://doi.org/", "https://doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	if !doiPattern.MatchString(doi) {
		return ""
	}
	return doi
}

// DOIValidator validates DOIs via the Crossref API and extracts metadata.
type DOIValidator struct {
	Client *http.Client
	// Email is sent in the User-Agent for polite pool access.
	Email string

	baseURL   string
	userAgent string
	cache     *resultCache
}

// NewDOIValidator builds a validator from config, applying defaults.
func NewDOIValidator(client *http.Client, cfg types.ValidatorConfig) *DOIValidator {
	email := cfg.Email
	if email == "" {
		email = defaultEmail
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "citation-tracker/0.1"
	}
	baseURL := cfg.CrossrefAPIBase
	if baseURL == "" {
		baseURL = crossrefAPIBase
	}
	return &DOIValidator{
		Client:    client,
		Email:     email,
		baseURL:   baseURL,
		userAgent: userAgent,
		cache:     newResultCache(cfg.CacheTTL, cfg.CacheSize),
	}
}

// Validate checks a DOI against Crossref and returns whether it resolves,
// plus the extracted metadata. Expected failures are value signals:
// a malformed or unknown DOI yields (false, nil, nil). A non-nil error
// means the registry could not be consulted (timeout, server error); such
// outcomes are never cached so the next call retries live.
func (v *DOIValidator) Validate(ctx context.Context, doi string, w io.Writer) (bool, *citation.Citation, error) {
	normalized := NormalizeDOI(doi)
	if normalized == "" {
		fmt.Fprintf(w, "warning: invalid DOI format: %q\n", doi)
		return false, nil, nil
	}

	cacheKey := "doi:" + normalized
	if entry, ok := v.cache.get(cacheKey); ok {
		return entry.valid, cloneCitation(entry.metadata), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+normalized, nil)
	if err != nil {
		return false, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("%s (mailto:%s)", v.userAgent, v.Email))

	resp, err := httputil.DoWithRetry(ctx, v.Client, req, 0)
	if err != nil {
		return false, nil, fmt.Errorf("Crossref request for %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var cr crossrefResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return false, nil, fmt.Errorf("parsing Crossref response for %s: %w", normalized, err)
		}
		meta := extractCrossref(cr.Message)
		v.cache.put(cacheKey, true, meta)
		return true, cloneCitation(meta), nil

	case resp.StatusCode == http.StatusNotFound:
		// Definitive: the DOI does not exist. Cache the negative result.
		v.cache.put(cacheKey, false, nil)
		fmt.Fprintf(w, "warning: DOI not found: %s\n", normalized)
		return false, nil, nil

	default:
		// Transient registry trouble; do not cache.
		return false, nil, fmt.Errorf("Crossref returned HTTP %d for %s", resp.StatusCode, normalized)
	}
}

// CitationFromDOI validates a DOI and builds a citation record from the
// registry metadata. Returns (nil, nil) when the DOI is invalid or not
// found. When citationID is empty an id is derived from the first author
// and year, falling back to a sanitized form of the DOI itself.
func (v *DOIValidator) CitationFromDOI(ctx context.Context, doi, citationID string, w io.Writer) (*citation.Citation, error) {
	valid, meta, err := v.Validate(ctx, doi, w)
	if err != nil {
		return nil, err
	}
	if !valid || meta == nil {
		return nil, nil
	}

	if citationID == "" {
		citationID = autoID(meta, sanitizeDOIID(NormalizeDOI(doi)))
	}

	meta.ID = citationID
	meta.Validated = true
	meta.ValidationMethod = "DOI"
	return meta, nil
}

// ClearCache drops all cached validation results.
func (v *DOIValidator) ClearCache() {
	v.cache.clear()
}

// crossrefTypeMap maps the Crossref type vocabulary onto CSL-JSON types.
// Unmapped types pass through unchanged.
var crossrefTypeMap = map[string]string{
	"journal-article":     "article-journal",
	"book-chapter":        "chapter",
	"posted-content":      "report",
	"proceedings-article": "paper-conference",
	"book":                "book",
	"monograph":           "book",
	"edited-book":         "book",
	"reference-book":      "book",
	"report":              "report",
	"dataset":             "dataset",
	"dissertation":        "thesis",
}

// extractCrossref maps a Crossref work onto a citation record. Absent
// registry fields stay zero-valued.
func extractCrossref(work crossrefWork) *citation.Citation {
	c := &citation.Citation{
		DOI:       work.DOI,
		Type:      mapCrossrefType(work.Type),
		Volume:    work.Volume,
		Issue:     work.Issue,
		Page:      work.Page,
		Publisher: work.Publisher,
		URL:       work.URL,
		Abstract:  work.Abstract,
	}

	if len(work.Title) > 0 {
		c.Title = work.Title[0]
	}
	if len(work.ContainerTitle) > 0 {
		c.ContainerTitle = work.ContainerTitle[0]
	}
	if len(work.ISSN) > 0 {
		c.ISSN = work.ISSN[0]
	}

	c.Author = convertNames(work.Author)
	c.Editor = convertNames(work.Editor)

	// First date field present wins; fields are never merged.
	for _, d := range []*crossrefDate{work.Published, work.PublishedPrint, work.PublishedOnline, work.Created} {
		if d != nil && len(d.DateParts) > 0 {
			c.Issued = &citation.Date{DateParts: d.DateParts}
			break
		}
	}

	return c
}

func mapCrossrefType(t string) string {
	if mapped, ok := crossrefTypeMap[t]; ok {
		return mapped
	}
	return t
}

// convertNames keeps only contributors with a family name.
func convertNames(names []crossrefName) []citation.Name {
	var out []citation.Name
	for _, n := range names {
		if n.Family == "" {
			continue
		}
		out = append(out, citation.Name{Family: n.Family, Given: n.Given})
	}
	return out
}

// autoID derives a citation id from the first author and year
// ("smith2023"), falling back to the family name alone, then to fallback.
func autoID(meta *citation.Citation, fallback string) string {
	family := meta.FirstAuthorFamily()
	if family == "" {
		return fallback
	}
	if year := meta.Year(); year != 0 {
		return fmt.Sprintf("%s%d", strings.ToLower(family), year)
	}
	return strings.ToLower(family)
}

// sanitizeDOIID turns a DOI into an id-safe token.
func sanitizeDOIID(doi string) string {
	return strings.NewReplacer("/", "_", ".", "_").Replace(doi)
}

// cloneCitation returns an independent copy so callers never share cached
// state.
func cloneCitation(c *citation.Citation) *citation.Citation {
	if c == nil {
		return nil
	}
	out := *c
	out.Author = append([]citation.Name(nil), c.Author...)
	out.Editor = append([]citation.Name(nil), c.Editor...)
	out.Translator = append([]citation.Name(nil), c.Translator...)
	out.QualityIssues = append([]string(nil), c.QualityIssues...)
	if c.Issued != nil {
		issued := *c.Issued
		issued.DateParts = cloneDateParts(c.Issued.DateParts)
		out.Issued = &issued
	}
	if c.Accessed != nil {
		accessed := *c.Accessed
		accessed.DateParts = cloneDateParts(c.Accessed.DateParts)
		out.Accessed = &accessed
	}
	return &out
}

func cloneDateParts(parts [][]int) [][]int {
	if parts == nil {
		return nil
	}
	out := make([][]int, len(parts))
	for i, p := range parts {
		out[i] = append([]int(nil), p...)
	}
	return out
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	DOI             string         `json:"DOI"`
	Type            string         `json:"type"`
	Title           []string       `json:"title"`
	ContainerTitle  []string       `json:"container-title"`
	Volume          string         `json:"volume"`
	Issue           string         `json:"issue"`
	Page            string         `json:"page"`
	Publisher       string         `json:"publisher"`
	ISSN            []string       `json:"ISSN"`
	URL             string         `json:"URL"`
	Abstract        string         `json:"abstract"`
	Author          []crossrefName `json:"author"`
	Editor          []crossrefName `json:"editor"`
	Published       *crossrefDate  `json:"published"`
	PublishedPrint  *crossrefDate  `json:"published-print"`
	PublishedOnline *crossrefDate  `json:"published-online"`
	Created         *crossrefDate  `json:"created"`
}

type crossrefName struct {
	Family string `json:"family"`
	Given  string `json:"given"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}
