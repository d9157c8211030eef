// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation defines the canonical bibliographic record model and the
// per-job citation store. Records follow the CSL-JSON schema (Citation Style
// Language) so they stay consumable by Pandoc and reference managers.
package citation

import (
	"fmt"
	"strings"
	"time"
)

// Name is a CSL name object for authors, editors, and translators.
type Name struct {
	Family              string `json:"family,omitempty" yaml:"family,omitempty"`
	Given               string `json:"given,omitempty" yaml:"given,omitempty"`
	DroppingParticle    string `json:"dropping-particle,omitempty" yaml:"dropping-particle,omitempty"`
	NonDroppingParticle string `json:"non-dropping-particle,omitempty" yaml:"non-dropping-particle,omitempty"`
	Suffix              string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	// Literal holds the whole name for organizational authors.
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// Validate checks that the name identifies someone: a non-empty family
// name, or a literal for organizations.
func (n Name) Validate() error {
	if strings.TrimSpace(n.Family) == "" && n.Literal == "" {
		return fmt.Errorf("name requires a family name or a literal")
	}
	return nil
}

// String renders the name as "Family, Given". A literal name wins.
func (n Name) String() string {
	if n.Literal != "" {
		return n.Literal
	}
	if n.Given == "" {
		return n.Family
	}
	return n.Family + ", " + n.Given
}

// Date is a CSL date object. DateParts holds [[year]], [[year, month]],
// or [[year, month, day]].
type Date struct {
	DateParts [][]int `json:"date-parts,omitempty" yaml:"date-parts,omitempty"`
	Season    string  `json:"season,omitempty" yaml:"season,omitempty"`
	Circa     bool    `json:"circa,omitempty" yaml:"circa,omitempty"`
	Literal   string  `json:"literal,omitempty" yaml:"literal,omitempty"`
	Raw       string  `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Year returns the publication year, or 0 when no date parts are present.
func (d *Date) Year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// String renders the date as zero-padded YYYY-MM-DD truncated to the
// available precision. A literal date wins.
func (d *Date) String() string {
	if d == nil {
		return ""
	}
	if d.Literal != "" {
		return d.Literal
	}
	if len(d.DateParts) == 0 {
		return ""
	}
	parts := d.DateParts[0]
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%d", parts[0])
	case 2:
		return fmt.Sprintf("%d-%02d", parts[0], parts[1])
	default:
		return fmt.Sprintf("%d-%02d-%02d", parts[0], parts[1], parts[2])
	}
}

// cslTypes enumerates the CSL-JSON item type vocabulary.
var cslTypes = map[string]bool{
	"article": true, "article-journal": true, "article-magazine": true,
	"article-newspaper": true, "bill": true, "book": true, "broadcast": true,
	"chapter": true, "classic": true, "collection": true, "dataset": true,
	"document": true, "entry": true, "entry-dictionary": true,
	"entry-encyclopedia": true, "event": true, "figure": true, "graphic": true,
	"hearing": true, "interview": true, "legal_case": true, "legislation": true,
	"manuscript": true, "map": true, "motion_picture": true,
	"musical_score": true, "pamphlet": true, "paper-conference": true,
	"patent": true, "performance": true, "periodical": true,
	"personal_communication": true, "post": true, "post-weblog": true,
	"regulation": true, "report": true, "review": true, "review-book": true,
	"software": true, "song": true, "speech": true, "standard": true,
	"thesis": true, "treaty": true, "webpage": true,
}

// KnownType reports whether t is a recognized CSL item type.
func KnownType(t string) bool {
	return cslTypes[t]
}

// Citation is one bibliographic entry in CSL-JSON form, extended with
// tracking fields managed by the store and manager.
type Citation struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`

	Author     []Name `json:"author,omitempty" yaml:"author,omitempty"`
	Editor     []Name `json:"editor,omitempty" yaml:"editor,omitempty"`
	Translator []Name `json:"translator,omitempty" yaml:"translator,omitempty"`

	Title           string `json:"title,omitempty" yaml:"title,omitempty"`
	ContainerTitle  string `json:"container-title,omitempty" yaml:"container-title,omitempty"`
	CollectionTitle string `json:"collection-title,omitempty" yaml:"collection-title,omitempty"`

	Issued   *Date `json:"issued,omitempty" yaml:"issued,omitempty"`
	Accessed *Date `json:"accessed,omitempty" yaml:"accessed,omitempty"`

	Publisher      string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PublisherPlace string `json:"publisher-place,omitempty" yaml:"publisher-place,omitempty"`

	Volume string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue  string `json:"issue,omitempty" yaml:"issue,omitempty"`
	Page   string `json:"page,omitempty" yaml:"page,omitempty"`

	DOI   string `json:"DOI,omitempty" yaml:"DOI,omitempty"`
	PMID  string `json:"PMID,omitempty" yaml:"PMID,omitempty"`
	PMCID string `json:"PMCID,omitempty" yaml:"PMCID,omitempty"`
	ISBN  string `json:"ISBN,omitempty" yaml:"ISBN,omitempty"`
	ISSN  string `json:"ISSN,omitempty" yaml:"ISSN,omitempty"`
	URL   string `json:"URL,omitempty" yaml:"URL,omitempty"`

	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Keyword  string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Tracking fields managed by this system, never sourced from registries.
	CitationNumber   int       `json:"citation_number,omitempty" yaml:"citation_number,omitempty"`
	AddedBy          string    `json:"added_by,omitempty" yaml:"added_by,omitempty"`
	AddedAt          time.Time `json:"added_at,omitempty" yaml:"added_at,omitempty"`
	Validated        bool      `json:"validated" yaml:"validated"`
	ValidationMethod string    `json:"validation_method,omitempty" yaml:"validation_method,omitempty"`
	CredibilityScore float64   `json:"credibility_score,omitempty" yaml:"credibility_score,omitempty"`
	ImpactFactor     float64   `json:"impact_factor,omitempty" yaml:"impact_factor,omitempty"`
	CitationCount    int       `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
	InTextCount      int       `json:"in_text_count,omitempty" yaml:"in_text_count,omitempty"`
	QualityIssues    []string  `json:"quality_issues,omitempty" yaml:"quality_issues,omitempty"`
}

// Validate checks the required fields: a non-empty id, a known CSL type,
// well-formed creator names, and a credibility score within [0,1].
func (c *Citation) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("citation id is required")
	}
	if !KnownType(c.Type) {
		return fmt.Errorf("unknown citation type %q", c.Type)
	}
	for i, a := range c.Author {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("author %d: %w", i, err)
		}
	}
	if c.CredibilityScore < 0 || c.CredibilityScore > 1 {
		return fmt.Errorf("credibility score %v outside [0,1]", c.CredibilityScore)
	}
	return nil
}

// Year returns the publication year from the issued date, or 0.
func (c *Citation) Year() int {
	return c.Issued.Year()
}

// FirstAuthorFamily returns the family name of the first author, or "".
func (c *Citation) FirstAuthorFamily() string {
	if len(c.Author) == 0 {
		return ""
	}
	return c.Author[0].Family
}

// AuthorsString returns all authors as a semicolon-separated string.
func (c *Citation) AuthorsString() string {
	if len(c.Author) == 0 {
		return ""
	}
	parts := make([]string, len(c.Author))
	for i, a := range c.Author {
		parts[i] = a.String()
	}
	return strings.Join(parts, "; ")
}

// CitationKey returns a key like "Smith2023" from the first author family
// name and year, falling back to the record id.
func (c *Citation) CitationKey() string {
	family := c.FirstAuthorFamily()
	year := c.Year()
	if family != "" && year != 0 {
		return fmt.Sprintf("%s%d", family, year)
	}
	return c.ID
}

// IsComplete reports whether the citation carries the essential fields for
// its type: title, date, at least one author, and at least one identifier.
// Journal articles additionally need a container title; books a publisher.
func (c *Citation) IsComplete() bool {
	if c.Title == "" || c.Issued == nil {
		return false
	}
	switch c.Type {
	case "article-journal", "article-magazine", "article-newspaper":
		if c.ContainerTitle == "" {
			return false
		}
	case "book", "chapter":
		if c.Publisher == "" {
			return false
		}
	}
	if len(c.Author) == 0 {
		return false
	}
	return c.DOI != "" || c.PMID != "" || c.ISBN != "" || c.URL != ""
}

// Completeness weights. Identifiers weigh as much as core fields because
// they anchor deduplication and validation.
const (
	coreWeight       = 2.0
	importantWeight  = 1.5
	identifierWeight = 2.0
	optionalWeight   = 1.0
)

// CompletenessScore returns the weighted fraction of expected bibliographic
// fields present on the record, in [0,1].
func (c *Citation) CompletenessScore() float64 {
	var total, filled float64

	core := []bool{c.Title != "", len(c.Author) > 0, c.Issued != nil}
	for _, present := range core {
		total += coreWeight
		if present {
			filled += coreWeight
		}
	}

	important := []bool{c.ContainerTitle != "", c.Publisher != ""}
	for _, present := range important {
		total += importantWeight
		if present {
			filled += importantWeight
		}
	}

	identifiers := []bool{c.DOI != "", c.PMID != "", c.URL != ""}
	for _, present := range identifiers {
		total += identifierWeight
		if present {
			filled += identifierWeight
		}
	}

	optional := []bool{c.Volume != "", c.Issue != "", c.Page != "", c.Abstract != ""}
	for _, present := range optional {
		total += optionalWeight
		if present {
			filled += optionalWeight
		}
	}

	if total == 0 {
		return 0
	}
	return filled / total
}
