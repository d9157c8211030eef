// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe detects duplicate citations using exact identifier
// matching and fuzzy title/author/year matching, and merges confirmed
// duplicate pairs.
package dedupe

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/citation-tracker/internal/citation"
	"github.com/pdiddy/citation-tracker/pkg/types"
)

// Default fuzzy-match thresholds.
const (
	DefaultTitleThreshold  = 0.85
	DefaultAuthorThreshold = 0.90
)

// Detector scores citation pairs for duplicate likelihood.
type Detector struct {
	TitleThreshold  float64
	AuthorThreshold float64
}

// NewDetector builds a detector from config, applying defaults for unset
// thresholds.
func NewDetector(cfg types.DetectorConfig) *Detector {
	d := &Detector{
		TitleThreshold:  cfg.TitleThreshold,
		AuthorThreshold: cfg.AuthorThreshold,
	}
	if d.TitleThreshold <= 0 {
		d.TitleThreshold = DefaultTitleThreshold
	}
	if d.AuthorThreshold <= 0 {
		d.AuthorThreshold = DefaultAuthorThreshold
	}
	return d
}

// FindDuplicates returns the subset of existing citations that score as
// duplicates of c. A record never matches itself (same id).
func (d *Detector) FindDuplicates(c *citation.Citation, existing []*citation.Citation, w io.Writer) []*citation.Citation {
	var duplicates []*citation.Citation
	for _, e := range existing {
		if e.ID == c.ID {
			continue
		}
		score := d.Score(c, e)
		if score > 0 {
			if w != nil {
				fmt.Fprintf(w, "potential duplicate: %s <-> %s (score %.2f)\n", c.ID, e.ID, score)
			}
			duplicates = append(duplicates, e)
		}
	}
	return duplicates
}

// Score returns the duplicate likelihood of a pair in [0,1]. Strategies
// apply in priority order and the first decisive one wins: exact DOI,
// exact PMID, normalized URL, then fuzzy title+author+year.
func (d *Detector) Score(a, b *citation.Citation) float64 {
	if a.DOI != "" && b.DOI != "" {
		if normalizeDOI(a.DOI) == normalizeDOI(b.DOI) {
			return 1.0
		}
	}

	if a.PMID != "" && b.PMID != "" && a.PMID == b.PMID {
		return 1.0
	}

	if a.URL != "" && b.URL != "" {
		if normalizeURL(a.URL) == normalizeURL(b.URL) {
			return 1.0
		}
	}

	titleSim := titleSimilarity(a.Title, b.Title)
	authorSim := authorSimilarity(a.Author, b.Author)

	// All three signals must agree for a fuzzy duplicate.
	if titleSim > d.TitleThreshold && authorSim > d.AuthorThreshold && yearMatch(a, b) {
		return (titleSim + authorSim) / 2
	}

	return 0.0
}

// doiJunkRe strips everything a normalized DOI cannot contain.
var doiJunkRe = regexp.MustCompile(`[^a-z0-9./]`)

// normalizeDOI lowercases a DOI and strips resolver prefixes and stray
// characters so casing and prefix variants compare equal.
func normalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"http://doi.org/", "https://doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doiJunkRe.ReplaceAllString(doi, "")
}

var urlPrefixRe = regexp.MustCompile(`^https?://(www\.)?`)

// normalizeURL lowercases a URL and strips the scheme, "www.", and any
// trailing slash.
func normalizeURL(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	url = urlPrefixRe.ReplaceAllString(url, "")
	return strings.TrimSuffix(url, "/")
}

// normalizeText lowercases s, strips punctuation, and collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// titleSimilarity returns the sequence-similarity ratio of the normalized
// titles. Missing titles on either side score 0.
func titleSimilarity(t1, t2 string) float64 {
	if t1 == "" || t2 == "" {
		return 0.0
	}
	return Ratio(normalizeText(t1), normalizeText(t2))
}

// authorSimilarity compares first authors, which carry most of the
// identification signal. When both records list two or more authors and
// the first authors match well, the second authors are averaged in.
func authorSimilarity(a1, a2 []citation.Name) float64 {
	if len(a1) == 0 || len(a2) == 0 {
		return 0.0
	}

	sim := Ratio(formatAuthor(a1[0]), formatAuthor(a2[0]))

	if sim > 0.8 && len(a1) > 1 && len(a2) > 1 {
		secondSim := Ratio(formatAuthor(a1[1]), formatAuthor(a2[1]))
		sim = (sim + secondSim) / 2
	}

	return sim
}

// formatAuthor renders a name as a normalized "family given" comparison key.
func formatAuthor(n citation.Name) string {
	return normalizeText(strings.TrimSpace(n.Family + " " + n.Given))
}

// yearMatch reports whether both citations carry a publication year and
// the years are equal.
func yearMatch(a, b *citation.Citation) bool {
	y1, y2 := a.Year(), b.Year()
	return y1 != 0 && y2 != 0 && y1 == y2
}
