// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import "github.com/pdiddy/citation-tracker/internal/citation"

// Merge folds a duplicate citation into the retained original and returns
// the original. The merge is asymmetric: descriptive fields only fill gaps
// on the original, never overwrite it; the caller discards the duplicate.
func Merge(original, duplicate *citation.Citation) *citation.Citation {
	fillString(&original.Title, duplicate.Title)
	fillString(&original.ContainerTitle, duplicate.ContainerTitle)
	fillString(&original.Publisher, duplicate.Publisher)
	fillString(&original.Volume, duplicate.Volume)
	fillString(&original.Issue, duplicate.Issue)
	fillString(&original.Page, duplicate.Page)
	fillString(&original.DOI, duplicate.DOI)
	fillString(&original.PMID, duplicate.PMID)
	fillString(&original.PMCID, duplicate.PMCID)
	fillString(&original.ISBN, duplicate.ISBN)
	fillString(&original.ISSN, duplicate.ISSN)
	fillString(&original.URL, duplicate.URL)
	fillString(&original.Abstract, duplicate.Abstract)
	fillString(&original.Keyword, duplicate.Keyword)

	// Prefer the longer author list.
	if len(duplicate.Author) > len(original.Author) {
		original.Author = duplicate.Author
	}

	// Prefer the more precise issued date.
	if duplicate.Issued != nil {
		if original.Issued == nil {
			original.Issued = duplicate.Issued
		} else if datePrecision(duplicate.Issued) > datePrecision(original.Issued) {
			original.Issued = duplicate.Issued
		}
	}

	if duplicate.Validated && !original.Validated {
		original.Validated = true
		original.ValidationMethod = duplicate.ValidationMethod
	}

	// Quality scores: keep the higher value.
	if duplicate.CredibilityScore > original.CredibilityScore {
		original.CredibilityScore = duplicate.CredibilityScore
	}
	if duplicate.ImpactFactor > original.ImpactFactor {
		original.ImpactFactor = duplicate.ImpactFactor
	}
	if duplicate.CitationCount > original.CitationCount {
		original.CitationCount = duplicate.CitationCount
	}

	// In-text counts accumulate.
	original.InTextCount += duplicate.InTextCount

	return original
}

func fillString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

// datePrecision counts the components in the first date-parts entry.
func datePrecision(d *citation.Date) int {
	if d == nil || len(d.DateParts) == 0 {
		return 0
	}
	return len(d.DateParts[0])
}
