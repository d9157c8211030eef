// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manager

import (
	"strings"
	"testing"

	"github.com/pdiddy/citation-tracker/internal/citation"
)

func journalCitation() *citation.Citation {
	return &citation.Citation{
		ID:             "smith2023",
		Type:           "article-journal",
		Title:          "Example Paper",
		Author:         []citation.Name{{Family: "Smith", Given: "Jane"}},
		Issued:         &citation.Date{DateParts: [][]int{{2023}}},
		ContainerTitle: "Nature",
		Volume:         "618",
		Issue:          "7965",
		Page:           "500-510",
		DOI:            "10.1038/s41586-023-06004-0",
	}
}

func TestFormatInTextSingle(t *testing.T) {
	mgr := newTestManager(t, nil)
	mgr.Store.Add(journalCitation())

	if got := mgr.FormatInText([]string{"smith2023"}, ""); got != "(Smith, 2023) [1]" {
		t.Errorf("FormatInText = %q", got)
	}
	if got := mgr.FormatInText([]string{"smith2023"}, "42"); got != "(Smith, 2023, p. 42) [1]" {
		t.Errorf("FormatInText with page = %q", got)
	}
}

func TestFormatInTextMultiple(t *testing.T) {
	mgr := newTestManager(t, nil)
	mgr.Store.Add(journalCitation())
	mgr.Store.Add(&citation.Citation{
		ID:     "doe2021",
		Type:   "article-journal",
		Author: []citation.Name{{Family: "Doe", Given: "John"}},
		Issued: &citation.Date{DateParts: [][]int{{2021}}},
	})

	got := mgr.FormatInText([]string{"smith2023", "doe2021"}, "")
	want := "(Smith, 2023 [1]; Doe, 2021 [2])"
	if got != want {
		t.Errorf("FormatInText = %q, want %q", got, want)
	}
}

func TestFormatInTextPlaceholders(t *testing.T) {
	mgr := newTestManager(t, nil)
	mgr.Store.Add(&citation.Citation{ID: "bare", Type: "webpage"})

	if got := mgr.FormatInText([]string{"bare"}, ""); got != "(Unknown, n.d.) [1]" {
		t.Errorf("FormatInText = %q, want (Unknown, n.d.) [1]", got)
	}
}

func TestFormatInTextNotFound(t *testing.T) {
	mgr := newTestManager(t, nil)
	if got := mgr.FormatInText([]string{"nope"}, ""); got != "[Citation not found]" {
		t.Errorf("FormatInText = %q", got)
	}
}

func TestFormatBibliographyEntry(t *testing.T) {
	mgr := newTestManager(t, nil)
	mgr.Store.Add(journalCitation())

	got := mgr.FormatBibliographyEntry("smith2023")
	want := "Smith, Jane. (2023). Example Paper. Nature, 618(7965), 500-510. https://doi.org/10.1038/s41586-023-06004-0"
	if got != want {
		t.Errorf("entry = %q\nwant    %q", got, want)
	}
}

func TestFormatBibliographyEntryAuthorForms(t *testing.T) {
	tests := []struct {
		name    string
		authors []citation.Name
		want    string
	}{
		{
			"two authors",
			[]citation.Name{{Family: "Smith", Given: "Jane"}, {Family: "Doe", Given: "John"}},
			"Smith, Jane & Doe, John",
		},
		{
			"three authors",
			[]citation.Name{{Family: "Smith", Given: "Jane"}, {Family: "Doe"}, {Family: "Nguyen"}},
			"Smith, Jane et al.",
		},
		{
			"family only",
			[]citation.Name{{Family: "Smith"}},
			"Smith.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newTestManager(t, nil)
			mgr.Store.Add(&citation.Citation{ID: "c", Type: "article-journal", Author: tt.authors})

			got := mgr.FormatBibliographyEntry("c")
			if got != tt.want {
				t.Errorf("entry = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatBibliographyEntryMissingSegmentsOmitted(t *testing.T) {
	mgr := newTestManager(t, nil)
	mgr.Store.Add(&citation.Citation{
		ID:    "sparse",
		Type:  "webpage",
		Title: "A Web Page",
		URL:   "https://example.com/page",
	})

	got := mgr.FormatBibliographyEntry("sparse")
	want := "A Web Page. https://example.com/page"
	if got != want {
		t.Errorf("entry = %q, want %q", got, want)
	}
}

func TestFormatBibliographySortsByNumber(t *testing.T) {
	mgr := newTestManager(t, nil)
	// Insert out of numeric order; ids are deliberately anti-alphabetic.
	mgr.Store.Add(&citation.Citation{ID: "zeta", Type: "webpage", Title: "First", CitationNumber: 1})
	mgr.Store.Add(&citation.Citation{ID: "alpha", Type: "webpage", Title: "Third", CitationNumber: 3})
	mgr.Store.Add(&citation.Citation{ID: "mid", Type: "webpage", Title: "Second", CitationNumber: 2})

	lines := strings.Split(mgr.FormatBibliography(nil), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, wantPrefix := range []string{"[1] First.", "[2] Second.", "[3] Third."} {
		if !strings.HasPrefix(lines[i], wantPrefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], wantPrefix)
		}
	}
}

func TestExportBibTeX(t *testing.T) {
	mgr := newTestManager(t, nil)
	mgr.Store.Add(journalCitation())
	mgr.Store.Add(&citation.Citation{
		ID:    "web_example_com",
		Type:  "webpage",
		Title: "A Report",
		URL:   "https://example.com",
	})

	out := mgr.ExportBibTeX()

	if !strings.Contains(out, "@article{smith2023,") {
		t.Error("journal article should export as @article")
	}
	if !strings.Contains(out, "@misc{web_example_com,") {
		t.Error("webpage should export as @misc")
	}
	if !strings.Contains(out, "  author = {Smith, Jane},") {
		t.Error("missing author field")
	}
	if !strings.Contains(out, "  journal = {Nature},") {
		t.Error("missing journal field")
	}
	if !strings.Contains(out, "  year = {2023},") {
		t.Error("missing year field")
	}
	if !strings.Contains(out, "  doi = {10.1038/s41586-023-06004-0},") {
		t.Error("missing doi field")
	}
	if !strings.Contains(out, "\n\n@") {
		t.Error("entries should be separated by a blank line")
	}
	if strings.Contains(out, "journal = {}") {
		t.Error("empty fields must be omitted")
	}
}

func TestExportCSL(t *testing.T) {
	mgr := newTestManager(t, nil)
	mgr.Store.Add(journalCitation())

	var buf strings.Builder
	if err := mgr.ExportCSL(&buf); err != nil {
		t.Fatalf("ExportCSL: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "id: smith2023") {
		t.Errorf("CSL output missing id:\n%s", out)
	}
	if !strings.Contains(out, "type: article-journal") {
		t.Errorf("CSL output missing type:\n%s", out)
	}
	if !strings.Contains(out, "family: Smith") {
		t.Errorf("CSL output missing author family:\n%s", out)
	}
}
