// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manager

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-tracker/internal/citation"
)

// notFoundMarker is returned by format operations invoked with ids that
// resolve to nothing. Formatting degrades instead of failing because the
// ids come from loosely-trusted upstream callers.
const notFoundMarker = "[Citation not found]"

// FormatInText renders an in-text citation. One id yields
// "(Family, Year) [N]", or "(Family, Year, p. P) [N]" with a page number.
// Several ids yield semicolon-joined "Family, Year [N]" groups in the
// order given; page numbers are not supported for groups. Unknown ids are
// dropped silently.
func (m *Manager) FormatInText(citationIDs []string, pageNumber string) string {
	var citations []*citation.Citation
	for _, id := range citationIDs {
		if c := m.Store.ByID(id); c != nil {
			citations = append(citations, c)
		}
	}

	if len(citations) == 0 {
		return notFoundMarker
	}

	if len(citations) == 1 {
		author, year, number := intextParts(citations[0])
		if pageNumber != "" {
			return fmt.Sprintf("(%s, %s, p. %s) [%s]", author, year, pageNumber, number)
		}
		return fmt.Sprintf("(%s, %s) [%s]", author, year, number)
	}

	parts := make([]string, len(citations))
	for i, c := range citations {
		author, year, number := intextParts(c)
		parts[i] = fmt.Sprintf("%s, %s [%s]", author, year, number)
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

// intextParts returns the author, year, and number segments with their
// placeholders for missing values.
func intextParts(c *citation.Citation) (author, year, number string) {
	author = c.FirstAuthorFamily()
	if author == "" {
		author = "Unknown"
	}
	year = "n.d."
	if y := c.Year(); y != 0 {
		year = fmt.Sprintf("%d", y)
	}
	number = "?"
	if c.CitationNumber != 0 {
		number = fmt.Sprintf("%d", c.CitationNumber)
	}
	return author, year, number
}

// FormatBibliographyEntry renders one bibliography entry: authors, year,
// title, container details, then DOI-as-URL or raw URL. Missing segments
// are omitted.
func (m *Manager) FormatBibliographyEntry(citationID string) string {
	c := m.Store.ByID(citationID)
	if c == nil {
		return notFoundMarker
	}

	var parts []string

	if len(c.Author) > 0 {
		parts = append(parts, strings.TrimSpace(bibliographyAuthors(c.Author)))
	}

	if year := c.Year(); year != 0 {
		parts = append(parts, fmt.Sprintf("(%d).", year))
	}

	if c.Title != "" {
		parts = append(parts, c.Title+".")
	}

	if c.ContainerTitle != "" {
		journal := c.ContainerTitle
		if c.Volume != "" {
			journal += ", " + c.Volume
		}
		if c.Issue != "" {
			journal += "(" + c.Issue + ")"
		}
		if c.Page != "" {
			journal += ", " + c.Page
		}
		parts = append(parts, journal+".")
	}

	if c.DOI != "" {
		parts = append(parts, "https://doi.org/"+c.DOI)
	} else if c.URL != "" {
		parts = append(parts, c.URL)
	}

	return strings.Join(parts, " ")
}

// bibliographyAuthors renders the author block: one author
// "Family, Given.", two joined by "&", three or more abbreviated with
// "et al.".
func bibliographyAuthors(authors []citation.Name) string {
	name := func(n citation.Name) string {
		if n.Given == "" {
			return n.Family
		}
		return n.Family + ", " + n.Given
	}
	switch len(authors) {
	case 1:
		return name(authors[0]) + "."
	case 2:
		return name(authors[0]) + " & " + name(authors[1])
	default:
		return name(authors[0]) + " et al."
	}
}

// FormatBibliography renders the bibliography, one "[N] entry" line per
// record, sorted by citation number ascending. Nil ids means all records.
func (m *Manager) FormatBibliography(citationIDs []string) string {
	var citations []*citation.Citation
	if len(citationIDs) > 0 {
		for _, id := range citationIDs {
			if c := m.Store.ByID(id); c != nil {
				citations = append(citations, c)
			}
		}
	} else {
		citations = m.Store.All()
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].CitationNumber < citations[j].CitationNumber
	})

	lines := make([]string, len(citations))
	for i, c := range citations {
		lines[i] = fmt.Sprintf("[%d] %s", c.CitationNumber, m.FormatBibliographyEntry(c.ID))
	}
	return strings.Join(lines, "\n")
}

// ExportBibTeX renders the store as BibTeX: @article for journal
// articles, @misc for everything else. Fields appear in a fixed order and
// only when present; blocks are separated by a blank line.
func (m *Manager) ExportBibTeX() string {
	var entries []string

	for _, c := range m.Store.All() {
		entryType := "misc"
		if c.Type == "article-journal" {
			entryType = "article"
		}

		lines := []string{fmt.Sprintf("@%s{%s,", entryType, c.ID)}

		if len(c.Author) > 0 {
			names := make([]string, len(c.Author))
			for i, a := range c.Author {
				if a.Given == "" {
					names[i] = a.Family
				} else {
					names[i] = a.Family + ", " + a.Given
				}
			}
			lines = append(lines, fmt.Sprintf("  author = {%s},", strings.Join(names, " and ")))
		}
		if c.Title != "" {
			lines = append(lines, fmt.Sprintf("  title = {%s},", c.Title))
		}
		if c.ContainerTitle != "" {
			lines = append(lines, fmt.Sprintf("  journal = {%s},", c.ContainerTitle))
		}
		if year := c.Year(); year != 0 {
			lines = append(lines, fmt.Sprintf("  year = {%d},", year))
		}
		if c.Volume != "" {
			lines = append(lines, fmt.Sprintf("  volume = {%s},", c.Volume))
		}
		if c.Issue != "" {
			lines = append(lines, fmt.Sprintf("  number = {%s},", c.Issue))
		}
		if c.Page != "" {
			lines = append(lines, fmt.Sprintf("  pages = {%s},", c.Page))
		}
		if c.DOI != "" {
			lines = append(lines, fmt.Sprintf("  doi = {%s},", c.DOI))
		}
		if c.URL != "" {
			lines = append(lines, fmt.Sprintf("  url = {%s},", c.URL))
		}

		lines = append(lines, "}")
		entries = append(entries, strings.Join(lines, "\n"))
	}

	return strings.Join(entries, "\n\n")
}

// ExportCSL writes the store as a CSL-YAML list to w, consumable by
// Pandoc and reference managers.
func (m *Manager) ExportCSL(w io.Writer) error {
	citations := m.Store.All()
	items := make([]citation.Citation, len(citations))
	for i, c := range citations {
		items[i] = *c
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}
