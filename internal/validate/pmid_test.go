// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/citation-tracker/pkg/types"
)

const pubmedFixture = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <Journal>
          <ISSN>0028-0836</ISSN>
          <Title>Nature</Title>
          <JournalIssue>
            <Volume>618</Volume>
            <Issue>7965</Issue>
            <PubDate>
              <Year>2023</Year>
              <Month>Mar</Month>
              <Day>14</Day>
            </PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>Example Biomedical Paper</ArticleTitle>
        <Pagination>
          <MedlinePgn>500-510</MedlinePgn>
        </Pagination>
        <Abstract>
          <AbstractText>An abstract about things.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author>
            <LastName>Smith</LastName>
            <ForeName>Jane</ForeName>
          </Author>
          <Author>
            <CollectiveName>The Consortium</CollectiveName>
          </Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">36854710</ArticleId>
        <ArticleId IdType="doi">10.1038/s41586-023-06004-0</ArticleId>
        <ArticleId IdType="pmc">PMC10234567</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

const pubmedEmptyFixture = `<?xml version="1.0" ?>
<PubmedArticleSet>
</PubmedArticleSet>`

func withPubMedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	orig := pubmedFetchBase
	pubmedFetchBase = server.URL + "/entrez/eutils/efetch.fcgi"
	t.Cleanup(func() {
		pubmedFetchBase = orig
		server.Close()
	})
	return server
}

func TestNormalizePMID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"36854710", "36854710"},
		{"PMID:36854710", "36854710"},
		{"pmid: 36854710", "36854710"},
		{"  36854710  ", "36854710"},
		{"36854710a", ""},
		{"10.1038/nature12345", ""},
		{"PMID:", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePMID(tt.in); got != tt.want {
			t.Errorf("NormalizePMID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPMIDValidatorSuccess(t *testing.T) {
	withPubMedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("db"); got != "pubmed" {
			t.Errorf("db param = %q, want pubmed", got)
		}
		if got := r.URL.Query().Get("id"); got != "36854710" {
			t.Errorf("id param = %q, want 36854710", got)
		}
		fmt.Fprint(w, pubmedFixture)
	})

	v := NewPMIDValidator(http.DefaultClient, types.ValidatorConfig{})
	valid, meta, err := v.Validate(context.Background(), "PMID:36854710", io.Discard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatal("expected valid PMID")
	}

	if meta.Type != "article-journal" {
		t.Errorf("Type = %q, want article-journal", meta.Type)
	}
	if meta.Title != "Example Biomedical Paper" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.ContainerTitle != "Nature" {
		t.Errorf("ContainerTitle = %q, want Nature", meta.ContainerTitle)
	}
	if meta.PMID != "36854710" {
		t.Errorf("PMID = %q", meta.PMID)
	}
	if meta.DOI != "10.1038/s41586-023-06004-0" {
		t.Errorf("DOI = %q, want value from ArticleIdList", meta.DOI)
	}
	if meta.PMCID != "PMC10234567" {
		t.Errorf("PMCID = %q", meta.PMCID)
	}
	if meta.URL != "https://pubmed.ncbi.nlm.nih.gov/36854710/" {
		t.Errorf("URL = %q", meta.URL)
	}

	// The collective-name author has no LastName and is skipped.
	if len(meta.Author) != 1 || meta.Author[0].Family != "Smith" {
		t.Errorf("Author = %v, want only Smith", meta.Author)
	}

	if meta.Issued == nil || len(meta.Issued.DateParts[0]) != 3 {
		t.Fatalf("Issued = %v, want full date", meta.Issued)
	}
	parts := meta.Issued.DateParts[0]
	if parts[0] != 2023 || parts[1] != 3 || parts[2] != 14 {
		t.Errorf("date parts = %v, want [2023 3 14]", parts)
	}
}

func TestPMIDValidatorNotFoundCached(t *testing.T) {
	requests := 0
	withPubMedServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, pubmedEmptyFixture)
	})

	v := NewPMIDValidator(http.DefaultClient, types.ValidatorConfig{})
	for i := 0; i < 2; i++ {
		valid, meta, err := v.Validate(context.Background(), "99999999", io.Discard)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if valid || meta != nil {
			t.Error("empty article set should yield invalid with no metadata")
		}
	}
	if requests != 1 {
		t.Errorf("registry hit %d times, want 1 (negative result cached)", requests)
	}
}

func TestPMIDValidatorServerError(t *testing.T) {
	withPubMedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	v := NewPMIDValidator(http.DefaultClient, types.ValidatorConfig{})
	if _, _, err := v.Validate(context.Background(), "36854710", io.Discard); err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}

func TestPMIDValidatorAPIKeyParam(t *testing.T) {
	withPubMedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "secret-key" {
			t.Errorf("api_key param = %q, want secret-key", got)
		}
		fmt.Fprint(w, pubmedFixture)
	})

	v := NewPMIDValidator(http.DefaultClient, types.ValidatorConfig{PubMedAPIKey: "secret-key"})
	if _, _, err := v.Validate(context.Background(), "36854710", io.Discard); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestCitationFromPMIDAutoID(t *testing.T) {
	withPubMedServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pubmedFixture)
	})

	v := NewPMIDValidator(http.DefaultClient, types.ValidatorConfig{})
	c, err := v.CitationFromPMID(context.Background(), "36854710", "", io.Discard)
	if err != nil {
		t.Fatalf("CitationFromPMID: %v", err)
	}
	if c.ID != "smith2023" {
		t.Errorf("ID = %q, want smith2023", c.ID)
	}
	if !c.Validated || c.ValidationMethod != "PMID" {
		t.Errorf("validation fields = %v / %q", c.Validated, c.ValidationMethod)
	}
}

func TestCitationFromPMIDInvalid(t *testing.T) {
	v := NewPMIDValidator(http.DefaultClient, types.ValidatorConfig{})
	c, err := v.CitationFromPMID(context.Background(), "not-numeric", "", io.Discard)
	if err != nil {
		t.Fatalf("CitationFromPMID: %v", err)
	}
	if c != nil {
		t.Errorf("citation = %v, want nil for malformed PMID", c)
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1", 1},
		{"12", 12},
		{"Jan", 1},
		{"january", 1},
		{"MAR", 3},
		{"September", 9},
		{"", 0},
		{"Frimaire", 0},
	}
	for _, tt := range tests {
		if got := parseMonth(tt.in); got != tt.want {
			t.Errorf("parseMonth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPubDateParts(t *testing.T) {
	tests := []struct {
		name string
		date pubmedPubDate
		want []int
	}{
		{"full", pubmedPubDate{Year: "2023", Month: "Mar", Day: "14"}, []int{2023, 3, 14}},
		{"year month", pubmedPubDate{Year: "2023", Month: "3"}, []int{2023, 3}},
		{"year only", pubmedPubDate{Year: "2023"}, []int{2023}},
		{"bad month drops day", pubmedPubDate{Year: "2023", Month: "??", Day: "14"}, []int{2023}},
		{"no year", pubmedPubDate{Month: "Mar"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pubDateParts(tt.date)
			if len(got) != len(tt.want) {
				t.Fatalf("pubDateParts = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("pubDateParts = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
