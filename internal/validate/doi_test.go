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

const crossrefFixture = `{
	"message": {
		"DOI": "10.1038/s41586-023-06004-0",
		"type": "journal-article",
		"title": ["Example Paper"],
		"container-title": ["Nature"],
		"volume": "618",
		"issue": "7965",
		"page": "500-510",
		"publisher": "Springer Nature",
		"ISSN": ["0028-0836"],
		"URL": "https://doi.org/10.1038/s41586-023-06004-0",
		"author": [
			{"family": "Smith", "given": "Jane"},
			{"family": "Doe", "given": "John"}
		],
		"published": {"date-parts": [[2023, 5, 14]]}
	}
}`

// withCrossrefServer points the validator at a test server for the
// duration of the test.
func withCrossrefServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	orig := crossrefAPIBase
	crossrefAPIBase = server.URL + "/works/"
	t.Cleanup(func() {
		crossrefAPIBase = orig
		server.Close()
	})
	return server
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1038/nature12345", "10.1038/nature12345"},
		{"10.1038/NATURE12345", "10.1038/nature12345"},
		{"https://doi.org/10.1038/nature12345", "10.1038/nature12345"},
		{"http://doi.org/10.1038/nature12345", "10.1038/nature12345"},
		{"doi:10.1038/nature12345", "10.1038/nature12345"},
		{"  10.1038/nature12345  ", "10.1038/nature12345"},
		{"not-a-doi", ""},
		{"10.38/too-short-prefix", ""},
		{"10.1038/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDOIValidatorSuccess(t *testing.T) {
	withCrossrefServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, crossrefFixture)
	})

	v := NewDOIValidator(http.DefaultClient, types.ValidatorConfig{})
	valid, meta, err := v.Validate(context.Background(), "10.1038/s41586-023-06004-0", io.Discard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatal("expected valid DOI")
	}

	if meta.Type != "article-journal" {
		t.Errorf("Type = %q, want article-journal", meta.Type)
	}
	if meta.Title != "Example Paper" {
		t.Errorf("Title = %q, want Example Paper", meta.Title)
	}
	if meta.ContainerTitle != "Nature" {
		t.Errorf("ContainerTitle = %q, want Nature", meta.ContainerTitle)
	}
	if len(meta.Author) != 2 || meta.Author[0].Family != "Smith" {
		t.Errorf("Author = %v, want Smith first of 2", meta.Author)
	}
	if meta.Year() != 2023 {
		t.Errorf("Year() = %d, want 2023", meta.Year())
	}
	if meta.Volume != "618" || meta.Page != "500-510" {
		t.Errorf("Volume/Page = %q/%q", meta.Volume, meta.Page)
	}
}

func TestDOIValidatorCachesResults(t *testing.T) {
	requests := 0
	withCrossrefServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, crossrefFixture)
	})

	v := NewDOIValidator(http.DefaultClient, types.ValidatorConfig{})
	for i := 0; i < 3; i++ {
		if _, _, err := v.Validate(context.Background(), "10.1038/s41586-023-06004-0", io.Discard); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	}
	if requests != 1 {
		t.Errorf("registry hit %d times, want 1 (cache)", requests)
	}

	// Case and prefix variants normalize to the same cache key.
	if _, _, err := v.Validate(context.Background(), "https://doi.org/10.1038/S41586-023-06004-0", io.Discard); err != nil {
		t.Fatalf("Validate variant: %v", err)
	}
	if requests != 1 {
		t.Errorf("registry hit %d times after variant, want 1", requests)
	}
}

func TestDOIValidatorNotFoundCached(t *testing.T) {
	requests := 0
	withCrossrefServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	})

	v := NewDOIValidator(http.DefaultClient, types.ValidatorConfig{})
	for i := 0; i < 2; i++ {
		valid, meta, err := v.Validate(context.Background(), "10.1038/doesnotexist", io.Discard)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if valid || meta != nil {
			t.Error("404 should yield invalid with no metadata")
		}
	}
	if requests != 1 {
		t.Errorf("registry hit %d times, want 1 (negative result cached)", requests)
	}
}

func TestDOIValidatorTransientNotCached(t *testing.T) {
	requests := 0
	withCrossrefServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	})

	v := NewDOIValidator(http.DefaultClient, types.ValidatorConfig{})
	for i := 0; i < 2; i++ {
		_, _, err := v.Validate(context.Background(), "10.1038/nature12345", io.Discard)
		if err == nil {
			t.Fatal("expected error for HTTP 500")
		}
	}
	if requests != 2 {
		t.Errorf("registry hit %d times, want 2 (transient failures never cached)", requests)
	}
}

func TestDOIValidatorMalformed(t *testing.T) {
	// No server: a malformed DOI must fail before any network call.
	v := NewDOIValidator(http.DefaultClient, types.ValidatorConfig{})
	valid, meta, err := v.Validate(context.Background(), "not-a-doi", io.Discard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid || meta != nil {
		t.Error("malformed DOI should yield invalid with no metadata")
	}
}

func TestCitationFromDOIAutoID(t *testing.T) {
	withCrossrefServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, crossrefFixture)
	})

	v := NewDOIValidator(http.DefaultClient, types.ValidatorConfig{})
	c, err := v.CitationFromDOI(context.Background(), "10.1038/s41586-023-06004-0", "", io.Discard)
	if err != nil {
		t.Fatalf("CitationFromDOI: %v", err)
	}
	if c.ID != "smith2023" {
		t.Errorf("ID = %q, want smith2023", c.ID)
	}
	if !c.Validated || c.ValidationMethod != "DOI" {
		t.Errorf("validation fields = %v / %q", c.Validated, c.ValidationMethod)
	}
}

func TestCitationFromDOICustomID(t *testing.T) {
	withCrossrefServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, crossrefFixture)
	})

	v := NewDOIValidator(http.DefaultClient, types.ValidatorConfig{})
	c, err := v.CitationFromDOI(context.Background(), "10.1038/s41586-023-06004-0", "my_key", io.Discard)
	if err != nil {
		t.Fatalf("CitationFromDOI: %v", err)
	}
	if c.ID != "my_key" {
		t.Errorf("ID = %q, want my_key", c.ID)
	}
}

func TestExtractCrossrefDatePreference(t *testing.T) {
	work := crossrefWork{
		PublishedPrint: &crossrefDate{DateParts: [][]int{{2022, 1}}},
		Created:        &crossrefDate{DateParts: [][]int{{2021}}},
	}
	c := extractCrossref(work)
	if c.Year() != 2022 {
		t.Errorf("Year() = %d, want published-print 2022 over created", c.Year())
	}

	work.Published = &crossrefDate{DateParts: [][]int{{2023, 5}}}
	c = extractCrossref(work)
	if c.Year() != 2023 {
		t.Errorf("Year() = %d, want published 2023 first", c.Year())
	}
}

func TestExtractCrossrefSkipsFamilylessAuthors(t *testing.T) {
	work := crossrefWork{
		Author: []crossrefName{
			{Given: "Orphan"},
			{Family: "Smith", Given: "Jane"},
		},
	}
	c := extractCrossref(work)
	if len(c.Author) != 1 || c.Author[0].Family != "Smith" {
		t.Errorf("Author = %v, want only Smith", c.Author)
	}
}

func TestCloneCitationIndependence(t *testing.T) {
	withCrossrefServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, crossrefFixture)
	})

	v := NewDOIValidator(http.DefaultClient, types.ValidatorConfig{})
	_, first, err := v.Validate(context.Background(), "10.1038/s41586-023-06004-0", io.Discard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Mutating a returned record must not poison the cache.
	first.Title = "Mutated"
	first.Author[0].Family = "Mutated"

	_, second, err := v.Validate(context.Background(), "10.1038/s41586-023-06004-0", io.Discard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if second.Title != "Example Paper" {
		t.Errorf("cached Title = %q, want Example Paper", second.Title)
	}
	if second.Author[0].Family != "Smith" {
		t.Errorf("cached Author = %q, want Smith", second.Author[0].Family)
	}
}
