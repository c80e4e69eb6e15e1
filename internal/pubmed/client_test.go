// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prompt-health/evidence-engine/pkg/types"
)

const fetchXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>12345</PMID>
      <Article>
        <Journal><JournalIssue><PubDate><Year>2022</Year></PubDate></JournalIssue></Journal>
        <ArticleTitle>Eccentric exercise for Achilles tendinopathy: a randomized controlled trial</ArticleTitle>
        <Abstract>
          <AbstractText>Background text.</AbstractText>
          <AbstractText>Methods text.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Alfredson</LastName><ForeName>H</ForeName></Author>
          <Author><LastName>Cook</LastName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>67890</PMID>
      <Article>
        <ArticleTitle>Untitled letter</ArticleTitle>
        <Abstract></Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	origSearch, origFetch := pubmedSearchURL, pubmedFetchURL
	pubmedSearchURL = ts.URL + "/esearch.fcgi"
	pubmedFetchURL = ts.URL + "/efetch.fcgi"
	t.Cleanup(func() {
		pubmedSearchURL, pubmedFetchURL = origSearch, origFetch
	})

	return NewClient(types.PubMedConfig{Email: "pt@example.org"}, NopLimiter{})
}

// --- search ---

func TestSearchReturnsIDs(t *testing.T) {
	var gotQuery url.Values
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"esearchresult": {"idlist": ["111", "222", "333"]}}`)
	})

	ids, err := c.Search(context.Background(), "knee osteoarthritis exercise", 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "111" {
		t.Errorf("ids = %v, want [111 222 333]", ids)
	}
	if gotQuery.Get("db") != "pubmed" {
		t.Errorf("db = %q, want pubmed", gotQuery.Get("db"))
	}
	if gotQuery.Get("retmax") != "8" {
		t.Errorf("retmax = %q, want 8", gotQuery.Get("retmax"))
	}
	if gotQuery.Get("email") != "pt@example.org" {
		t.Errorf("email = %q, want configured email", gotQuery.Get("email"))
	}
}

func TestSearchHighQualityAddsFilters(t *testing.T) {
	var gotTerm string
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotTerm = r.URL.Query().Get("term")
		fmt.Fprint(w, `{"esearchresult": {"idlist": []}}`)
	})

	_, err := c.SearchHighQuality(context.Background(), "rotator cuff rehabilitation", 8)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"rotator cuff rehabilitation",
		"systematic review[pt]",
		"randomized controlled trial[pt]",
		"physiotherapy[tiab]",
	} {
		if !strings.Contains(gotTerm, want) {
			t.Errorf("filtered term missing %q: %s", want, gotTerm)
		}
	}
}

func TestSearchSurfacesHTTPFailure(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), "query", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	var se *SourceError
	if !errors.As(err, &se) {
		t.Errorf("error should be a SourceError, got %T", err)
	}
}

func TestSearchSurfacesMalformedJSON(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "not json")
	})

	_, err := c.Search(context.Background(), "query", 5)
	var se *SourceError
	if !errors.As(err, &se) {
		t.Errorf("error should be a SourceError, got %v", err)
	}
}

// --- fetch ---

func TestFetchParsesArticles(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, fetchXML)
	})

	candidates, err := c.Fetch(context.Background(), []string{"12345", "67890"})
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(candidates))
	}

	first := candidates[0]
	if first.PMID != "12345" {
		t.Errorf("PMID = %q, want 12345", first.PMID)
	}
	if !strings.Contains(first.Title, "Eccentric exercise") {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Abstract != "Background text. Methods text." {
		t.Errorf("Abstract = %q, structured sections should be joined", first.Abstract)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "Alfredson H" || first.Authors[1] != "Cook" {
		t.Errorf("Authors = %v", first.Authors)
	}
	if first.Year != "2022" {
		t.Errorf("Year = %q, want 2022", first.Year)
	}
	if first.URL != "https://pubmed.ncbi.nlm.nih.gov/12345/" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.Source != SourceStandard {
		t.Errorf("Source = %q, want %q", first.Source, SourceStandard)
	}
	if !first.Usable() {
		t.Error("complete candidate should be usable")
	}

	// Second article has no abstract: returned but unusable.
	if candidates[1].Usable() {
		t.Error("abstract-less candidate should not be usable")
	}
}

func TestFetchHighQualityPrefixesIDs(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, fetchXML)
	})

	candidates, err := c.FetchHighQuality(context.Background(), []string{"12345"})
	if err != nil {
		t.Fatal(err)
	}
	if candidates[0].PMID != "hq_12345" {
		t.Errorf("PMID = %q, want hq_12345", candidates[0].PMID)
	}
	if candidates[0].Source != SourceHighQuality {
		t.Errorf("Source = %q, want %q", candidates[0].Source, SourceHighQuality)
	}
}

func TestFetchEmptyIDList(t *testing.T) {
	c := NewClient(types.PubMedConfig{}, NopLimiter{})
	candidates, err := c.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if candidates != nil {
		t.Errorf("candidates = %v, want nil", candidates)
	}
}

// --- limiter ---

func TestFixedDelayLimiterPacesCalls(t *testing.T) {
	l := &FixedDelayLimiter{Delay: 20 * time.Millisecond}
	ctx := context.Background()

	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("second Wait returned after %v, want ~20ms", elapsed)
	}
}

func TestFixedDelayLimiterHonorsCancellation(t *testing.T) {
	l := &FixedDelayLimiter{Delay: time.Minute}
	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.Wait(cancelled); err == nil {
		t.Error("Wait should return the context error after cancellation")
	}
}
