// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities API for candidate articles.
// The connector is treated as unreliable: network and parse failures come
// back as *SourceError so the ingestion layer can degrade to zero new
// articles instead of failing the request.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prompt-health/evidence-engine/internal/httputil"
	"github.com/prompt-health/evidence-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSearchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedFetchURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// Source labels attached to fetched candidates.
const (
	SourceStandard    = "PubMed"
	SourceHighQuality = "PubMed (High Quality)"
)

// SourceError wraps any connector failure: network, HTTP status, or
// malformed response. The orchestrator recovers from it locally.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("pubmed: %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Candidate is a fetched article before classification and storage.
// Candidates with a missing title or abstract are unusable for embedding
// and must be skipped by the caller.
type Candidate struct {
	PMID     string
	Title    string
	Abstract string
	Authors  []string
	Year     string
	URL      string
	Source   string
}

// Usable reports whether the candidate carries enough content to embed.
func (c Candidate) Usable() bool {
	return c.PMID != "" && strings.TrimSpace(c.Title) != "" && strings.TrimSpace(c.Abstract) != ""
}

// Limiter paces outbound E-utilities calls. Implementations block in Wait
// until the next call is allowed; the client calls Wait before every
// request. Injected so rate policy stays out of the connector logic.
type Limiter interface {
	Wait(ctx context.Context) error
}

// FixedDelayLimiter waits a fixed delay between consecutive calls.
type FixedDelayLimiter struct {
	Delay time.Duration
	last  time.Time
}

// Wait blocks until Delay has elapsed since the previous call, or the
// context is cancelled.
func (l *FixedDelayLimiter) Wait(ctx context.Context) error {
	if l.Delay <= 0 {
		return ctx.Err()
	}
	if !l.last.IsZero() {
		remaining := l.Delay - time.Since(l.last)
		if remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}
	l.last = time.Now()
	return nil
}

// NopLimiter never waits. Used in tests and one-shot lookups.
type NopLimiter struct{}

func (NopLimiter) Wait(ctx context.Context) error { return ctx.Err() }

// Client queries the PubMed E-utilities API.
type Client struct {
	cfg     types.PubMedConfig
	client  *http.Client
	limiter Limiter
}

// NewClient builds a PubMed client. A nil limiter gets a FixedDelayLimiter
// from cfg.RequestDelay (default 500ms).
func NewClient(cfg types.PubMedConfig, limiter Limiter) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if limiter == nil {
		delay := cfg.RequestDelay
		if delay <= 0 {
			delay = 500 * time.Millisecond
		}
		limiter = &FixedDelayLimiter{Delay: delay}
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

// esearchResponse is the JSON shape of an esearch result.
type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search returns up to maxResults PubMed IDs matching the query term,
// sorted by relevance.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	c.addIdentity(params)

	body, err := c.get(ctx, pubmedSearchURL, params, "search")
	if err != nil {
		return nil, err
	}

	var er esearchResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, &SourceError{Op: "parsing search response", Err: err}
	}
	return er.ESearchResult.IDList, nil
}

// SearchHighQuality returns PubMed IDs restricted to the publication types
// PEDro indexes: systematic reviews, RCTs, meta-analyses, and clinical
// practice guidelines within physiotherapy.
func (c *Client) SearchHighQuality(ctx context.Context, query string, maxResults int) ([]string, error) {
	filtered := fmt.Sprintf(
		"(%s) AND "+
			"(physical therapy[MeSH] OR physiotherapy[tiab] OR rehabilitation[MeSH]) AND "+
			"(systematic review[pt] OR randomized controlled trial[pt] OR "+
			"meta-analysis[pt] OR clinical practice guideline[pt])",
		query)
	return c.Search(ctx, filtered, maxResults)
}

// Fetch retrieves full candidate records for the given PubMed IDs. Articles
// the XML parser cannot make sense of are dropped; partial results are not
// an error.
func (c *Client) Fetch(ctx context.Context, ids []string) ([]Candidate, error) {
	return c.fetch(ctx, ids, SourceStandard)
}

// FetchHighQuality is Fetch with the high-quality source label and a "hq_"
// identifier prefix, keeping filtered ingests distinct in the store.
func (c *Client) FetchHighQuality(ctx context.Context, ids []string) ([]Candidate, error) {
	return c.fetch(ctx, ids, SourceHighQuality)
}

func (c *Client) fetch(ctx context.Context, ids []string, source string) ([]Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
		"rettype": {"abstract"},
	}
	c.addIdentity(params)

	body, err := c.get(ctx, pubmedFetchURL, params, "fetch")
	if err != nil {
		return nil, err
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, &SourceError{Op: "parsing fetch response", Err: err}
	}

	var candidates []Candidate
	for _, a := range set.Articles {
		cand := Candidate{
			PMID:     a.MedlineCitation.PMID,
			Title:    a.MedlineCitation.Article.Title,
			Abstract: strings.Join(a.MedlineCitation.Article.Abstract.Text, " "),
			Year:     a.MedlineCitation.Article.Journal.Issue.PubDate.Year,
			Source:   source,
		}
		for _, au := range a.MedlineCitation.Article.AuthorList.Authors {
			if au.LastName == "" {
				continue
			}
			name := au.LastName
			if au.ForeName != "" {
				name += " " + au.ForeName
			}
			cand.Authors = append(cand.Authors, name)
		}
		if cand.PMID != "" {
			cand.URL = "https://pubmed.ncbi.nlm.nih.gov/" + cand.PMID + "/"
		}
		if source == SourceHighQuality {
			cand.PMID = "hq_" + cand.PMID
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

func (c *Client) get(ctx context.Context, base string, params url.Values, op string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &SourceError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &SourceError{Op: op, Err: err}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return nil, &SourceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceError{Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SourceError{Op: op, Err: err}
	}
	return body, nil
}

// addIdentity attaches the NCBI polite-pool parameters when configured.
func (c *Client) addIdentity(params url.Values) {
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
}

// --- E-utilities XML structures ---

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID    string        `xml:"PMID"`
	Article articleDetail `xml:"Article"`
}

type articleDetail struct {
	Title      string         `xml:"ArticleTitle"`
	Abstract   abstractDetail `xml:"Abstract"`
	AuthorList authorList     `xml:"AuthorList"`
	Journal    journalDetail  `xml:"Journal"`
}

type abstractDetail struct {
	// AbstractText may repeat for structured abstracts (Background,
	// Methods, ...); the sections are joined in document order.
	Text []string `xml:"AbstractText"`
}

type authorList struct {
	Authors []authorDetail `xml:"Author"`
}

type authorDetail struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type journalDetail struct {
	Issue journalIssue `xml:"JournalIssue"`
}

type journalIssue struct {
	PubDate pubDate `xml:"PubDate"`
}

type pubDate struct {
	Year string `xml:"Year"`
}
