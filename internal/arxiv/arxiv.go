// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv fetches paper metadata, full text, and PDFs from the
// arXiv API. Papers are identified by the numeric arXiv ID with any
// version suffix stripped, so "2301.07041v2" and "2301.07041" name the
// same paper and share one cached PDF.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/report-engine/internal/httputil"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Declared as vars so tests can substitute httptest servers.
var (
	arxivAPIBase = "https://export.arxiv.org/api/query"
	arxivPDFBase = "https://arxiv.org/pdf/"
)

const (
	rawDirName             = "raw"
	defaultPapersDir       = "papers"
	defaultRequestInterval = 3 * time.Second
)

var (
	idPattern  = regexp.MustCompile(`(\d{4}\.\d{4,5})(v\d+)?`)
	refPattern = regexp.MustCompile(`https?://arxiv\.org/abs/\d{4}\.\d{4,5}(?:v\d+)?`)
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// ErrNoPaper reports that a fetch matched no paper.
var ErrNoPaper = errors.New("no paper found")

// InvalidURLError reports a URL or identifier with no recognizable
// arXiv ID in it.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("no arXiv ID found in %q", e.URL)
}

// ParseID extracts the arXiv ID from a URL or bare identifier,
// stripping any version suffix.
func ParseID(rawURL string) (string, error) {
	m := idPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", &InvalidURLError{URL: rawURL}
	}
	return m[1], nil
}

// ParseReferences returns the arXiv abstract URLs cited in text, in
// order of first appearance. Exact duplicate URLs are dropped; two
// citations that differ only in version suffix are kept as distinct
// strings and collapse later at the ID level.
func ParseReferences(text string) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, m := range refPattern.FindAllString(text, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		refs = append(refs, m)
	}
	return refs
}

// Client talks to the arXiv API and PDF mirror. API queries are spaced
// by a rate limiter per the arXiv usage policy; PDF downloads are not
// limited because the mirror is served from a CDN.
type Client struct {
	http    *http.Client
	cfg     types.ArxivConfig
	limiter *rate.Limiter
	logger  *zap.Logger

	// extractText is swapped in tests to avoid real PDF fixtures.
	extractText func(path string) (string, error)
}

// NewClient creates a Client with config defaults applied. A nil logger
// disables logging.
func NewClient(cfg types.ArxivConfig, logger *zap.Logger) *Client {
	if cfg.PapersDir == "" {
		cfg.PapersDir = defaultPapersDir
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = defaultRequestInterval
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		cfg:         cfg,
		limiter:     rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		logger:      logger,
		extractText: pdfText,
	}
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// queryFeed performs one rate-limited arXiv API call.
func (c *Client) queryFeed(ctx context.Context, params url.Values) (*arxivFeed, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for arXiv rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &feed, nil
}

// FetchByURL fetches the papers named by urls, each with full extracted
// text. IDs repeated across urls are fetched once. When withRefs is
// true, every arXiv URL cited in a paper's text is fetched one level
// deep and attached as references.
func (c *Client) FetchByURL(ctx context.Context, urls []string, withRefs bool) ([]*types.Paper, error) {
	ids := make([]string, 0, len(urls))
	seen := make(map[string]bool)
	for _, u := range urls {
		id, err := ParseID(u)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	feed, err := c.queryFeed(ctx, url.Values{"id_list": {strings.Join(ids, ",")}})
	if err != nil {
		return nil, err
	}

	papers := make([]*types.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		paper, err := c.paperFromEntry(ctx, entry)
		if err != nil {
			return nil, err
		}
		papers = append(papers, paper)
	}

	if withRefs {
		for _, paper := range papers {
			if err := c.attachReferences(ctx, paper); err != nil {
				return nil, err
			}
		}
	}
	return papers, nil
}

// FetchOne fetches a single paper by URL. It returns ErrNoPaper when
// the API has no entry for the URL's ID.
func (c *Client) FetchOne(ctx context.Context, rawURL string, withRefs bool) (*types.Paper, error) {
	papers, err := c.FetchByURL(ctx, []string{rawURL}, withRefs)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("%w for URL %q", ErrNoPaper, rawURL)
	}
	if len(papers) > 1 {
		c.logger.Warn("multiple papers matched, using the first",
			zap.String("url", rawURL),
			zap.Int("count", len(papers)))
	}
	return papers[0], nil
}

// FetchByQuery fetches papers by exact title. Each query is sent as a
// search with up to MaxResults candidates; candidates whose title does
// not match the query case-insensitively are discarded, so a query that
// matches nothing contributes no paper and no error.
func (c *Client) FetchByQuery(ctx context.Context, queries []string, withRefs bool) ([]*types.Paper, error) {
	var papers []*types.Paper
	for _, query := range queries {
		feed, err := c.queryFeed(ctx, url.Values{
			"search_query": {query},
			"max_results":  {strconv.Itoa(c.cfg.MaxResults)},
		})
		if err != nil {
			return nil, err
		}
		for _, entry := range feed.Entries {
			if !strings.EqualFold(strings.TrimSpace(entry.Title), strings.TrimSpace(query)) {
				c.logger.Debug("discarding search result with mismatched title",
					zap.String("query", query),
					zap.String("title", strings.TrimSpace(entry.Title)))
				continue
			}
			paper, err := c.paperFromEntry(ctx, entry)
			if err != nil {
				return nil, err
			}
			papers = append(papers, paper)
		}
	}

	if withRefs {
		for _, paper := range papers {
			if err := c.attachReferences(ctx, paper); err != nil {
				return nil, err
			}
		}
	}
	return papers, nil
}

// Download saves the PDFs for urls into saveDir, named after the paper
// title with non-word runs collapsed to underscores.
func (c *Client) Download(ctx context.Context, urls []string, saveDir string) error {
	ids := make([]string, 0, len(urls))
	seen := make(map[string]bool)
	for _, u := range urls {
		id, err := ParseID(u)
		if err != nil {
			return err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", saveDir, err)
	}

	feed, err := c.queryFeed(ctx, url.Values{"id_list": {strings.Join(ids, ",")}})
	if err != nil {
		return err
	}

	for _, entry := range feed.Entries {
		id, err := ParseID(entry.ID)
		if err != nil {
			return err
		}
		title := strings.TrimSpace(entry.Title)
		filename := nonWord.ReplaceAllString(title, "_") + ".pdf"
		destPath := filepath.Join(saveDir, filename)
		if err := c.downloadFile(ctx, arxivPDFBase+id, destPath); err != nil {
			return fmt.Errorf("downloading %q: %w", title, err)
		}
		c.logger.Info("downloaded paper PDF",
			zap.String("title", title),
			zap.String("path", destPath))
	}
	return nil
}

// FetchPDF ensures the PDF for an arXiv ID is present in the papers
// cache and returns its local path. An already-cached PDF is not
// re-downloaded.
func (c *Client) FetchPDF(ctx context.Context, id string) (string, error) {
	dir := filepath.Join(c.cfg.PapersDir, rawDirName)
	destPath := filepath.Join(dir, id+".pdf")
	if _, err := os.Stat(destPath); err == nil {
		c.logger.Debug("PDF already cached", zap.String("path", destPath))
		return destPath, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := c.downloadFile(ctx, arxivPDFBase+id, destPath); err != nil {
		return "", fmt.Errorf("downloading %s: %w", id, err)
	}
	return destPath, nil
}

// paperFromEntry turns one feed entry into a Paper with full text,
// downloading the PDF if it is not cached.
func (c *Client) paperFromEntry(ctx context.Context, entry arxivEntry) (*types.Paper, error) {
	entryURL := strings.TrimSpace(entry.ID)
	id, err := ParseID(entryURL)
	if err != nil {
		return nil, err
	}

	pdfPath, err := c.FetchPDF(ctx, id)
	if err != nil {
		return nil, err
	}
	text, err := c.extractText(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("extracting text of %s: %w", id, err)
	}

	paper := &types.Paper{
		Title: strings.TrimSpace(entry.Title),
		Text:  text,
		URL:   entryURL,
	}
	for _, a := range entry.Authors {
		paper.Authors = append(paper.Authors, strings.TrimSpace(a.Name))
	}
	if t, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published)); parseErr == nil {
		paper.Published = t
	}
	return paper, nil
}

// attachReferences fetches the papers cited in paper's text, one level
// deep, and attaches them.
func (c *Client) attachReferences(ctx context.Context, paper *types.Paper) error {
	refURLs := ParseReferences(paper.Text)
	if len(refURLs) == 0 {
		return nil
	}
	c.logger.Info("fetching referenced papers",
		zap.String("paper", paper.Title),
		zap.Int("count", len(refURLs)))

	refs, err := c.FetchByURL(ctx, refURLs, false)
	if err != nil {
		return fmt.Errorf("fetching references of %q: %w", paper.Title, err)
	}
	paper.References = refs
	return nil
}

// downloadFile fetches url to destPath using a temporary file so a
// failed download never leaves a partial PDF in the cache.
func (c *Client) downloadFile(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".arxiv-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
