package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
)

// searchFields is everything the store keeps about a paper.
var searchFields = []string{
	"bibcode", "title", "author", "year", "pub", "abstract",
	"doi", "citation_count", "reference", "keyword",
}

// ADSClient talks to an ADS-style search API. It builds one query shape
// and leaves paging and rate limiting to the service defaults.
type ADSClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewADSClient(cfg config.SourceConfig) (*ADSClient, error) {
	token, err := resolveToken(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &ADSClient{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// resolveToken checks the config value, then ADS_DEV_KEY, then the
// conventional ~/.ads/dev_key file.
func resolveToken(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if token := os.Getenv("ADS_DEV_KEY"); token != "" {
		return token, nil
	}
	home, err := os.UserHomeDir()
	if err == nil {
		data, err := os.ReadFile(filepath.Join(home, ".ads", "dev_key"))
		if err == nil {
			if token := strings.TrimSpace(string(data)); token != "" {
				return token, nil
			}
		}
	}
	return "", fmt.Errorf("no API token: set ADS_DEV_KEY or create ~/.ads/dev_key")
}

func (c *ADSClient) Search(ctx context.Context, query string, limit int) ([]model.Paper, error) {
	return c.query(ctx, query, limit)
}

func (c *ADSClient) GetReferences(ctx context.Context, bibcode string, limit int) ([]model.Paper, error) {
	return c.query(ctx, fmt.Sprintf("references(bibcode:%s)", bibcode), limit)
}

func (c *ADSClient) GetCiting(ctx context.Context, bibcode string, limit int) ([]model.Paper, error) {
	return c.query(ctx, fmt.Sprintf("citations(bibcode:%s)", bibcode), limit)
}

func (c *ADSClient) GetAbstract(ctx context.Context, bibcode string) (*model.Paper, error) {
	papers, err := c.query(ctx, "bibcode:"+bibcode, 1)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("paper %s: %w", bibcode, model.ErrNotFound)
	}
	return &papers[0], nil
}

type adsDoc struct {
	Bibcode       string   `json:"bibcode"`
	Title         []string `json:"title"`
	Author        []string `json:"author"`
	Year          string   `json:"year"`
	Pub           string   `json:"pub"`
	Abstract      string   `json:"abstract"`
	DOI           []string `json:"doi"`
	CitationCount int      `json:"citation_count"`
	Reference     []string `json:"reference"`
	Keyword       []string `json:"keyword"`
}

type adsResponse struct {
	Response struct {
		Docs []adsDoc `json:"docs"`
	} `json:"response"`
}

func (c *ADSClient) query(ctx context.Context, q string, limit int) ([]model.Paper, error) {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("fl", strings.Join(searchFields, ","))
	params.Set("rows", strconv.Itoa(limit))
	params.Set("sort", "citation_count desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/search/query?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrExternalFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: search returned %d: %s",
			model.ErrExternalFetch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed adsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", model.ErrExternalFetch, err)
	}

	papers := make([]model.Paper, 0, len(parsed.Response.Docs))
	for _, doc := range parsed.Response.Docs {
		papers = append(papers, doc.toPaper())
	}
	return papers, nil
}

func (d adsDoc) toPaper() model.Paper {
	p := model.Paper{
		Bibcode:        d.Bibcode,
		Authors:        d.Author,
		Publication:    d.Pub,
		Abstract:       d.Abstract,
		CitationCount:  d.CitationCount,
		ReferenceCount: len(d.Reference),
		Keywords:       d.Keyword,
		FetchedAt:      time.Now().UTC(),
	}
	if len(d.Title) > 0 {
		p.Title = d.Title[0]
	}
	if len(d.DOI) > 0 {
		p.DOI = d.DOI[0]
	}
	if year, err := strconv.Atoi(d.Year); err == nil {
		p.Year = year
	}
	if p.Bibcode != "" {
		p.URL = "https://ui.adsabs.harvard.edu/abs/" + url.PathEscape(p.Bibcode) + "/abstract"
	}
	return p
}
