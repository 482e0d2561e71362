package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
)

const sampleDocs = `{
	"response": {
		"docs": [
			{
				"bibcode": "2023ApJ...100..200X",
				"title": ["A Decaying Dark Matter Candidate"],
				"author": ["Vex, A.", "Ondrel, B."],
				"year": "2023",
				"pub": "The Astrophysical Journal",
				"abstract": "We report a 3.5 keV line.",
				"doi": ["10.0000/example"],
				"citation_count": 42,
				"reference": ["2010ApJ....1....1A", "2011ApJ....2....2B"],
				"keyword": ["dark matter", "X-rays"]
			}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *ADSClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewADSClient(config.SourceConfig{BaseURL: srv.URL, Token: "sekrit"})
	require.NoError(t, err)
	return client
}

func TestSearchBuildsAuthorizedQuery(t *testing.T) {
	var gotAuth, gotQuery, gotRows, gotSort string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		gotRows = r.URL.Query().Get("rows")
		gotSort = r.URL.Query().Get("sort")
		assert.Equal(t, "/search/query", r.URL.Path)
		fmt.Fprint(w, sampleDocs)
	})

	papers, err := client.Search(context.Background(), "3.5 keV line", 5)
	require.NoError(t, err)
	require.Len(t, papers, 1)

	assert.Equal(t, "Bearer sekrit", gotAuth)
	assert.Equal(t, "3.5 keV line", gotQuery)
	assert.Equal(t, "5", gotRows)
	assert.Equal(t, "citation_count desc", gotSort)

	p := papers[0]
	assert.Equal(t, "2023ApJ...100..200X", p.Bibcode)
	assert.Equal(t, "A Decaying Dark Matter Candidate", p.Title)
	assert.Equal(t, 2023, p.Year)
	assert.Equal(t, "10.0000/example", p.DOI)
	assert.Equal(t, 42, p.CitationCount)
	assert.Equal(t, 2, p.ReferenceCount, "reference count comes from the list length")
	assert.Contains(t, p.URL, "ui.adsabs.harvard.edu/abs/")
	assert.False(t, p.FetchedAt.IsZero())
}

func TestReferenceAndCitingQueries(t *testing.T) {
	var queries []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"response":{"docs":[]}}`)
	})
	ctx := context.Background()

	_, err := client.GetReferences(ctx, "2023ApJ...100..200X", 10)
	require.NoError(t, err)
	_, err = client.GetCiting(ctx, "2023ApJ...100..200X", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"references(bibcode:2023ApJ...100..200X)",
		"citations(bibcode:2023ApJ...100..200X)",
	}, queries)
}

func TestGetAbstractNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"docs":[]}}`)
	})
	_, err := client.GetAbstract(context.Background(), "1999MNRAS.000..000Z")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestQueryReportsServerErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	})
	_, err := client.Search(context.Background(), "anything", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrExternalFetch)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestNewADSClientRequiresToken(t *testing.T) {
	t.Setenv("ADS_DEV_KEY", "")
	t.Setenv("HOME", t.TempDir())
	_, err := NewADSClient(config.SourceConfig{BaseURL: "https://example.org"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADS_DEV_KEY")
}

func TestTokenFromEnvironment(t *testing.T) {
	t.Setenv("ADS_DEV_KEY", "from-env")
	token, err := resolveToken("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	token, err = resolveToken("from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", token, "explicit config wins over the environment")
}

// flakySource fails a fixed number of times before succeeding.
type flakySource struct {
	mu       sync.Mutex
	failures int
	calls    int
	err      error
}

func (f *flakySource) attempt() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return f.err
		}
		return fmt.Errorf("%w: transient", model.ErrExternalFetch)
	}
	return nil
}

func (f *flakySource) Search(ctx context.Context, query string, limit int) ([]model.Paper, error) {
	if err := f.attempt(); err != nil {
		return nil, err
	}
	return []model.Paper{{Bibcode: "OK"}}, nil
}

func (f *flakySource) GetReferences(ctx context.Context, bibcode string, limit int) ([]model.Paper, error) {
	return f.Search(ctx, "", limit)
}

func (f *flakySource) GetCiting(ctx context.Context, bibcode string, limit int) ([]model.Paper, error) {
	return f.Search(ctx, "", limit)
}

func (f *flakySource) GetAbstract(ctx context.Context, bibcode string) (*model.Paper, error) {
	if err := f.attempt(); err != nil {
		return nil, err
	}
	return &model.Paper{Bibcode: bibcode}, nil
}

func TestRetryEventuallySucceeds(t *testing.T) {
	src := &flakySource{failures: 2}
	r := WithRetries(src, 3)
	r.Base = time.Millisecond

	papers, err := r.Search(context.Background(), "q", 1)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, 3, src.calls)
}

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	src := &flakySource{failures: 10}
	r := WithRetries(src, 3)
	r.Base = time.Millisecond

	_, err := r.Search(context.Background(), "q", 1)
	assert.ErrorIs(t, err, model.ErrExternalFetch)
	assert.Equal(t, 3, src.calls)
}

func TestRetryNeverRepeatsNotFound(t *testing.T) {
	src := &flakySource{failures: 10, err: fmt.Errorf("gone: %w", model.ErrNotFound)}
	r := WithRetries(src, 5)
	r.Base = time.Millisecond

	_, err := r.GetAbstract(context.Background(), "X")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 1, src.calls)
}

func TestRetryStopsOnCancel(t *testing.T) {
	src := &flakySource{failures: 10}
	r := WithRetries(src, 5)
	r.Base = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Search(ctx, "q", 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, src.calls, "cancellation preempts the backoff sleep")
}
