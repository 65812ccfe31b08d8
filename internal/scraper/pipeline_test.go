package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sjsage522/hoyocodeworker/helpers"
	apperrors "sjsage522/hoyocodeworker/pkg/errors"
	"sjsage522/hoyocodeworker/services/cache"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

var _ cache.CacheService = (*MockCacheService)(nil)

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{cache: make(map[string][]byte)}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, errors.New("cache miss")
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

func TestParseCodesGenshin(t *testing.T) {
	p := NewPipeline(testProfile(t, "genshin"), NewTableFetcher(nil, 0))
	result := p.ParseCodes(loadDoc(t, "genshin_codes.html"))

	assert.Equal(t, []string{"GENSHINGIFT", "NEWCODE2023", "OLDCODE"}, result.CodeList())
	// the zero-reward row and the short row
	assert.Equal(t, 2, result.Errors.Len())

	gift := result.Codes[0]
	assert.Equal(t, "All", gift.Server)
	assert.False(t, gift.IsExpired)
	assert.True(t, gift.Duration.Indefinite())
	assert.Equal(t, "2023-01-01", *gift.Duration.Discovered)
	require.Len(t, gift.Rewards, 2)
	assert.Equal(t, "Primogem", gift.Rewards[0].Name)
	assert.Equal(t, 50, gift.Rewards[0].Amount.Value)
	assert.Equal(t, "https://static.wikia.nocookie.net/gensin-impact/images/primogem.png", gift.Rewards[0].ImageURL)
	assert.Equal(t, "Hero's Wit", gift.Rewards[1].Name)

	newCode := result.Codes[1]
	assert.Equal(t, "Europe", newCode.Server)
	assert.Equal(t, "2023-03-01", *newCode.Duration.ValidUntil)
	assert.Equal(t, 10000, newCode.Rewards[0].Amount.Value)

	old := result.Codes[2]
	assert.True(t, old.IsExpired)
	assert.Equal(t, "2022-12-31", *old.Duration.ValidUntil)

	assert.Equal(t, []string{"GENSHINGIFT", "NEWCODE2023"}, (&CodeResult{Codes: result.Active()}).CodeList())
	assert.Equal(t, []string{"OLDCODE"}, (&CodeResult{Codes: result.Expired()}).CodeList())
}

func TestParseCodesHonkai(t *testing.T) {
	p := NewPipeline(testProfile(t, "honkai"), NewTableFetcher(nil, 0))
	result := p.ParseCodes(loadDoc(t, "honkai_codes.html"))

	assert.Equal(t, []string{"STARRAILGIFT", "HSRVER10XEYN"}, result.CodeList())
	require.Equal(t, 1, result.Errors.Len())
	assert.Contains(t, result.Errors.Messages()[0], "BROKENDATE")

	assert.True(t, result.Codes[0].Duration.Indefinite())
	assert.Len(t, result.Codes[0].Rewards, 2)
	assert.True(t, result.Codes[1].IsExpired)
	assert.Equal(t, "2023-05-20", *result.Codes[1].Duration.ValidUntil)
}

func TestParseCodesMissingTable(t *testing.T) {
	prof := *testProfile(t, "genshin")
	prof.Codes.Tables = []int{0, 3}
	p := NewPipeline(&prof, NewTableFetcher(nil, 0))

	result := p.ParseCodes(loadDoc(t, "genshin_codes.html"))
	assert.Len(t, result.Codes, 3)
	assert.Equal(t, 3, result.Errors.Len())
	assert.Contains(t, result.Errors.Summary(0), "code table 3 not found")
}

func TestParseEventsHonkai(t *testing.T) {
	p := NewPipeline(testProfile(t, "honkai"), NewTableFetcher(nil, 0))
	result := p.ParseEvents(loadDoc(t, "honkai_events.html"))

	want := []EventRecord{
		{
			Event:    "Aetherium Wars",
			Image:    "https://static.wikia.nocookie.net/houkai-star-rail/images/aetherium.png/revision/latest/scale-to-width-down/500?cb=1",
			Duration: []string{"2023-05-01", "2023-06-20"},
			Type:     []string{"In-Game", "Combat"},
			Status:   StatusCurrent,
			Page:     "https://honkai-star-rail.fandom.com/wiki/Aetherium_Wars",
		},
		{
			Event:    "Web Event",
			Image:    "https://static.wikia.nocookie.net/houkai-star-rail/images/web.png/revision/latest/scale-to-width-down/500",
			Duration: []string{"2023-06-01", "2023-06-15"},
			Type:     []string{"Web"},
			Status:   StatusUpcoming,
			Page:     "https://www.hoyolab.com/article/1",
		},
		{
			Event:    "Simulated Universe",
			Duration: []string{"Permanent"},
			Type:     []string{"In-Game"},
			Status:   StatusPermanent,
			Page:     "https://honkai-star-rail.fandom.com/wiki/Events",
		},
	}
	if diff := cmp.Diff(want, result.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, result.Errors.Len())

	grouped := result.ByStatus()
	assert.Len(t, grouped[StatusCurrent], 1)
	assert.Len(t, grouped[StatusUpcoming], 1)
	assert.Len(t, grouped[StatusPermanent], 1)
}

func TestParseEventsWithoutRewriter(t *testing.T) {
	p := NewPipeline(testProfile(t, "genshin"), NewTableFetcher(nil, 0))
	result := p.ParseEvents(loadDoc(t, "honkai_events.html"))

	require.NotEmpty(t, result.Events)
	assert.Contains(t, result.Events[0].Image, "scale-to-width-down/250")
	assert.Equal(t, "https://genshin-impact.fandom.com/wiki/Aetherium_Wars", result.Events[0].Page)
}

func TestExtractEventImageInOwnCell(t *testing.T) {
	prof := *testProfile(t, "honkai")
	prof.Events.Columns.Name = 1
	prof.Events.Columns.Duration = 2
	prof.Events.Columns.Type = 3

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<table><tbody><tr>
<td><img data-src="https://static.wikia.nocookie.net/houkai-star-rail/images/thumb.png/revision/latest/scale-to-width-down/250"></td>
<td><a href="/wiki/Gift_of_Odyssey">Gift of Odyssey</a></td>
<td>2023-07-01 – 2023-07-20</td>
<td>Login</td>
</tr></tbody></table>`))
	require.NoError(t, err)

	event, err := NewExtractor(&prof).ExtractEvent(doc.Find("tr").First(), StatusCurrent)
	require.NoError(t, err)
	assert.Equal(t, "Gift of Odyssey", event.Event)
	assert.Equal(t, "https://static.wikia.nocookie.net/houkai-star-rail/images/thumb.png/revision/latest/scale-to-width-down/500", event.Image)
	assert.Equal(t, "https://honkai-star-rail.fandom.com/wiki/Gift_of_Odyssey", event.Page)
}

func TestCodeCleaners(t *testing.T) {
	honkai := NewSiteAdapter(testProfile(t, "honkai"))
	assert.Equal(t, "STARRAILGIFT", honkai.CleanCode(" STARRAILGIFT Quick Redeem "))
	assert.Equal(t, "STARRAILGIFT", honkai.CleanCode("STARRAILGIFT[1]QUICKREDEEM"))

	genshin := NewSiteAdapter(testProfile(t, "genshin"))
	assert.Equal(t, "GENSHINGIFT", genshin.CleanCode("GENSHINGIFT[Note 1]"))
	assert.Equal(t, "https://x/scale-to-width-down/250", genshin.RewriteImage("https://x/scale-to-width-down/250"))
}

func TestResolveURL(t *testing.T) {
	e := NewExtractor(testProfile(t, "genshin"))

	testCases := map[string]string{
		"":                         "https://genshin-impact.fandom.com/wiki/Event",
		"/wiki/Some_Event":         "https://genshin-impact.fandom.com/wiki/Some_Event",
		"//hoyolab.com/article/1":  "https://hoyolab.com/article/1",
		"https://example.com/page": "https://example.com/page",
		"wiki/Relative":            "https://genshin-impact.fandom.com/wiki/Relative",
	}
	for href, want := range testCases {
		assert.Equal(t, want, e.ResolveURL(href), href)
	}
}

func TestFetchCodesOverHTTP(t *testing.T) {
	page, err := os.ReadFile(filepath.Join("testdata", "genshin_codes.html"))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	defer server.Close()

	prof := *testProfile(t, "genshin")
	prof.Codes.URL = server.URL + "/wiki/Promotional_Code"

	result, err := NewPipeline(&prof, NewTableFetcher(nil, 0)).FetchCodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Codes, 3)
}

func TestFetchDocumentNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewTableFetcher(nil, 0).FetchDocument(context.Background(), "genshin", server.URL)
	require.Error(t, err)

	var scrapeErr *apperrors.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, apperrors.ErrorTypeNetwork, scrapeErr.Type)
	assert.True(t, scrapeErr.IsFatal())
}

func TestFetchDocumentRateLimitGuard(t *testing.T) {
	mockCache := NewMockCacheService()
	calls := 0
	fetcher := &TableFetcher{
		Fetch: func(ctx context.Context, url string) (io.Reader, error) {
			calls++
			return nil, fmt.Errorf("%w; retry after 60", helpers.ErrRateLimited)
		},
		CacheSvc:  mockCache,
		BlockTime: time.Minute,
	}

	_, err := fetcher.FetchDocument(context.Background(), "honkai", "https://example.com")
	var scrapeErr *apperrors.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, apperrors.ErrorTypeRateLimit, scrapeErr.Type)
	assert.ErrorIs(t, err, helpers.ErrRateLimited)

	blocked, err := mockCache.Get(rateLimitKey("honkai"))
	require.NoError(t, err)
	assert.Equal(t, "60", string(blocked))

	// blocked requests never reach the network
	_, err = fetcher.FetchDocument(context.Background(), "honkai", "https://example.com")
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, 1, calls)

	// other games are unaffected
	fetcher.Fetch = func(ctx context.Context, url string) (io.Reader, error) {
		return strings.NewReader("<html><body></body></html>"), nil
	}
	_, err = fetcher.FetchDocument(context.Background(), "genshin", "https://example.com")
	assert.NoError(t, err)
}
