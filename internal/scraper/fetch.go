package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"sjsage522/hoyocodeworker/helpers"
	"sjsage522/hoyocodeworker/internal/profile"
	"sjsage522/hoyocodeworker/logger"
	apperrors "sjsage522/hoyocodeworker/pkg/errors"
	"sjsage522/hoyocodeworker/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher retrieves a page body as UTF-8
type PageFetcher func(ctx context.Context, url string) (io.Reader, error)

// TableFetcher downloads wiki pages and locates their data tables
type TableFetcher struct {
	Fetch     PageFetcher
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// NewTableFetcher creates a fetcher using the shared HTTP client.
// cacheSvc may be nil, which disables the rate-limit guard.
func NewTableFetcher(cacheSvc cache.CacheService, blockTime time.Duration) *TableFetcher {
	return &TableFetcher{
		Fetch:     helpers.FetchWithRandomHeaders,
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
	}
}

func rateLimitKey(game string) string {
	return "hoyocodes:rate_limited:" + game
}

// FetchDocument downloads url and parses it. Any failure is fatal for the run.
func (f *TableFetcher) FetchDocument(ctx context.Context, game, url string) (*goquery.Document, error) {
	key := rateLimitKey(game)
	if f.CacheSvc != nil {
		if _, err := f.CacheSvc.Get(key); err == nil {
			return nil, apperrors.NewRateLimit(game, f.BlockTime)
		}
	}

	fetch := f.Fetch
	if fetch == nil {
		fetch = helpers.FetchWithRandomHeaders
	}

	body, err := fetch(ctx, url)
	if err != nil {
		if errors.Is(err, helpers.ErrRateLimited) {
			if f.CacheSvc != nil && f.BlockTime > 0 {
				seconds := strconv.Itoa(int(f.BlockTime / time.Second))
				if cerr := f.CacheSvc.Set(key, []byte(seconds), f.BlockTime); cerr != nil {
					logger.ForGame(game).Warn().Err(cerr).Msg("failed to set rate limit block")
				}
			}
			scrapeErr := apperrors.NewRateLimit(game, f.BlockTime)
			scrapeErr.Err = err
			return nil, scrapeErr
		}
		return nil, apperrors.NewNetwork(game, "failed to fetch "+url, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperrors.NewNetwork(game, "failed to parse HTML of "+url, err)
	}
	return doc, nil
}

// TablesFromDocument returns the data tables of doc in page order
func TablesFromDocument(doc *goquery.Document, sel profile.Selectors) []*goquery.Selection {
	var tables []*goquery.Selection
	doc.Find(sel.Table).Each(func(_ int, s *goquery.Selection) {
		tables = append(tables, s)
	})
	return tables
}

// Rows returns the body rows of table, excluding its header row
func Rows(table *goquery.Selection, sel profile.Selectors) []*goquery.Selection {
	var rows []*goquery.Selection
	table.Find(sel.Row).Each(func(_ int, s *goquery.Selection) {
		rows = append(rows, s)
	})
	return rows
}

func describeRow(table, row int) string {
	return fmt.Sprintf("table %d row %d", table, row+1)
}
