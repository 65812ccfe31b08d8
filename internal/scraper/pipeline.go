package scraper

import (
	"context"

	"sjsage522/hoyocodeworker/internal/profile"
	"sjsage522/hoyocodeworker/logger"
	apperrors "sjsage522/hoyocodeworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// Pipeline scrapes the code and event pages of one game
type Pipeline struct {
	profile   *profile.Profile
	fetcher   *TableFetcher
	extractor *Extractor
	log       *logger.Logger
}

// NewPipeline creates a pipeline for p
func NewPipeline(p *profile.Profile, fetcher *TableFetcher) *Pipeline {
	return &Pipeline{
		profile:   p,
		fetcher:   fetcher,
		extractor: NewExtractor(p),
		log:       logger.ForGame(p.ID),
	}
}

// FetchCodes downloads the code page and extracts its records.
// The returned error is a fatal *apperrors.ScrapeError.
func (p *Pipeline) FetchCodes(ctx context.Context) (*CodeResult, error) {
	doc, err := p.fetcher.FetchDocument(ctx, p.profile.ID, p.profile.Codes.URL)
	if err != nil {
		return nil, err
	}
	result := p.ParseCodes(doc)
	p.log.Info().
		Int("codes", len(result.Codes)).
		Int("skipped", result.Errors.Len()).
		Msg("parsed code tables")
	return result, nil
}

// FetchEvents downloads the events page and extracts its records
func (p *Pipeline) FetchEvents(ctx context.Context) (*EventResult, error) {
	if !p.profile.HasEvents() {
		return &EventResult{}, nil
	}
	doc, err := p.fetcher.FetchDocument(ctx, p.profile.ID, p.profile.Events.URL)
	if err != nil {
		return nil, err
	}
	result := p.ParseEvents(doc)
	p.log.Info().
		Int("events", len(result.Events)).
		Int("skipped", result.Errors.Len()).
		Msg("parsed event tables")
	return result, nil
}

// ParseCodes extracts code records from the configured tables of doc.
// Rows are kept in page order and a code seen twice keeps its first row.
func (p *Pipeline) ParseCodes(doc *goquery.Document) *CodeResult {
	game := p.profile.ID
	result := &CodeResult{}
	tables := TablesFromDocument(doc, p.profile.Selectors)
	seen := make(map[string]struct{})

	for _, ti := range p.profile.Codes.Tables {
		if ti >= len(tables) {
			result.Errors.Addf(game, "code table %d not found (page has %d tables)", ti, len(tables))
			continue
		}
		for ri, row := range Rows(tables[ti], p.profile.Selectors) {
			record, err := p.extractor.ExtractCode(row)
			if err != nil {
				result.Errors.Add(apperrors.NewParsing(game, describeRow(ti, ri), err))
				continue
			}
			if _, dup := seen[record.Code]; dup {
				p.log.Debug().Str("code", record.Code).Msg("duplicate code row ignored")
				continue
			}
			seen[record.Code] = struct{}{}
			result.Codes = append(result.Codes, *record)
		}
	}
	return result
}

// ParseEvents extracts event records. The status of a row is the status
// configured for the position of its table on the page.
func (p *Pipeline) ParseEvents(doc *goquery.Document) *EventResult {
	game := p.profile.ID
	result := &EventResult{}
	tables := TablesFromDocument(doc, p.profile.Selectors)

	for ti, status := range p.profile.Events.Statuses {
		if ti >= len(tables) {
			result.Errors.Addf(game, "event table %d (%s) not found", ti, status)
			continue
		}
		for ri, row := range Rows(tables[ti], p.profile.Selectors) {
			record, err := p.extractor.ExtractEvent(row, Status(status))
			if err != nil {
				result.Errors.Add(apperrors.NewParsing(game, describeRow(ti, ri), err))
				continue
			}
			result.Events = append(result.Events, *record)
		}
	}
	return result
}
