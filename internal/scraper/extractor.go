package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"sjsage522/hoyocodeworker/internal/profile"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns table rows into records for one game
type Extractor struct {
	profile *profile.Profile
	adapter SiteAdapter
}

// NewExtractor creates an extractor for p
func NewExtractor(p *profile.Profile) *Extractor {
	return &Extractor{profile: p, adapter: NewSiteAdapter(p)}
}

// cells returns the th/td children of a row
func cells(row *goquery.Selection) *goquery.Selection {
	return row.ChildrenFiltered("th, td")
}

// ExtractCode decodes one row of a code table. Rows without rewards or with an
// unrecognized duration are rejected.
func (e *Extractor) ExtractCode(row *goquery.Selection) (*CodeRecord, error) {
	cols := e.profile.Codes.Columns
	cs := cells(row)
	need := max(cols.Code, cols.Server, cols.Rewards, cols.Duration) + 1
	if cs.Length() < need {
		return nil, fmt.Errorf("row has %d cells, need %d", cs.Length(), need)
	}

	codeCell := cs.Eq(cols.Code)
	raw := codeCell.Text()
	if el := codeCell.Find(e.profile.Selectors.Code).First(); el.Length() > 0 {
		raw = el.Text()
	}
	code := e.adapter.CleanCode(raw)
	if code == "" {
		return nil, fmt.Errorf("empty code cell")
	}

	rewards := ParseRewards(cs.Eq(cols.Rewards), e.profile.Selectors)
	if len(rewards) == 0 {
		return nil, fmt.Errorf("code %s has no rewards", code)
	}

	durationCell := cs.Eq(cols.Duration)
	duration, err := e.adapter.ParseDuration(durationCell)
	if err != nil {
		return nil, fmt.Errorf("code %s: %w", code, err)
	}

	return &CodeRecord{
		Code:      code,
		Server:    collapseSpace(cs.Eq(cols.Server).Text()),
		Rewards:   rewards,
		Duration:  *duration,
		IsExpired: strings.Contains(durationCell.Text(), e.profile.Codes.ExpiredMarker),
	}, nil
}

// ExtractEvent decodes one row of an event table
func (e *Extractor) ExtractEvent(row *goquery.Selection, status Status) (*EventRecord, error) {
	cols := e.profile.Events.Columns
	cs := cells(row)
	need := max(cols.Name, cols.Duration, cols.Type) + 1
	if cs.Length() < need {
		return nil, fmt.Errorf("row has %d cells, need %d", cs.Length(), need)
	}

	nameCell := cs.Eq(cols.Name)
	name := collapseSpace(nameCell.Text())
	if name == "" {
		return nil, fmt.Errorf("empty event name")
	}

	image := lazyImageSource(row.Find("img").First())
	if image != "" {
		image = e.adapter.RewriteImage(image)
	}

	href, _ := nameCell.Find("a[href]").First().Attr("href")

	return &EventRecord{
		Event:    name,
		Image:    image,
		Duration: splitTrim(cs.Eq(cols.Duration).Text(), "–"),
		Type:     splitTrim(cs.Eq(cols.Type).Text(), ","),
		Status:   status,
		Page:     e.ResolveURL(href),
	}, nil
}

// ResolveURL makes a wiki link absolute. An empty link resolves to the events page.
func (e *Extractor) ResolveURL(href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return e.profile.Events.URL
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimSuffix(e.profile.BaseURL, "/") + href
	}

	u, err := url.Parse(href)
	if err != nil || u.IsAbs() {
		return href
	}
	base, err := url.Parse(e.profile.BaseURL + "/")
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}

// splitTrim splits s on sep, collapsing whitespace and dropping empty parts
func splitTrim(s, sep string) []string {
	parts := []string{}
	for _, p := range strings.Split(s, sep) {
		if p = collapseSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
