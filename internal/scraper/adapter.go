package scraper

import (
	"regexp"
	"strings"

	"sjsage522/hoyocodeworker/internal/profile"

	"github.com/PuerkitoBio/goquery"
)

// SiteAdapter hides the per-wiki quirks from the extractors
type SiteAdapter interface {
	// CleanCode removes site decorations from a raw code cell text
	CleanCode(raw string) string

	// RewriteImage adjusts an event image URL
	RewriteImage(url string) string

	// ParseDuration decodes a duration cell
	ParseDuration(cell *goquery.Selection) (*Duration, error)
}

var reQuickRedeem = regexp.MustCompile(`(?i)quick\s*redeem`)

var codeCleaners = map[string]func(string) string{
	profile.CleanFootnotes: func(s string) string {
		if i := strings.Index(s, "["); i >= 0 {
			return s[:i]
		}
		return s
	},
	profile.CleanQuickRedeem: func(s string) string {
		return reQuickRedeem.ReplaceAllString(s, "")
	},
}

var imageRewriters = map[string]func(string) string{
	profile.RewriteThumbnail500: func(s string) string {
		return strings.Replace(s, "scale-to-width-down/250", "scale-to-width-down/500", 1)
	},
}

// profileAdapter applies the hooks named in a profile
type profileAdapter struct {
	cleaners        []func(string) string
	rewriters       []func(string) string
	durationFormats []string
}

// NewSiteAdapter builds the adapter described by p.
// Hook names are validated when the profile is parsed.
func NewSiteAdapter(p *profile.Profile) SiteAdapter {
	a := &profileAdapter{durationFormats: p.Codes.DurationFormats}
	for _, name := range p.Codes.CodeCleaners {
		if fn, ok := codeCleaners[name]; ok {
			a.cleaners = append(a.cleaners, fn)
		}
	}
	for _, name := range p.Events.ImageRewriters {
		if fn, ok := imageRewriters[name]; ok {
			a.rewriters = append(a.rewriters, fn)
		}
	}
	return a
}

func (a *profileAdapter) CleanCode(raw string) string {
	code := raw
	for _, clean := range a.cleaners {
		code = clean(code)
	}
	return strings.TrimSpace(code)
}

func (a *profileAdapter) RewriteImage(url string) string {
	for _, rewrite := range a.rewriters {
		url = rewrite(url)
	}
	return url
}

func (a *profileAdapter) ParseDuration(cell *goquery.Selection) (*Duration, error) {
	return ParseDuration(cell, a.durationFormats)
}
