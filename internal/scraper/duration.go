package scraper

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"sjsage522/hoyocodeworker/internal/profile"

	"github.com/PuerkitoBio/goquery"
)

var (
	reLineBreak = regexp.MustCompile(`(?i)<br\s*/?>`)
	reTag       = regexp.MustCompile(`<[^>]*>`)
	reLabelled  = regexp.MustCompile(`Discovered:\s*(.+?)\s*(?:Valid until|Valid|Expired):\s*(.+)`)
	reDiscLabel = regexp.MustCompile(`^Discovered:\s*`)
	reEndLabel  = regexp.MustCompile(`^(?:Valid until|Valid|Expired):\s*`)
)

// ParseMarkupDuration reads the two-line layout where a <br> separates the
// "discovered" line from the "valid" line. Labels are optional. It returns
// nil when the markup does not contain two lines.
func ParseMarkupDuration(markup string) *Duration {
	var lines []string
	for _, part := range reLineBreak.Split(markup, -1) {
		line := collapseSpace(html.UnescapeString(reTag.ReplaceAllString(part, " ")))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil
	}

	discovered := reDiscLabel.ReplaceAllString(lines[0], "")
	end := reEndLabel.ReplaceAllString(lines[1], "")
	return newDuration(discovered, end)
}

// ParseLabelledDuration reads the rendered text layout
// "Discovered: X Valid until: Y" (or "Valid:" / "Expired:"). It returns nil
// when no "Discovered:" label is followed by an end label.
func ParseLabelledDuration(text string) *Duration {
	m := reLabelled.FindStringSubmatch(collapseSpace(text))
	if m == nil {
		return nil
	}
	return newDuration(m[1], m[2])
}

// ParseDuration tries each format in order and returns the first match
func ParseDuration(cell *goquery.Selection, formats []string) (*Duration, error) {
	for _, format := range formats {
		var d *Duration
		switch format {
		case profile.DurationMarkup:
			markup, err := cell.Html()
			if err != nil {
				return nil, fmt.Errorf("failed to render duration cell: %w", err)
			}
			d = ParseMarkupDuration(markup)
		case profile.DurationLabelled:
			d = ParseLabelledDuration(cell.Text())
		default:
			return nil, fmt.Errorf("unknown duration format %q", format)
		}
		if d != nil {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unrecognized duration %q", collapseSpace(cell.Text()))
}

func newDuration(discovered, end string) *Duration {
	d := &Duration{Discovered: strPtr(strings.TrimSpace(discovered))}
	end = strings.TrimSpace(end)
	if !isIndefinite(end) {
		d.ValidUntil = strPtr(end)
	}
	return d
}

// isIndefinite matches the wiki's "never expires" sentinel, e.g. "(Indefinite)"
func isIndefinite(s string) bool {
	return strings.EqualFold(strings.Trim(s, " ()"), "indefinite")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
