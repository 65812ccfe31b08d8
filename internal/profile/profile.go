// Package profile holds the static per-game configuration: where the wiki
// tables live, how their columns are laid out, which site quirks apply and how
// notifications for the game are branded.
package profile

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var embedded []byte

// Code cleaner hook names
const (
	CleanFootnotes   = "footnotes"
	CleanQuickRedeem = "quick_redeem"
)

// Image rewriter hook names
const (
	RewriteThumbnail500 = "thumbnail_500"
)

// Duration format names
const (
	DurationMarkup   = "markup"
	DurationLabelled = "labelled"
)

var (
	knownCleaners  = []string{CleanFootnotes, CleanQuickRedeem}
	knownRewriters = []string{RewriteThumbnail500}
	knownDurations = []string{DurationMarkup, DurationLabelled}
)

// Profile is the configuration of one supported game
type Profile struct {
	ID          string      `yaml:"-"`
	Name        string      `yaml:"name"`
	BotName     string      `yaml:"bot_name"`
	Avatar      string      `yaml:"avatar"`
	CacheFile   string      `yaml:"cache_file"`
	BaseURL     string      `yaml:"base_url"`
	ActivateURL string      `yaml:"activate_url"`
	Codes       CodeSource  `yaml:"codes"`
	Events      EventSource `yaml:"events"`
	Selectors   Selectors   `yaml:"selectors"`
}

// CodeSource describes the promotional code page
type CodeSource struct {
	URL             string      `yaml:"url"`
	Tables          []int       `yaml:"tables"`
	Columns         CodeColumns `yaml:"columns"`
	CodeCleaners    []string    `yaml:"code_cleaners"`
	DurationFormats []string    `yaml:"duration_formats"`
	ExpiredMarker   string      `yaml:"expired_marker"`
}

// CodeColumns maps code record fields to cell positions
type CodeColumns struct {
	Code     int `yaml:"code"`
	Server   int `yaml:"server"`
	Rewards  int `yaml:"rewards"`
	Duration int `yaml:"duration"`
}

// EventSource describes the events page
type EventSource struct {
	URL            string       `yaml:"url"`
	Statuses       []string     `yaml:"statuses"`
	Columns        EventColumns `yaml:"columns"`
	ImageRewriters []string     `yaml:"image_rewriters"`
}

// EventColumns maps event record fields to cell positions
type EventColumns struct {
	Name     int `yaml:"name"`
	Duration int `yaml:"duration"`
	Type     int `yaml:"type"`
}

// Selectors contains CSS selectors shared by both pages
type Selectors struct {
	Table       string `yaml:"table"`
	Row         string `yaml:"row"`
	Code        string `yaml:"code"`
	RewardItem  string `yaml:"reward_item"`
	RewardText  string `yaml:"reward_text"`
	RewardName  string `yaml:"reward_name"`
	RewardImage string `yaml:"reward_image"`
}

var defaultSelectors = Selectors{
	Table:       "table.wikitable",
	Row:         "tbody > tr:not(:first-child)",
	Code:        "code",
	RewardItem:  "span.item",
	RewardText:  "span.item-text",
	RewardName:  "span.item-text a",
	RewardImage: "span.hidden > a > img",
}

// DefaultStatuses is the table order of the wiki event pages
var DefaultStatuses = []string{"Current", "Upcoming", "Permanent"}

// ActivationLink returns the redemption link for code
func (p *Profile) ActivationLink(code string) string {
	return p.ActivateURL + code
}

// HasEvents reports whether an events page is configured
func (p *Profile) HasEvents() bool {
	return p.Events.URL != ""
}

// Profiles indexes profiles by game id
type Profiles map[string]*Profile

// Get returns the profile for id
func (ps Profiles) Get(id string) (*Profile, error) {
	p, ok := ps[id]
	if !ok {
		return nil, fmt.Errorf("unknown game %q (supported: %v)", id, ps.IDs())
	}
	return p, nil
}

// IDs returns the supported game ids in sorted order
func (ps Profiles) IDs() []string {
	ids := make([]string, 0, len(ps))
	for id := range ps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Default returns the embedded profiles
func Default() (Profiles, error) {
	return Parse(embedded)
}

// LoadFile reads profiles from path, or the embedded document when path is empty
func LoadFile(path string) (Profiles, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a profiles document
func Parse(data []byte) (Profiles, error) {
	var ps Profiles
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}
	if len(ps) == 0 {
		return nil, fmt.Errorf("no game profiles defined")
	}

	for id, p := range ps {
		if p == nil {
			return nil, fmt.Errorf("profile %s: empty definition", id)
		}
		p.ID = id
		p.applyDefaults()
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", id, err)
		}
	}
	return ps, nil
}

func (p *Profile) applyDefaults() {
	s := &p.Selectors
	setDefault(&s.Table, defaultSelectors.Table)
	setDefault(&s.Row, defaultSelectors.Row)
	setDefault(&s.Code, defaultSelectors.Code)
	setDefault(&s.RewardItem, defaultSelectors.RewardItem)
	setDefault(&s.RewardText, defaultSelectors.RewardText)
	setDefault(&s.RewardName, defaultSelectors.RewardName)
	setDefault(&s.RewardImage, defaultSelectors.RewardImage)

	if len(p.Codes.Tables) == 0 {
		p.Codes.Tables = []int{0}
	}
	if len(p.Codes.DurationFormats) == 0 {
		p.Codes.DurationFormats = []string{DurationLabelled, DurationMarkup}
	}
	setDefault(&p.Codes.ExpiredMarker, "Expired:")
	if p.HasEvents() && len(p.Events.Statuses) == 0 {
		p.Events.Statuses = slices.Clone(DefaultStatuses)
	}
	if p.CacheFile == "" {
		p.CacheFile = p.ID + "-cache.json"
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (p *Profile) validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("name is required")
	case p.Codes.URL == "":
		return fmt.Errorf("codes.url is required")
	case p.ActivateURL == "":
		return fmt.Errorf("activate_url is required")
	case p.BaseURL == "":
		return fmt.Errorf("base_url is required")
	}

	c := p.Codes.Columns
	for _, idx := range []int{c.Code, c.Server, c.Rewards, c.Duration} {
		if idx < 0 {
			return fmt.Errorf("codes.columns: negative index %d", idx)
		}
	}
	for _, idx := range p.Codes.Tables {
		if idx < 0 {
			return fmt.Errorf("codes.tables: negative index %d", idx)
		}
	}
	e := p.Events.Columns
	for _, idx := range []int{e.Name, e.Duration, e.Type} {
		if idx < 0 {
			return fmt.Errorf("events.columns: negative index %d", idx)
		}
	}

	if err := checkNames("codes.code_cleaners", p.Codes.CodeCleaners, knownCleaners); err != nil {
		return err
	}
	if err := checkNames("codes.duration_formats", p.Codes.DurationFormats, knownDurations); err != nil {
		return err
	}
	if err := checkNames("events.statuses", p.Events.Statuses, DefaultStatuses); err != nil {
		return err
	}
	return checkNames("events.image_rewriters", p.Events.ImageRewriters, knownRewriters)
}

func checkNames(field string, names, known []string) error {
	for _, name := range names {
		if !slices.Contains(known, name) {
			return fmt.Errorf("%s: unknown value %q", field, name)
		}
	}
	return nil
}
