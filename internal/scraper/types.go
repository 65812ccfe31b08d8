package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "sjsage522/hoyocodeworker/pkg/errors"
)

// Amount is the quantity of a reward. Wiki cells usually hold a number, but
// anything that does not parse is kept verbatim.
type Amount struct {
	Value   int
	Raw     string
	Numeric bool
}

// ParseAmount canonicalises quantity text, dropping thousands separators
func ParseAmount(raw string) Amount {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", "")); err == nil {
		return Amount{Value: n, Raw: raw, Numeric: true}
	}
	return Amount{Raw: raw}
}

// String returns the amount as displayed in notifications
func (a Amount) String() string {
	if a.Numeric {
		return strconv.Itoa(a.Value)
	}
	return a.Raw
}

// MarshalJSON emits a number when the amount is numeric and a string otherwise
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Numeric {
		return json.Marshal(a.Value)
	}
	return json.Marshal(a.Raw)
}

// UnmarshalJSON accepts either representation
func (a *Amount) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Amount{Value: n, Raw: strconv.Itoa(n), Numeric: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("amount must be a number or a string: %w", err)
	}
	*a = ParseAmount(s)
	return nil
}

// Reward is one item of a code's prize list
type Reward struct {
	Name     string `json:"name"`
	Amount   Amount `json:"amount"`
	ImageURL string `json:"imageURL"`
}

// Duration is the validity window of a code. A nil ValidUntil means the code
// does not expire.
type Duration struct {
	Discovered *string `json:"discovered"`
	ValidUntil *string `json:"validUntil"`
}

const indefiniteText = "(Indefinite)"

// Indefinite reports whether the code never expires
func (d Duration) Indefinite() bool {
	return d.ValidUntil == nil
}

// Pair returns the positional [discovered, validUntil] form
func (d Duration) Pair() []string {
	end := "Indefinite"
	if d.ValidUntil != nil {
		end = *d.ValidUntil
	}
	return []string{deref(d.Discovered), end}
}

// Lines renders the duration as labelled lines
func (d Duration) Lines() []string {
	valid := "Valid: " + indefiniteText
	if d.ValidUntil != nil {
		valid = "Valid until: " + *d.ValidUntil
	}
	return []string{"Discovered: " + deref(d.Discovered), valid}
}

// String renders the labelled text format accepted by ParseLabelledDuration
func (d Duration) String() string {
	return strings.Join(d.Lines(), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}

// CodeRecord is one row of a promotional code table
type CodeRecord struct {
	Code      string   `json:"code"`
	Server    string   `json:"server"`
	Rewards   []Reward `json:"rewards"`
	Duration  Duration `json:"duration"`
	IsExpired bool     `json:"isExpired"`
}

// Status of an event, derived from the table it was listed in
type Status string

const (
	StatusCurrent   Status = "Current"
	StatusUpcoming  Status = "Upcoming"
	StatusPermanent Status = "Permanent"
)

// EventRecord is one row of an event table
type EventRecord struct {
	Event    string   `json:"event"`
	Image    string   `json:"image"`
	Duration []string `json:"duration"`
	Type     []string `json:"type"`
	Status   Status   `json:"status"`
	Page     string   `json:"page"`
}

// CodeResult is the outcome of scraping a code page. Errors holds the rows
// that were skipped.
type CodeResult struct {
	Codes  []CodeRecord
	Errors apperrors.Log
}

// CodeList returns the codes in page order
func (r *CodeResult) CodeList() []string {
	codes := make([]string, 0, len(r.Codes))
	for _, c := range r.Codes {
		codes = append(codes, c.Code)
	}
	return codes
}

// Active returns the codes that are not expired
func (r *CodeResult) Active() []CodeRecord {
	var active []CodeRecord
	for _, c := range r.Codes {
		if !c.IsExpired {
			active = append(active, c)
		}
	}
	return active
}

// Expired returns the expired codes
func (r *CodeResult) Expired() []CodeRecord {
	var expired []CodeRecord
	for _, c := range r.Codes {
		if c.IsExpired {
			expired = append(expired, c)
		}
	}
	return expired
}

// EventResult is the outcome of scraping an events page
type EventResult struct {
	Events []EventRecord
	Errors apperrors.Log
}

// ByStatus groups the events by status, keeping page order
func (r *EventResult) ByStatus() map[Status][]EventRecord {
	grouped := map[Status][]EventRecord{
		StatusCurrent:   {},
		StatusUpcoming:  {},
		StatusPermanent: {},
	}
	for _, e := range r.Events {
		grouped[e.Status] = append(grouped[e.Status], e)
	}
	return grouped
}
