package report

import (
	"encoding/json"
	"fmt"

	"sjsage522/hoyocodeworker/internal/scraper"
	"sjsage522/hoyocodeworker/services/store"
)

// Report is the combined output file
type Report struct {
	Events Events `json:"Events"`
	Codes  Codes  `json:"Codes"`
}

// Events groups event records by status
type Events struct {
	Current   []scraper.EventRecord `json:"Current"`
	Upcoming  []scraper.EventRecord `json:"Upcoming"`
	Permanent []scraper.EventRecord `json:"Permanent"`
}

// Codes splits code records by expiry
type Codes struct {
	Active  []scraper.CodeRecord `json:"activeCodes"`
	Expired []scraper.CodeRecord `json:"expiredCodes"`
}

// Build assembles a report. events may be nil when the events page was not scraped.
func Build(codes *scraper.CodeResult, events *scraper.EventResult) *Report {
	r := &Report{
		Events: Events{
			Current:   []scraper.EventRecord{},
			Upcoming:  []scraper.EventRecord{},
			Permanent: []scraper.EventRecord{},
		},
		Codes: Codes{
			Active:  []scraper.CodeRecord{},
			Expired: []scraper.CodeRecord{},
		},
	}
	if codes != nil {
		r.Codes.Active = append(r.Codes.Active, codes.Active()...)
		r.Codes.Expired = append(r.Codes.Expired, codes.Expired()...)
	}
	if events != nil {
		grouped := events.ByStatus()
		r.Events.Current = append(r.Events.Current, grouped[scraper.StatusCurrent]...)
		r.Events.Upcoming = append(r.Events.Upcoming, grouped[scraper.StatusUpcoming]...)
		r.Events.Permanent = append(r.Events.Permanent, grouped[scraper.StatusPermanent]...)
	}
	return r
}

// Write stores r at path, replacing any previous report atomically
func Write(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return store.WriteFileAtomic(path, data)
}
