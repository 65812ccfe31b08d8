package store

import (
	"context"
	"slices"

	"sjsage522/hoyocodeworker/internal/scraper"
)

// Store persists the codes already seen for each game
type Store interface {
	// Load returns the previously seen codes. A missing cache is not an error.
	Load(ctx context.Context, game string) (*KnownCodes, error)

	// Save replaces the cache of game with codes
	Save(ctx context.Context, game string, codes []string) error

	// Close releases the backend connection
	Close() error
}

// KnownCodes is an insertion-ordered set of codes
type KnownCodes struct {
	codes []string
	index map[string]struct{}

	// Persisted is false when no cache existed for the game
	Persisted bool
}

// NewKnownCodes builds a set from codes, ignoring duplicates and empty strings
func NewKnownCodes(codes []string) *KnownCodes {
	k := &KnownCodes{index: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, ok := k.index[code]; ok {
			continue
		}
		k.index[code] = struct{}{}
		k.codes = append(k.codes, code)
	}
	return k
}

// Contains reports whether code has been seen
func (k *KnownCodes) Contains(code string) bool {
	if k == nil {
		return false
	}
	_, ok := k.index[code]
	return ok
}

// Codes returns the codes in insertion order
func (k *KnownCodes) Codes() []string {
	if k == nil {
		return nil
	}
	return slices.Clone(k.codes)
}

// Len returns the number of codes
func (k *KnownCodes) Len() int {
	if k == nil {
		return 0
	}
	return len(k.codes)
}

// Diff returns the records whose code is not in previous. The page lists the
// newest codes first, so the result is reversed into discovery order.
func Diff(current []scraper.CodeRecord, previous *KnownCodes) []scraper.CodeRecord {
	var fresh []scraper.CodeRecord
	for i := len(current) - 1; i >= 0; i-- {
		if !previous.Contains(current[i].Code) {
			fresh = append(fresh, current[i])
		}
	}
	return fresh
}
