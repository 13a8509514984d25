// Package history merges the wallet transaction log with adjacent sub-ledgers
// (mobile-money statements, payroll loans) into one normalized, queryable
// view.
package history

import (
	"context"
	"sort"
	"time"
)

// Entry is a normalized row in the unified history view.
type Entry struct {
	Type      string
	Reference string
	Amount    int64
	Status    string
	Reason    string
	Date      time.Time
}

// Source supplies entries for one sub-ledger.
type Source interface {
	Entries(ctx context.Context, walletID string) ([]Entry, error)
}

// Page is a 1-indexed window over the merged history.
type Page struct {
	Entries    []Entry
	Total      int
	Page       int
	Limit      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service merges all registered sources into one descending-by-date view.
type Service struct {
	sources []Source
}

// NewService builds a history service over the provided sources.
func NewService(sources ...Source) *Service {
	return &Service{sources: sources}
}

// History collects every source's entries for the wallet, sorts them newest
// first and paginates in memory after the merge.
func (s *Service) History(ctx context.Context, walletID string, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var merged []Entry
	for _, source := range s.sources {
		entries, err := source.Entries(ctx, walletID)
		if err != nil {
			return Page{}, err
		}
		merged = append(merged, entries...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})

	total := len(merged)
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	start := (page - 1) * limit
	var window []Entry
	if start < total {
		end := start + limit
		if end > total {
			end = total
		}
		window = merged[start:end]
	}

	return Page{
		Entries:    window,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && total > 0,
	}, nil
}

// Reason picks the first usable human-readable explanation for an entry,
// falling back through purpose, description, account reference and raw type.
func Reason(purpose, description, accountRef, rawType string) string {
	switch {
	case purpose != "":
		return purpose
	case description != "":
		return description
	case accountRef != "":
		return accountRef
	case rawType != "":
		return rawType
	default:
		return "Unknown"
	}
}
