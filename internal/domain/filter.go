package domain

import (
	"time"
)

// Pagination defaults and limits.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// DateRange selects a publication date window.
type DateRange string

// Supported date ranges.
const (
	DateRangeDay    DateRange = "24h"
	DateRangeWeek   DateRange = "7d"
	DateRangeMonth  DateRange = "1m"
	DateRangeCustom DateRange = "custom"
)

// SortBy selects the ordering of a result set.
type SortBy string

// Supported sort orders. SortRelevance keeps insertion order.
const (
	SortRelevance SortBy = "relevance"
	SortCitations SortBy = "citations"
	SortDateDesc  SortBy = "date_desc"
	SortDateAsc   SortBy = "date_asc"
)

// SearchFilter is the search contract shared by source adapters and the store.
type SearchFilter struct {
	Query           string     `json:"query,omitempty"`
	Platform        string     `json:"platform,omitempty"`
	Domain          string     `json:"domain,omitempty"`
	Author          string     `json:"author,omitempty"`
	Journal         string     `json:"journal,omitempty"`
	DateRange       DateRange  `json:"dateRange,omitempty" validate:"omitempty,oneof=24h 7d 1m custom"`
	CustomStartDate *time.Time `json:"customStartDate,omitempty"`
	CustomEndDate   *time.Time `json:"customEndDate,omitempty"`
	SortBy          SortBy     `json:"sortBy,omitempty" validate:"omitempty,oneof=relevance citations date_desc date_asc"`
	Page            int        `json:"page" validate:"gte=1"`
	Limit           int        `json:"limit" validate:"gte=1,lte=100"`
}

// WithDefaults returns a copy of f with page, limit and sort order filled in and
// a recognized platform name canonicalized.
func (f SearchFilter) WithDefaults() SearchFilter {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.SortBy == "" {
		f.SortBy = SortRelevance
	}
	if f.Platform != "" {
		if p, ok := ParsePlatform(f.Platform); ok {
			f.Platform = string(p)
		}
	}
	return f
}

// Validate checks the filter. It expects defaults to have been applied.
func (f SearchFilter) Validate() error {
	if err := validateStruct(f); err != nil {
		return err
	}
	if f.Platform != "" {
		if _, ok := ParsePlatform(f.Platform); !ok {
			return NewValidationError("platform", "unknown platform "+f.Platform)
		}
	}
	if f.DateRange == DateRangeCustom && f.CustomStartDate == nil {
		return NewValidationError("customStartDate", "required when dateRange is custom")
	}
	if f.CustomStartDate != nil && f.CustomEndDate != nil && f.CustomEndDate.Before(*f.CustomStartDate) {
		return NewValidationError("customEndDate", "must not be before customStartDate")
	}
	return nil
}

// Clone returns a copy of f that shares no memory with it.
func (f SearchFilter) Clone() SearchFilter {
	if f.CustomStartDate != nil {
		start := *f.CustomStartDate
		f.CustomStartDate = &start
	}
	if f.CustomEndDate != nil {
		end := *f.CustomEndDate
		f.CustomEndDate = &end
	}
	return f
}

// Offset returns the number of records skipped before the requested page.
func (f SearchFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// PlatformValue returns the filter's platform, if one is set and recognized.
func (f SearchFilter) PlatformValue() (Platform, bool) {
	if f.Platform == "" {
		return "", false
	}
	return ParsePlatform(f.Platform)
}

// DateWindow returns the inclusive publication window selected by the filter.
// ok is false when the filter does not restrict dates. "1m" is 30 days.
func (f SearchFilter) DateWindow(now time.Time) (start, end time.Time, ok bool) {
	switch f.DateRange {
	case DateRangeDay:
		return now.Add(-24 * time.Hour), now, true
	case DateRangeWeek:
		return now.AddDate(0, 0, -7), now, true
	case DateRangeMonth:
		return now.AddDate(0, 0, -30), now, true
	case DateRangeCustom:
		if f.CustomStartDate == nil {
			return time.Time{}, time.Time{}, false
		}
		end = now
		if f.CustomEndDate != nil {
			end = *f.CustomEndDate
		}
		return *f.CustomStartDate, end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Pages returns the number of pages needed to show total records.
func Pages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
