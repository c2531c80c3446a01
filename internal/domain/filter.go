package domain

import "strings"

// DefaultPageSize is used when a query asks for a page size below one.
const DefaultPageSize = 10

// WarningQuery selects a page of warnings from a warning list.
type WarningQuery struct {
	EventType string
	AreaName  string
	Page      int
	PageSize  int
}

// Normalize fills in the first page and the default page size for
// out-of-range values.
func (q WarningQuery) Normalize() WarningQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// QueryWarnings filters warnings by event type and area name, then returns
// the requested page. The input slice and its records are never modified.
func QueryWarnings(warnings []Warning, q WarningQuery) []Warning {
	q = q.Normalize()
	return Paginate(FilterWarnings(warnings, q.EventType, q.AreaName), q.Page, q.PageSize)
}

// FilterWarnings keeps warnings whose event code equals eventType
// (case-insensitive) and, when areaName is set, narrows each warning to the
// warning areas and affected areas whose name contains areaName. Warnings
// left without a matching area are dropped. Empty filters match everything.
func FilterWarnings(warnings []Warning, eventType, areaName string) []Warning {
	needle := strings.ToLower(strings.TrimSpace(areaName))
	out := make([]Warning, 0, len(warnings))

	for _, w := range warnings {
		if eventType != "" && !strings.EqualFold(w.Event.Code, eventType) {
			continue
		}
		if needle == "" {
			out = append(out, w)
			continue
		}

		var areas []WarningArea
		for _, wa := range w.WarningAreas {
			var matched []AffectedArea
			for _, aa := range wa.AffectedAreas {
				if nameContains(aa.Names, needle) {
					matched = append(matched, aa)
				}
			}
			if len(matched) > 0 {
				wa.AffectedAreas = matched
				areas = append(areas, wa)
			}
		}
		if len(areas) > 0 {
			w.WarningAreas = areas
			out = append(out, w)
		}
	}
	return out
}

func nameContains(names Localized, needle string) bool {
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), needle) {
			return true
		}
	}
	return false
}

// Paginate returns the 1-based page of warnings; pages past the end are empty.
func Paginate(warnings []Warning, page, pageSize int) []Warning {
	if page < 1 || pageSize < 1 {
		return []Warning{}
	}
	// Compare page counts rather than offsets; (page-1)*pageSize can overflow.
	pages := len(warnings) / pageSize
	if len(warnings)%pageSize != 0 {
		pages++
	}
	if page > pages {
		return []Warning{}
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(warnings))
	return warnings[start:end:end]
}
