package query

import "github.com/couchcryptid/sensor-warning-map/internal/domain"

// State is the user-selected filter and page. The Controller replaces it as a
// whole value on every transition; callers only ever see copies.
type State struct {
	SearchTerm string `json:"searchTerm"`
	EventType  string `json:"eventType"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

// InitialState is the state a new Controller starts in.
func InitialState() State {
	return State{Page: 1, PageSize: domain.DefaultPageSize}
}

// clamped raises Page and PageSize to at least 1.
func (s State) clamped() State {
	s.Page = max(s.Page, 1)
	s.PageSize = max(s.PageSize, 1)
	return s
}

// WarningQuery converts the state into a catalog query.
func (s State) WarningQuery() domain.WarningQuery {
	return domain.WarningQuery{
		EventType: s.EventType,
		AreaName:  s.SearchTerm,
		Page:      s.Page,
		PageSize:  s.PageSize,
	}
}
