package projections

import (
	"context"
	"sort"
	"time"
)

// Session list views.
const (
	ViewUpcoming = "upcoming"
	ViewPast     = "past"
)

// SessionListQuery carries query parameters.
type SessionListQuery struct {
	View     string // ViewUpcoming (default) or ViewPast
	Username string // optional; fills SessionSummary.Status
}

// SessionListResult carries the query result.
type SessionListResult struct {
	View     string           `json:"view"`
	Sessions []SessionSummary `json:"sessions"`
}

// SessionListDeps holds dependencies for SessionList.
type SessionListDeps struct {
	Sessions SessionReader
	Now      func() time.Time
}

// QuerySessionList lists upcoming or past sessions, newest date first.
// PRE: none
// POST: a session dated today is upcoming; ties keep creation order
func QuerySessionList(_ context.Context, query SessionListQuery, deps SessionListDeps) (SessionListResult, error) {
	view := query.View
	if view != ViewPast {
		view = ViewUpcoming
	}
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	all := deps.Sessions.List()
	out := []SessionSummary{}
	for i := range all {
		if all[i].IsPast(now) != (view == ViewPast) {
			continue
		}
		out = append(out, summarize(all[i], query.Username))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })

	return SessionListResult{View: view, Sessions: out}, nil
}
