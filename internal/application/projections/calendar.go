package projections

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"eagles/internal/domain/session"
)

// MonthLayout is the wire format of CalendarQuery.Month.
const MonthLayout = "2006-01"

// ErrInvalidMonth is returned for a month not in YYYY-MM form.
var ErrInvalidMonth = errors.New("month must be YYYY-MM")

// CalendarQuery carries query parameters.
type CalendarQuery struct {
	Month string // YYYY-MM; empty selects the current month
}

// CalendarDay groups the sessions held on one date.
type CalendarDay struct {
	Date     string           `json:"date"`
	Sessions []SessionSummary `json:"sessions"`
}

// CalendarResult carries the query result.
type CalendarResult struct {
	Month string        `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// CalendarDeps holds dependencies for Calendar.
type CalendarDeps struct {
	Sessions SessionReader
	Now      func() time.Time
}

// QueryCalendar lists the dates in a month that have sessions.
// PRE: Month is empty or YYYY-MM
// POST: days are ascending and distinct; sessions within a day keep creation order
func QueryCalendar(_ context.Context, query CalendarQuery, deps CalendarDeps) (CalendarResult, error) {
	month := strings.TrimSpace(query.Month)
	if month == "" {
		now := time.Now()
		if deps.Now != nil {
			now = deps.Now()
		}
		month = now.Format(MonthLayout)
	} else if _, err := time.Parse(MonthLayout, month); err != nil {
		return CalendarResult{}, ErrInvalidMonth
	}

	byDate := map[string][]SessionSummary{}
	for _, s := range deps.Sessions.List() {
		if !strings.HasPrefix(s.Date, month+"-") {
			continue
		}
		if _, err := time.Parse(session.DateLayout, s.Date); err != nil {
			continue
		}
		byDate[s.Date] = append(byDate[s.Date], summarize(s, ""))
	}

	days := make([]CalendarDay, 0, len(byDate))
	for date, list := range byDate {
		days = append(days, CalendarDay{Date: date, Sessions: list})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return CalendarResult{Month: month, Days: days}, nil
}
