package billing

import "time"

// Period is the half-open date range [Start, End) covering one calendar
// month of usage. Both bounds are midnight UTC.
type Period struct {
	Start time.Time
	End   time.Time
}

// LastMonth returns the billing period for the calendar month preceding now.
// Start is the first day of the previous month, End the first day of now's
// month. Year rollover and leap years fall out of time.AddDate.
func LastMonth(now time.Time) Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Start: first.AddDate(0, -1, 0),
		End:   first,
	}
}

// StartDate renders the lower bound as YYYY-MM-DD.
func (p Period) StartDate() string { return p.Start.Format(time.DateOnly) }

// EndDate renders the exclusive upper bound as YYYY-MM-DD.
func (p Period) EndDate() string { return p.End.Format(time.DateOnly) }

func (p Period) String() string {
	return p.StartDate() + ".." + p.EndDate()
}
