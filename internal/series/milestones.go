package series

// Milestone is one row of the drift schedule. Every day up to and including
// UntilYear/UntilMonth drifts toward Target.
type Milestone struct {
	UntilYear  int
	UntilMonth int
	Target     float64
}

func (m Milestone) covers(year, month int) bool {
	if year != m.UntilYear {
		return year < m.UntilYear
	}
	return month <= m.UntilMonth
}

// DefaultMilestones approximates the XAUUSD regimes since the mid 2000s.
// Rows must stay ordered by (UntilYear, UntilMonth).
var DefaultMilestones = []Milestone{
	{UntilYear: 2007, UntilMonth: 12, Target: 850},
	{UntilYear: 2011, UntilMonth: 8, Target: 1800},
	{UntilYear: 2015, UntilMonth: 12, Target: 1100},
	{UntilYear: 2016, UntilMonth: 12, Target: 1250},
	{UntilYear: 2018, UntilMonth: 12, Target: 1280},
	{UntilYear: 2020, UntilMonth: 7, Target: 1950},
	{UntilYear: 2022, UntilMonth: 12, Target: 1800},
	{UntilYear: 2023, UntilMonth: 12, Target: 2050},
	{UntilYear: 2024, UntilMonth: 8, Target: 2500},
	{UntilYear: 2025, UntilMonth: 6, Target: 3350},
	{UntilYear: 2025, UntilMonth: 12, Target: 4300},
	{UntilYear: 2026, UntilMonth: 2, Target: 5602},
}

// targetFor looks up the drift target for a calendar month. Months past the
// last row drift toward fallback.
func targetFor(table []Milestone, year, month int, fallback float64) float64 {
	for _, m := range table {
		if m.covers(year, month) {
			return m.Target
		}
	}
	return fallback
}
