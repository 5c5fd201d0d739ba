package application

type SummaryQueryFilter struct {
	Address string
	Chain   string
	Limit   int
}

type FlaggedQueryFilter struct {
	Address       string
	Chain         string
	PoisoningOnly bool
	Limit         int
}

// NormalizeLimit clamps a query limit to (0, 1000], defaulting to 100.
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
