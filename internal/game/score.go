package game

// Round points. Correct respondents are ranked by arrival order: the first
// earns the top award, the last the consolation award, everyone in between
// the base award. A lone correct respondent earns the top award.
const (
	pointsFirst = 15
	pointsBase  = 10
	pointsLast  = 8
)

// awardPoints returns the points for the correct respondent at position i of
// n (both in arrival order).
func awardPoints(i, n int) int {
	switch {
	case n == 1:
		return pointsFirst
	case i == 0:
		return pointsFirst
	case i == n-1:
		return pointsLast
	default:
		return pointsBase
	}
}
