package readiness

import (
	"fmt"
	"regexp"
	"strings"
)

var gradePattern = regexp.MustCompile(`^(?:TI-?RADS\s*)?(TR)?\s*([1-5])\s*([ABC])?$`)

// gradeOrder ranks the grading categories. A bare "4" has no rank: category 4 must carry a
// sub-tier.
var gradeOrder = map[string]int{
	"1": 1, "2": 2, "3": 3, "4A": 4, "4B": 5, "4C": 6, "5": 7,
	"TR1": 1, "TR2": 2, "TR3": 3, "TR4A": 4, "TR4B": 5, "TR4C": 6, "TR5": 7,
}

// Rank maps a grade such as 3, "4B", "TR4A" or "TI-RADS 5" to its ordinal tier.
func Rank(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	s := strings.ToUpper(strings.TrimSpace(fmt.Sprint(v)))
	if m := gradePattern.FindStringSubmatch(s); m != nil {
		key := m[2] + m[3]
		if m[1] != "" {
			key = "TR" + key
		}
		r, ok := gradeOrder[key]
		return r, ok
	}
	r, ok := gradeOrder[s]
	return r, ok
}
