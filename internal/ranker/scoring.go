package ranker

import (
	"math"
	"strconv"
	"strings"

	"debuggenie/internal/models"
)

// neutral is used when a signal is unknown so absence is not penalised.
const neutral = 0.5

// simplicity scores 1.0 for no steps and no code, falling with each step
// (0.1) and each line of code (0.05).
func simplicity(sol models.CandidateSolution) float64 {
	stepScore := math.Max(0, 1.0-0.1*float64(len(sol.Steps)))

	lines := 0
	for _, c := range sol.CodeChanges {
		lines += countLines(c.Code)
	}
	codeScore := math.Max(0, 1.0-0.05*float64(lines))

	return (stepScore + codeScore) / 2
}

func successRate(votes int) float64 {
	if votes <= 0 {
		return neutral
	}
	return math.Min(1.0, math.Log(float64(votes)+1)/10)
}

// recency loses 0.1 per year of age for a bare four-digit year and is
// neutral for any other date format.
func recency(date string, currentYear int) float64 {
	if !isYear(date) {
		return neutral
	}
	year, _ := strconv.Atoi(date)
	// a future year counts as current
	return math.Min(1, math.Max(0, 1.0-0.1*float64(currentYear-year)))
}

// consensus counts the other solutions sharing at least two title words
// with solution i; each agreeing solution adds 0.5, capped at 1.0.
func consensus(i int, titles []map[string]struct{}) float64 {
	matches := 0
	for j, other := range titles {
		if j == i {
			continue
		}
		if sharedCount(titles[i], other) >= consensusMinShared {
			matches++
		}
	}
	return math.Min(1.0, 0.5*float64(matches))
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// countLines counts lines the way a text editor does: a trailing newline
// does not open a new line and the empty string has none.
func countLines(code string) int {
	if code == "" {
		return 0
	}
	code = strings.ReplaceAll(code, "\r\n", "\n")
	code = strings.ReplaceAll(code, "\r", "\n")
	n := strings.Count(code, "\n")
	if !strings.HasSuffix(code, "\n") {
		n++
	}
	return n
}
