package ranker

import (
	"math"
	"strings"

	"debuggenie/internal/models"
)

// Deduplicate groups near-duplicate candidates and merges each group.
//
// Each unvisited candidate seeds a new group; every later unvisited
// candidate joins it when its title is a duplicate of the seed's. Members
// are compared to the seed only, so grouping is not transitive.
func Deduplicate(candidates []models.CandidateSolution) []models.CandidateSolution {
	visited := make([]bool, len(candidates))
	words := make([]map[string]struct{}, len(candidates))
	for i, c := range candidates {
		words[i] = tokenize(c.Title)
	}

	merged := make([]models.CandidateSolution, 0, len(candidates))
	for i := range candidates {
		if visited[i] {
			continue
		}
		visited[i] = true
		group := []models.CandidateSolution{candidates[i]}

		for j := i + 1; j < len(candidates); j++ {
			if visited[j] {
				continue
			}
			if isDuplicate(words[i], words[j]) {
				group = append(group, candidates[j])
				visited[j] = true
			}
		}

		merged = append(merged, mergeGroup(group))
	}
	return merged
}

// mergeGroup keeps the seed's fields, boosts its confidence by the number of
// extra members (capped at 1.0) and unions every member's sources.
func mergeGroup(group []models.CandidateSolution) models.CandidateSolution {
	seed := group[0]

	var sources []string
	for _, member := range group {
		sources = append(sources, member.Sources...)
	}

	merged := seed
	merged.Steps = append([]string(nil), seed.Steps...)
	merged.CodeChanges = append([]models.CodeChange(nil), seed.CodeChanges...)
	merged.Confidence = math.Min(1.0, models.Clamp01(seed.Confidence)+mergeBoost*float64(len(group)-1))
	merged.Sources = models.UniqueStrings(sources)
	return merged
}

// jaccard returns |a∩b| / |a∪b|.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := sharedCount(a, b)
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func isDuplicate(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return jaccard(a, b) > duplicateThreshold
}

// tokenize lower-cases s and splits it on whitespace into a word set.
func tokenize(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func sharedCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
