// Package ranker deduplicates, scores and orders candidate fixes.
//
// The ranker is pure: it performs no I/O, keeps no state between calls and
// may be used concurrently.
package ranker

import (
	"fmt"
	"sort"
	"time"

	"debuggenie/internal/models"
)

const (
	// duplicateThreshold is the title Jaccard similarity above which two
	// candidates are merged.
	duplicateThreshold = 0.6

	// mergeBoost is added to the seed confidence per extra group member.
	mergeBoost = 0.1

	// consensusMinShared is the number of title words two solutions must
	// share to count as agreeing.
	consensusMinShared = 2

	strongConsensusScore = 0.8
	communityVotes       = 50
	complexSimplicity    = 0.5
)

const (
	weightConfidence = 0.3
	weightSimplicity = 0.2
	weightSuccess    = 0.3
	weightRecency    = 0.1
	weightConsensus  = 0.1
)

// Ranker turns raw candidates into ranked solutions.
// The zero value uses the current calendar year for recency.
type Ranker struct {
	// Year overrides the current year used for recency scoring.
	Year int
}

// Scored pairs a merged candidate with its score components.
type Scored struct {
	Solution    models.CandidateSolution
	Score       float64
	Simplicity  float64
	SuccessRate float64
	Recency     float64
	Consensus   float64
}

// RankAndFilter ranks loosely shaped solution objects with the current year.
func RankAndFilter(raw []map[string]any) []models.RankedSolution {
	return Ranker{}.RankAndFilter(raw)
}

// RankAndFilter converts raw objects to candidates, defaulting missing
// fields, and ranks them.
func (r Ranker) RankAndFilter(raw []map[string]any) []models.RankedSolution {
	return r.Rank(models.CandidatesFromMaps(raw))
}

// Rank deduplicates, scores, stably sorts and annotates candidates.
// Empty input yields an empty, non-nil slice.
func (r Ranker) Rank(candidates []models.CandidateSolution) []models.RankedSolution {
	if len(candidates) == 0 {
		return []models.RankedSolution{}
	}

	scored := r.Score(Deduplicate(candidates))
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	ranked := make([]models.RankedSolution, 0, len(scored))
	for i, s := range scored {
		ranked = append(ranked, annotate(i+1, s))
	}
	return ranked
}

// Score computes the weighted score of every merged candidate. Consensus is
// measured against the other entries of merged.
func (r Ranker) Score(merged []models.CandidateSolution) []Scored {
	year := r.Year
	if year == 0 {
		year = time.Now().Year()
	}

	titleWords := make([]map[string]struct{}, len(merged))
	for i, sol := range merged {
		titleWords[i] = tokenize(sol.Title)
	}

	out := make([]Scored, 0, len(merged))
	for i, sol := range merged {
		s := Scored{
			Solution:    sol,
			Simplicity:  simplicity(sol),
			SuccessRate: successRate(sol.Votes),
			Recency:     recency(sol.Date, year),
			Consensus:   consensus(i, titleWords),
		}
		s.Score = weightConfidence*sol.Confidence +
			weightSimplicity*s.Simplicity +
			weightSuccess*s.SuccessRate +
			weightRecency*s.Recency +
			weightConsensus*s.Consensus
		out = append(out, s)
	}
	return out
}

func annotate(rank int, s Scored) models.RankedSolution {
	sol := s.Solution

	why := fmt.Sprintf("High confidence (%.2f)", sol.Confidence)
	switch {
	case s.Score > strongConsensusScore:
		why += " and strong consensus among agents."
	case sol.Votes > communityVotes:
		why += " and community validated."
	default:
		why += "."
	}

	var tradeOffs []string
	if s.Simplicity < complexSimplicity {
		tradeOffs = append(tradeOffs, "Complex implementation required.")
	} else {
		tradeOffs = append(tradeOffs, "Quick fix but may not address root cause.")
	}

	title := sol.Title
	if title == "" {
		title = "Untitled Solution"
	}

	return models.RankedSolution{
		Rank:          rank,
		Title:         title,
		Description:   sol.Description,
		Steps:         nonNil(sol.Steps),
		CodeChanges:   nonNilChanges(sol.CodeChanges),
		Confidence:    sol.Confidence,
		Sources:       nonNil(sol.Sources),
		WhyRankedHere: why,
		TradeOffs:     tradeOffs,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilChanges(c []models.CodeChange) []models.CodeChange {
	if c == nil {
		return []models.CodeChange{}
	}
	return c
}
