package ranker

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"debuggenie/internal/models"
)

const epsilon = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < epsilon }

func TestRank_EmptyInput(t *testing.T) {
	got := RankAndFilter(nil)
	if got == nil {
		t.Fatal("expected empty non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("expected 0 solutions, got %d", len(got))
	}

	got = Ranker{}.Rank([]models.CandidateSolution{})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty slice for empty candidates, got %v", got)
	}
}

func TestDeduplicate_MergesNearDuplicateTitles(t *testing.T) {
	merged := Deduplicate([]models.CandidateSolution{
		{Title: "Add input validation", Confidence: 0.6, Sources: []string{"https://so/1"}},
		{Title: "Add input validation check", Confidence: 0.9, Sources: []string{"https://so/1", "https://gh/2"}},
		{Title: "Use try except", Confidence: 0.4},
	})

	if len(merged) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(merged))
	}
	if merged[0].Title != "Add input validation" {
		t.Errorf("seed title should be kept, got %q", merged[0].Title)
	}
	if !approx(merged[0].Confidence, 0.7) {
		t.Errorf("expected merged confidence 0.7, got %f", merged[0].Confidence)
	}
	if diff := cmp.Diff([]string{"https://so/1", "https://gh/2"}, merged[0].Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if merged[1].Title != "Use try except" {
		t.Errorf("expected second group 'Use try except', got %q", merged[1].Title)
	}
}

func TestDeduplicate_ConfidenceCapped(t *testing.T) {
	var candidates []models.CandidateSolution
	for i := 0; i < 5; i++ {
		candidates = append(candidates, models.CandidateSolution{Title: "Reinstall node modules", Confidence: 0.9})
	}

	merged := Deduplicate(candidates)
	if len(merged) != 1 {
		t.Fatalf("expected 1 group, got %d", len(merged))
	}
	if merged[0].Confidence != 1.0 {
		t.Errorf("expected confidence capped at 1.0, got %f", merged[0].Confidence)
	}
}

func TestDeduplicate_NotTransitive(t *testing.T) {
	// B duplicates A and C duplicates B, but C does not duplicate the seed A.
	merged := Deduplicate([]models.CandidateSolution{
		{Title: "alpha beta gamma delta"},
		{Title: "alpha beta gamma delta epsilon"},
		{Title: "beta gamma delta epsilon zeta"},
	})

	if len(merged) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(merged))
	}
	if merged[1].Title != "beta gamma delta epsilon zeta" {
		t.Errorf("third candidate should seed its own group, got %q", merged[1].Title)
	}
}

func TestDeduplicate_EmptyTitlesNeverMerge(t *testing.T) {
	merged := Deduplicate([]models.CandidateSolution{
		{Title: ""},
		{Title: "   "},
		{Title: ""},
	})
	if len(merged) != 3 {
		t.Errorf("expected 3 groups for empty titles, got %d", len(merged))
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Add input validation", "Add input validation check", 0.75},
		{"Add input validation", "Use try except", 0},
		{"Fix Import", "fix import", 1},
		{"", "anything", 0},
	}

	for _, tt := range tests {
		got := jaccard(tokenize(tt.a), tokenize(tt.b))
		if !approx(got, tt.want) {
			t.Errorf("jaccard(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSuccessRate(t *testing.T) {
	if got := successRate(0); got != 0.5 {
		t.Errorf("votes=0: expected 0.5, got %f", got)
	}
	want := math.Log(101) / 10
	if got := successRate(100); !approx(got, want) {
		t.Errorf("votes=100: expected %f, got %f", want, got)
	}
	if got := successRate(100); math.Abs(got-0.4615) > 1e-4 {
		t.Errorf("votes=100: expected ~0.4615, got %f", got)
	}
	if got := successRate(1_000_000); got != 1.0 {
		t.Errorf("huge vote counts should cap at 1.0, got %f", got)
	}
}

func TestRecency(t *testing.T) {
	tests := []struct {
		date string
		want float64
	}{
		{"2020", 0.6},
		{"2024", 1.0},
		{"2000", 0},
		{"2034", 1.0},
		{"2025", 1.0},
		{"not-a-year", 0.5},
		{"", 0.5},
		{"2020-01-05", 0.5},
		{"20x0", 0.5},
	}

	for _, tt := range tests {
		if got := recency(tt.date, 2024); !approx(got, tt.want) {
			t.Errorf("recency(%q) = %f, want %f", tt.date, got, tt.want)
		}
	}
}

func TestSimplicity(t *testing.T) {
	sol := models.CandidateSolution{
		Steps:       []string{"one", "two"},
		CodeChanges: []models.CodeChange{{File: "a.go", Code: "a\nb\nc"}},
	}
	if got := simplicity(sol); !approx(got, 0.825) {
		t.Errorf("expected 0.825, got %f", got)
	}

	if got := simplicity(models.CandidateSolution{}); got != 1.0 {
		t.Errorf("empty solution should score 1.0, got %f", got)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
		{"one\r\ntwo", 2},
	}
	for _, tt := range tests {
		if got := countLines(tt.in); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestConsensus(t *testing.T) {
	titles := []map[string]struct{}{
		tokenize("Fix import path error"),
		tokenize("Fix import statement"),
		tokenize("Update import path"),
	}

	want := []float64{1.0, 0.5, 0.5}
	for i, w := range want {
		if got := consensus(i, titles); got != w {
			t.Errorf("consensus(%d) = %f, want %f", i, got, w)
		}
	}
}

func TestRank_OrderAndContiguousRanks(t *testing.T) {
	r := Ranker{Year: 2024}
	candidates := []models.CandidateSolution{
		{Title: "Rewrite the parser", Confidence: 0.3, Steps: []string{"a", "b", "c", "d", "e", "f"}},
		{Title: "Pin dependency version", Confidence: 0.9, Votes: 120, Date: "2024"},
		{Title: "Clear the build cache", Confidence: 0.6, Date: "2019"},
		{Title: "Pin dependency version now", Confidence: 0.5},
		{Title: "Restart language server", Confidence: 0.7},
	}

	ranked := r.Rank(candidates)
	if len(ranked) != 4 {
		t.Fatalf("expected 4 solutions after dedup, got %d", len(ranked))
	}

	scores := map[string]float64{}
	for _, s := range r.Score(Deduplicate(candidates)) {
		scores[s.Solution.Title] = s.Score
	}

	for title, score := range scores {
		if score < 0 || score > 1 {
			t.Errorf("score for %q = %f, want within [0,1]", title, score)
		}
	}

	for i, sol := range ranked {
		if sol.Rank != i+1 {
			t.Errorf("position %d has rank %d", i, sol.Rank)
		}
		if i > 0 && scores[ranked[i-1].Title] < scores[sol.Title] {
			t.Errorf("rank %d (%f) scored below rank %d (%f)",
				i, scores[ranked[i-1].Title], i+1, scores[sol.Title])
		}
	}

	if ranked[0].Title != "Pin dependency version" {
		t.Errorf("expected the merged, voted solution first, got %q", ranked[0].Title)
	}
	if !approx(ranked[0].Confidence, 1.0) {
		t.Errorf("expected merged confidence 1.0, got %f", ranked[0].Confidence)
	}
}

func TestRank_StableTies(t *testing.T) {
	ranked := Ranker{Year: 2024}.Rank([]models.CandidateSolution{
		{Title: "Restart the server", Confidence: 0.5},
		{Title: "Clear npm cache", Confidence: 0.5},
	})

	if ranked[0].Title != "Restart the server" || ranked[1].Title != "Clear npm cache" {
		t.Errorf("ties should keep input order, got %q then %q", ranked[0].Title, ranked[1].Title)
	}
}

func TestRank_Explanations(t *testing.T) {
	r := Ranker{Year: 2024}
	tests := []struct {
		name      string
		candidate models.CandidateSolution
		wantWhy   string
		wantTrade string
	}{
		{
			name:      "strong consensus",
			candidate: models.CandidateSolution{Title: "Upgrade the driver", Confidence: 1.0, Votes: 30000, Date: "2024"},
			wantWhy:   "High confidence (1.00) and strong consensus among agents.",
			wantTrade: "Quick fix but may not address root cause.",
		},
		{
			name:      "community validated",
			candidate: models.CandidateSolution{Title: "Upgrade the driver", Confidence: 0.5, Votes: 100},
			wantWhy:   "High confidence (0.50) and community validated.",
			wantTrade: "Quick fix but may not address root cause.",
		},
		{
			name: "complex",
			candidate: models.CandidateSolution{
				Title:       "Refactor connection pool",
				Confidence:  0.5,
				Steps:       []string{"1", "2", "3", "4", "5", "6"},
				CodeChanges: []models.CodeChange{{File: "pool.go", Code: "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n13\n14\n15\n16\n17\n18\n19\n20"}},
			},
			wantWhy:   "High confidence (0.50).",
			wantTrade: "Complex implementation required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := r.Rank([]models.CandidateSolution{tt.candidate})
			if len(ranked) != 1 {
				t.Fatalf("expected 1 solution, got %d", len(ranked))
			}
			if ranked[0].WhyRankedHere != tt.wantWhy {
				t.Errorf("why = %q, want %q", ranked[0].WhyRankedHere, tt.wantWhy)
			}
			if diff := cmp.Diff([]string{tt.wantTrade}, ranked[0].TradeOffs); diff != "" {
				t.Errorf("trade-offs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRankAndFilter_FromMaps(t *testing.T) {
	raw := []map[string]any{
		{
			"title":      "Add input validation",
			"confidence": 0.7,
			"steps":      []any{"Validate request body"},
			"sources":    []any{"https://a", "https://a", "https://b"},
		},
	}

	got := Ranker{Year: 2024}.RankAndFilter(raw)
	want := []models.RankedSolution{{
		Rank:          1,
		Title:         "Add input validation",
		Steps:         []string{"Validate request body"},
		CodeChanges:   []models.CodeChange{},
		Confidence:    0.7,
		Sources:       []string{"https://a", "https://b"},
		WhyRankedHere: "High confidence (0.70).",
		TradeOffs:     []string{"Quick fix but may not address root cause."},
	}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ranked output mismatch (-want +got):\n%s", diff)
	}
}

func TestScore_StaysInUnitRange(t *testing.T) {
	merged := []models.CandidateSolution{
		{Title: "upgrade the driver", Confidence: 1, Votes: 30000, Date: "2034"},
		{Title: "upgrade the driver package", Confidence: 1, Date: "2030"},
		{Title: "driver upgrade script", Confidence: 1, Date: "2031"},
	}
	for _, s := range (Ranker{Year: 2024}).Score(merged) {
		if s.Recency > 1 {
			t.Errorf("%q: recency %f above 1", s.Solution.Title, s.Recency)
		}
		if s.Score < 0 || s.Score > 1 {
			t.Errorf("%q: score %f outside [0,1]", s.Solution.Title, s.Score)
		}
	}
}

func TestRankAndFilter_HugeVotes(t *testing.T) {
	raw := []map[string]any{{"title": "a b c", "confidence": 0.2, "votes": 1e20}}

	cand := models.CandidateFromMap(raw[0])
	if cand.Votes != math.MaxInt32 {
		t.Errorf("votes = %d, want clamp to %d", cand.Votes, math.MaxInt32)
	}
	scored := Ranker{Year: 2024}.Score([]models.CandidateSolution{cand})
	if scored[0].SuccessRate != 1.0 {
		t.Errorf("successRate = %f, want 1.0", scored[0].SuccessRate)
	}

	ranked := Ranker{Year: 2024}.RankAndFilter(raw)
	if !strings.Contains(ranked[0].WhyRankedHere, "community validated") {
		t.Errorf("why = %q, want community validation", ranked[0].WhyRankedHere)
	}
}

func TestRankAndFilter_MalformedEntries(t *testing.T) {
	raw := []map[string]any{
		{"description": "no title at all", "steps": "not a list", "confidence": "high"},
		{"title": "Set PATH", "confidence": 3.5, "votes": -4},
	}

	got := Ranker{Year: 2024}.RankAndFilter(raw)
	if len(got) != 2 {
		t.Fatalf("malformed entries should be kept, got %d", len(got))
	}

	byTitle := map[string]models.RankedSolution{}
	for _, s := range got {
		byTitle[s.Title] = s
	}
	untitled, ok := byTitle["Untitled Solution"]
	if !ok {
		t.Fatal("expected an 'Untitled Solution' entry")
	}
	if untitled.Confidence != 0 || len(untitled.Steps) != 0 {
		t.Errorf("expected defaulted fields, got confidence=%f steps=%v", untitled.Confidence, untitled.Steps)
	}
	if byTitle["Set PATH"].Confidence != 1.0 {
		t.Errorf("confidence should be clamped to 1.0, got %f", byTitle["Set PATH"].Confidence)
	}
}

func TestRank_NoHiddenState(t *testing.T) {
	r := Ranker{Year: 2024}
	in := []models.CandidateSolution{
		{Title: "Fix import path", Confidence: 0.4, Sources: []string{"x"}},
		{Title: "Fix import path now", Confidence: 0.4, Sources: []string{"y"}},
	}

	first := r.Rank(in)
	second := r.Rank(in)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated calls differ (-first +second):\n%s", diff)
	}
	if len(in[0].Sources) != 1 {
		t.Errorf("input must not be mutated, sources now %v", in[0].Sources)
	}
}
