package agent

import (
	"math"
	"sort"
	"strings"

	"github.com/user/draftsmith/internal/config"
	"github.com/user/draftsmith/internal/db"
)

const (
	shortlistThreshold = 0.6
	maxGenericRisk     = 0.7
	maxShortlist       = 3
)

// Rubric holds the five deterministic scoring dimensions, each in [0, 1].
type Rubric struct {
	Groundedness float64 `json:"groundedness"`
	Originality  float64 `json:"originality"`
	BrandFit     float64 `json:"brand_fit"`
	Diversity    float64 `json:"diversity"`
	Clarity      float64 `json:"clarity"`
}

func (r Rubric) Average() float64 {
	return (r.Groundedness + r.Originality + r.BrandFit + r.Diversity + r.Clarity) / 5
}

// ScoreIdea computes the rubric for one idea. Pure: the only inputs are the
// idea itself (including its cited highlight ids) and the brand keywords.
func ScoreIdea(idea db.Idea, brandKeywords []string) Rubric {
	// Three cited highlights is full groundedness.
	groundedness := math.Min(float64(len(idea.HighlightIDs))/3, 1)

	originality := clamp01(0.7*(1-idea.RiskOfGeneric) + 0.3*idea.NoveltyScore)

	text := strings.ToLower(idea.Title + " " + idea.Hook + " " + idea.Audience)
	matches := 0
	for _, kw := range brandKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matches++
		}
	}
	brandFit := math.Min(float64(matches)/3, 1)

	unique := make(map[string]bool)
	for _, bullet := range idea.Outline {
		for _, word := range strings.Fields(strings.ToLower(bullet)) {
			unique[word] = true
		}
	}
	diversity := math.Min(float64(len(unique))/50, 1)

	hookLen := len(idea.Hook)
	clarity := 1.0
	if hookLen < 50 || hookLen > 200 {
		clarity = math.Max(0.5, 1-math.Abs(float64(hookLen)-125)/125)
	}

	return Rubric{
		Groundedness: groundedness,
		Originality:  originality,
		BrandFit:     brandFit,
		Diversity:    diversity,
		Clarity:      clarity,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

type CurationResult struct {
	ShortlistedIdeas []string                   `json:"shortlisted_ideas"`
	Feedback         map[string]db.CuratorScore `json:"feedback"`
	ShouldRegenerate bool                       `json:"should_regenerate"`
}

// Curator scores a generation batch and decides what is worth drafting.
type Curator struct {
	store *db.Store
	brand config.Brand
}

func NewCurator(store *db.Store, brand config.Brand) *Curator {
	return &Curator{store: store, brand: brand}
}

// CurateIdeas scores every idea of a batch, persists one CuratorScore per
// idea, shortlists up to three, and decides whether the batch should be
// regenerated. Ideas from earlier batches are never reconsidered.
func (c *Curator) CurateIdeas(batchID int) (*CurationResult, error) {
	ideas, err := c.store.IdeasByBatch(batchID)
	if err != nil {
		return nil, err
	}

	feedback := make(map[string]db.CuratorScore, len(ideas))
	var shortlisted []db.CuratorScore
	allBelowThreshold := true

	for _, idea := range ideas {
		rubric := ScoreIdea(idea, c.brand.Keywords)
		average := rubric.Average()
		if average >= shortlistThreshold {
			allBelowThreshold = false
		}

		score := db.CuratorScore{
			IdeaID:       idea.ID,
			Groundedness: rubric.Groundedness,
			Originality:  rubric.Originality,
			BrandFit:     rubric.BrandFit,
			Diversity:    rubric.Diversity,
			Clarity:      rubric.Clarity,
			Average:      average,
			Shortlisted:  average >= shortlistThreshold && idea.RiskOfGeneric < maxGenericRisk,
			Feedback:     feedbackText(rubric, idea),
		}
		if err := c.store.InsertCuratorScore(&score); err != nil {
			return nil, err
		}

		feedback[idea.ID] = score
		if score.Shortlisted {
			shortlisted = append(shortlisted, score)
		}
	}

	// Top 3 by average, idea id as the deterministic tie-break.
	sort.Slice(shortlisted, func(i, j int) bool {
		if shortlisted[i].Average != shortlisted[j].Average {
			return shortlisted[i].Average > shortlisted[j].Average
		}
		return shortlisted[i].IdeaID < shortlisted[j].IdeaID
	})

	shouldRegenerate := len(shortlisted) < 2 || (len(ideas) > 0 && allBelowThreshold)

	if len(shortlisted) > maxShortlist {
		shortlisted = shortlisted[:maxShortlist]
	}
	ids := make([]string, len(shortlisted))
	for i, s := range shortlisted {
		ids[i] = s.IdeaID
	}

	return &CurationResult{
		ShortlistedIdeas: ids,
		Feedback:         feedback,
		ShouldRegenerate: shouldRegenerate,
	}, nil
}

func feedbackText(rubric Rubric, idea db.Idea) string {
	var issues, strengths []string

	if rubric.Groundedness < 0.5 {
		issues = append(issues, "Needs more supporting highlights")
	}
	if rubric.Originality < 0.5 {
		issues = append(issues, "Too generic or low novelty")
	}
	if rubric.BrandFit < 0.5 {
		issues = append(issues, "Weak alignment with brand profile")
	}
	if rubric.Clarity < 0.5 {
		issues = append(issues, "Hook needs more clarity")
	}

	if rubric.Groundedness > 0.7 {
		strengths = append(strengths, "Well-grounded")
	}
	if rubric.Originality > 0.7 {
		strengths = append(strengths, "Original")
	}
	if rubric.BrandFit > 0.7 {
		strengths = append(strengths, "Strong brand fit")
	}

	var parts []string
	if len(strengths) > 0 {
		parts = append(parts, "Strengths: "+strings.Join(strengths, ", "))
	}
	if len(issues) > 0 {
		parts = append(parts, "Issues: "+strings.Join(issues, ", "))
	}
	if idea.RiskOfGeneric > maxGenericRisk {
		parts = append(parts, "High risk of being generic")
	}

	if len(parts) == 0 {
		return "No specific feedback"
	}
	return strings.Join(parts, ". ")
}

// RegenerationFeedback aggregates which dimensions most commonly scored low
// across a rejected batch into guidance for the next generation attempt.
func (c *Curator) RegenerationFeedback(feedback map[string]db.CuratorScore) string {
	var weak []string
	seen := make(map[string]bool)
	for _, dim := range []struct {
		name  string
		value func(db.CuratorScore) float64
	}{
		{"groundedness", func(s db.CuratorScore) float64 { return s.Groundedness }},
		{"originality", func(s db.CuratorScore) float64 { return s.Originality }},
		{"brand fit", func(s db.CuratorScore) float64 { return s.BrandFit }},
	} {
		for _, score := range feedback {
			if dim.value(score) < 0.5 && !seen[dim.name] {
				seen[dim.name] = true
				weak = append(weak, dim.name)
			}
		}
	}

	var guidance []string
	if len(weak) > 0 {
		guidance = append(guidance, "Focus on improving: "+strings.Join(weak, ", "))
	}
	guidance = append(guidance,
		"Ensure ideas cite at least 3-4 specific highlights",
		"Avoid generic topics - aim for unique angles",
	)
	return strings.Join(guidance, ". ")
}
