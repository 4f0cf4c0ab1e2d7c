package agent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/user/draftsmith/internal/db"
)

type Step string

const (
	StepSync     Step = "sync"
	StepGenerate Step = "generate"
	StepCurate   Step = "curate"
	StepCreate   Step = "create"
	StepComplete Step = "complete"
)

const (
	maxRegenerationAttempts = 2
	topHighlightsLimit      = 20
)

// ErrNoShortlist means curation (after the regeneration loop) shortlisted
// nothing, so there is nothing to draft.
var ErrNoShortlist = errors.New("no ideas were shortlisted after curation")

// State tracks workflow progress. Errors are captured in the Error field
// rather than as a distinct step.
type State struct {
	Step               Step     `json:"step"`
	SyncLogID          string   `json:"sync_log_id,omitempty"`
	BatchID            int      `json:"batch_id,omitempty"`
	ShortlistedIdeaIDs []string `json:"shortlisted_idea_ids,omitempty"`
	DraftIDs           []string `json:"draft_ids,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// DraftOutcome records one per-idea draft attempt; a failed idea does not
// abort the rest of the shortlist.
type DraftOutcome struct {
	IdeaID    string `json:"idea_id"`
	DraftID   string `json:"draft_id,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	Error     string `json:"error,omitempty"`
}

type WorkflowResult struct {
	State            State          `json:"state"`
	Sync             *SyncResult    `json:"sync,omitempty"`
	IdeaBatchID      int            `json:"idea_batch_id,omitempty"`
	IdeaCount        int            `json:"idea_count,omitempty"`
	ShortlistedIdeas []string       `json:"shortlisted_ideas,omitempty"`
	Drafts           []DraftOutcome `json:"drafts,omitempty"`
}

// Orchestrator sequences sync, generate, curate (with bounded regeneration)
// and create. Stages run strictly one after another; concurrent workflow
// runs are not coordinated against each other.
type Orchestrator struct {
	retriever *Retriever
	generator *Generator
	curator   *Curator
	creator   *Creator
}

func NewOrchestrator(retriever *Retriever, generator *Generator, curator *Curator, creator *Creator) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		curator:   curator,
		creator:   creator,
	}
}

// Run executes the complete workflow.
func (o *Orchestrator) Run(ctx context.Context) (*WorkflowResult, error) {
	result := &WorkflowResult{State: State{Step: StepSync}}

	err := o.run(ctx, result)
	if err != nil {
		result.State.Error = err.Error()
		return result, err
	}
	result.State.Step = StepComplete
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, result *WorkflowResult) error {
	slog.Info("workflow: syncing highlights")
	syncResult, err := o.retriever.SyncHighlights(ctx, false)
	if err != nil {
		return err
	}
	result.Sync = syncResult
	result.State.SyncLogID = syncResult.SyncLogID
	result.State.Step = StepGenerate

	slog.Info("workflow: generating ideas")
	topHighlights, err := o.retriever.TopHighlights(topHighlightsLimit)
	if err != nil {
		return err
	}
	ideas, err := o.generator.GenerateIdeas(ctx, topHighlights, "")
	if err != nil {
		return err
	}
	result.IdeaBatchID = ideas.BatchID
	result.IdeaCount = len(ideas.Ideas)
	result.State.BatchID = ideas.BatchID
	result.State.Step = StepCurate

	slog.Info("workflow: curating ideas", "batch", ideas.BatchID)
	curation, err := o.curator.CurateIdeas(ideas.BatchID)
	if err != nil {
		return err
	}

	for attempt := 0; curation.ShouldRegenerate && attempt < maxRegenerationAttempts; attempt++ {
		slog.Info("workflow: regenerating ideas", "attempt", attempt+1)
		feedback := o.curator.RegenerationFeedback(curation.Feedback)
		ideas, err = o.generator.GenerateIdeas(ctx, topHighlights, feedback)
		if err != nil {
			return err
		}
		result.IdeaBatchID = ideas.BatchID
		result.IdeaCount = len(ideas.Ideas)
		result.State.BatchID = ideas.BatchID

		curation, err = o.curator.CurateIdeas(ideas.BatchID)
		if err != nil {
			return err
		}
	}

	result.ShortlistedIdeas = curation.ShortlistedIdeas
	result.State.ShortlistedIdeaIDs = curation.ShortlistedIdeas

	if len(curation.ShortlistedIdeas) == 0 {
		return ErrNoShortlist
	}

	slog.Info("workflow: creating drafts", "shortlisted", len(curation.ShortlistedIdeas))
	result.State.Step = StepCreate
	result.Drafts = o.createDrafts(ctx, curation.ShortlistedIdeas)
	for _, d := range result.Drafts {
		if d.DraftID != "" {
			result.State.DraftIDs = append(result.State.DraftIDs, d.DraftID)
		}
	}

	slog.Info("workflow: complete")
	return nil
}

func (o *Orchestrator) createDrafts(ctx context.Context, ideaIDs []string) []DraftOutcome {
	outcomes := make([]DraftOutcome, 0, len(ideaIDs))
	for _, ideaID := range ideaIDs {
		outcome := DraftOutcome{IdeaID: ideaID}
		draft, err := o.creator.CreateDraft(ctx, ideaID)
		if err != nil {
			slog.Error("draft creation failed", "idea_id", ideaID, "err", err)
			outcome.Error = err.Error()
		} else {
			outcome.DraftID = draft.DraftID
			outcome.WordCount = draft.WordCount
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Sync runs only the sync stage, for UI-triggered incremental syncs.
func (o *Orchestrator) Sync(ctx context.Context, incremental bool) (*WorkflowResult, error) {
	syncResult, err := o.retriever.SyncHighlights(ctx, incremental)
	if err != nil {
		return nil, err
	}
	return &WorkflowResult{
		State: State{Step: StepSync, SyncLogID: syncResult.SyncLogID},
		Sync:  syncResult,
	}, nil
}

// Generate runs only the idea generation stage. feedback carries optional
// corrective guidance when the caller is regenerating a rejected batch.
func (o *Orchestrator) Generate(ctx context.Context, feedback string) (*WorkflowResult, error) {
	topHighlights, err := o.retriever.TopHighlights(topHighlightsLimit)
	if err != nil {
		return nil, err
	}
	ideas, err := o.generator.GenerateIdeas(ctx, topHighlights, feedback)
	if err != nil {
		return nil, err
	}
	return &WorkflowResult{
		State:       State{Step: StepGenerate, BatchID: ideas.BatchID},
		IdeaBatchID: ideas.BatchID,
		IdeaCount:   len(ideas.Ideas),
	}, nil
}

// Curate scores one batch out of band.
func (o *Orchestrator) Curate(batchID int) (*CurationResult, error) {
	return o.curator.CurateIdeas(batchID)
}

// RegenerationFeedback summarizes a rejected batch for the next attempt.
func (o *Orchestrator) RegenerationFeedback(feedback map[string]db.CuratorScore) string {
	return o.curator.RegenerationFeedback(feedback)
}

// CreateDrafts drafts the given ideas, isolating per-idea failures.
func (o *Orchestrator) CreateDrafts(ctx context.Context, ideaIDs []string) []DraftOutcome {
	return o.createDrafts(ctx, ideaIDs)
}
