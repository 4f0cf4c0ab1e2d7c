package cmd

import (
	"fmt"
	"os"

	"github.com/user/draftsmith/internal/agent"
	"github.com/user/draftsmith/internal/config"
	"github.com/user/draftsmith/internal/db"
	"github.com/user/draftsmith/internal/llm"
	"github.com/user/draftsmith/internal/readwise"
)

// app bundles everything a command needs. Close the store when done.
type app struct {
	cfg   *config.Config
	store *db.Store
	orch  *agent.Orchestrator
	judge *agent.Judge
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := db.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	retry := llm.DefaultRetryPolicy(cfg.LLM.MaxRetries)
	caller, err := llm.NewOpenAI(os.Getenv("OPENAI_API_KEY"), cfg.LLM.BaseURL,
		cfg.LLM.Model, cfg.Embeddings.Model, retry)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := readwise.NewClient(os.Getenv("READWISE_TOKEN"), cfg.Readwise.BaseURL)
	source := readwise.NewSource(client, cfg.Readwise.MaxAgeDays)

	retriever := agent.NewRetriever(store, source, caller, cfg.Embeddings.Model)
	generator := agent.NewGenerator(store, caller, cfg.Brand)
	curator := agent.NewCurator(store, cfg.Brand)
	creator := agent.NewCreator(store, caller)

	return &app{
		cfg:   cfg,
		store: store,
		orch:  agent.NewOrchestrator(retriever, generator, curator, creator),
		judge: agent.NewJudge(cfg.Judge.Provider, cfg.Judge.Model, caller, cfg.Brand),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}
