package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/user/draftsmith/internal/agent"
	"github.com/user/draftsmith/internal/db"
)

// Server exposes the workflow and its data over HTTP for the web UI.
type Server struct {
	store *db.Store
	orch  *agent.Orchestrator
	judge *agent.Judge
	echo  *echo.Echo
}

func New(store *db.Store, orch *agent.Orchestrator, judge *agent.Judge) *Server {
	s := &Server{store: store, orch: orch, judge: judge}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	api := e.Group("/api")
	api.POST("/workflow/run", s.runWorkflow)
	api.POST("/workflow/sync", s.syncHighlights)
	api.POST("/workflow/generate-ideas", s.generateIdeas)
	api.POST("/workflow/curate", s.curateIdeas)
	api.POST("/workflow/create-drafts", s.createDrafts)
	api.GET("/highlights/list", s.listHighlights)
	api.POST("/highlights/clear", s.clearHighlights)
	api.GET("/ideas/list", s.listIdeas)
	api.GET("/drafts/list", s.listDrafts)
	api.GET("/drafts/:id", s.getDraft)
	api.PUT("/drafts/:id", s.updateDraft)
	api.POST("/drafts/:id/judge", s.judgeDraft)
	api.GET("/sync/status", s.syncStatus)

	s.echo = e
	return s
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Router exposes the underlying handler for tests.
func (s *Server) Router() http.Handler {
	return s.echo
}

type errorResponse struct {
	Error string `json:"error"`
}

func fail(c echo.Context, code int, err error) error {
	return c.JSON(code, errorResponse{Error: err.Error()})
}

func (s *Server) runWorkflow(c echo.Context) error {
	result, err := s.orch.Run(c.Request().Context())
	if err != nil {
		// The partial result carries how far the workflow got.
		return c.JSON(http.StatusInternalServerError, result)
	}
	return c.JSON(http.StatusOK, result)
}

type syncRequest struct {
	Incremental bool `json:"incremental"`
}

func (s *Server) syncHighlights(c echo.Context) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}

	result, err := s.orch.Sync(c.Request().Context(), req.Incremental)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, result)
}

type generateRequest struct {
	Feedback string `json:"feedback"`
}

func (s *Server) generateIdeas(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}

	result, err := s.orch.Generate(c.Request().Context(), req.Feedback)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, result)
}

type curateRequest struct {
	Batch int `json:"batch"`
}

func (s *Server) curateIdeas(c echo.Context) error {
	var req curateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	if req.Batch <= 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "batch is required"})
	}

	result, err := s.orch.Curate(req.Batch)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, result)
}

type createDraftsRequest struct {
	IdeaIDs []string `json:"idea_ids"`
}

func (s *Server) createDrafts(c echo.Context) error {
	var req createDraftsRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	if len(req.IdeaIDs) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "idea_ids is required"})
	}

	outcomes := s.orch.CreateDrafts(c.Request().Context(), req.IdeaIDs)
	return c.JSON(http.StatusOK, map[string]interface{}{"drafts": outcomes})
}

func (s *Server) listHighlights(c echo.Context) error {
	limit := intQuery(c, "limit", 100)
	highlights, err := s.store.ListHighlights(limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	if highlights == nil {
		highlights = []db.Highlight{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"highlights": highlights})
}

func (s *Server) clearHighlights(c echo.Context) error {
	if err := s.store.ClearHighlights(); err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) listIdeas(c echo.Context) error {
	limit := intQuery(c, "limit", 100)
	ideas, err := s.store.ListIdeas(limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	if ideas == nil {
		ideas = []db.Idea{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ideas": ideas})
}

func (s *Server) listDrafts(c echo.Context) error {
	limit := intQuery(c, "limit", 100)
	drafts, err := s.store.ListDrafts(limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	if drafts == nil {
		drafts = []db.Draft{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"drafts": drafts})
}

func (s *Server) getDraft(c echo.Context) error {
	draft, err := s.store.GetDraft(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	if draft == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "draft not found"})
	}
	return c.JSON(http.StatusOK, draft)
}

type updateDraftRequest struct {
	Body string `json:"body"`
}

// updateDraft edits the draft body only; outline, hooks and social bullets
// are immutable after creation.
func (s *Server) updateDraft(c echo.Context) error {
	var req updateDraftRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	if req.Body == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "body is required"})
	}

	existing, err := s.store.GetDraft(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	if existing == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "draft not found"})
	}

	draft, err := s.store.UpdateDraftBody(existing.ID, req.Body)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, draft)
}

func (s *Server) judgeDraft(c echo.Context) error {
	draft, err := s.store.GetDraft(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	if draft == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "draft not found"})
	}

	idea, err := s.store.GetIdea(draft.IdeaID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	if idea == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "idea not found for draft"})
	}

	score, err := s.judge.JudgeDraft(c.Request().Context(), draft, idea)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, score)
}

func (s *Server) syncStatus(c echo.Context) error {
	logs, err := s.store.ListSyncLogs(intQuery(c, "limit", 10))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	if logs == nil {
		logs = []db.SyncLog{}
	}

	count, err := s.store.CountHighlights()
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"highlights_count": count,
		"sync_logs":        logs,
	})
}

func intQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	var v int
	if err := echo.QueryParamsBinder(c).Int(name, &v).BindError(); err != nil || v <= 0 {
		return fallback
	}
	return v
}
