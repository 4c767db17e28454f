package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/requesterrr/requesterrr/internal/ledger"
	"github.com/requesterrr/requesterrr/internal/metadata"
	"github.com/requesterrr/requesterrr/internal/request"
)

const defaultSearchLimit = 18

// errorResponse is the failure envelope every endpoint shares.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func fail(c echo.Context, err error) error {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, metadata.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, metadata.ErrNotFound):
		status = http.StatusNotFound
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// search merges results from both metadata providers.
// GET /api/v1/search?q=dune&limit=18
func (s *Server) search(c echo.Context) error {
	query := c.QueryParam("q")

	limit := defaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
		}
		limit = parsed
	}

	results, err := s.resolver.Search(c.Request().Context(), query, limit)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"results": results,
	})
}

// details resolves a partial selection to a canonical record with
// season metadata.
// POST /api/v1/details
func (s *Server) details(c echo.Context) error {
	var sel metadata.Selection
	if err := c.Bind(&sel); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	record, err := s.resolver.ResolveSelection(c.Request().Context(), sel)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"item":    record,
	})
}

// submitRequest dispatches an acquisition request.
// POST /api/v1/request
func (s *Server) submitRequest(c echo.Context) error {
	var payload request.SubmitPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	result, err := s.dispatcher.Submit(c.Request().Context(), payload)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}

// history returns a page of the append-only request log.
// GET /api/v1/history?page=1&pageSize=50
func (s *Server) history(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))

	resp, err := s.store.ListRequestLogs(c.Request().Context(), ledger.ListOptions{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    resp,
	})
}

// listTasks returns the registered background tasks.
// GET /api/v1/tasks
func (s *Server) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"tasks":   s.scheduler.ListTasks(),
	})
}

// runTask triggers a background task immediately.
// POST /api/v1/tasks/:id/run
func (s *Server) runTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := s.scheduler.RunNow(taskID); err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "task started",
	})
}
