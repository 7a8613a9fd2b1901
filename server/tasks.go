package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

// taskResponse is a task plus its derived display facts
type taskResponse struct {
	model.Task
	Display lifecycle.Display `json:"display"`
}

type taskListResponse struct {
	Tasks     []taskResponse `json:"tasks"`
	LateCount int            `json:"late_count"`
	Today     model.Date     `json:"today"`
}

type createTaskRequest struct {
	ProjectID          string     `json:"project_id"`
	CompanyID          string     `json:"company_id"`
	Block              string     `json:"block"`
	Floor              *int       `json:"floor"`
	FloorFrom          *int       `json:"floor_from"`
	FloorTo            *int       `json:"floor_to"`
	Title              string     `json:"title"`
	Notes              string     `json:"notes"`
	StartDate          model.Date `json:"start_date"`
	DueDate            model.Date `json:"due_date"`
	DependentCompanyID *string    `json:"dependent_company_id"`
}

// deletedTask is the summary returned after a delete or reject
type deletedTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

func (s *Server) describe(t model.Task, now time.Time) taskResponse {
	return taskResponse{Task: t, Display: lifecycle.Describe(&t, now)}
}

func (s *Server) describeAll(tasks []model.Task, now time.Time) taskListResponse {
	out := make([]taskResponse, len(tasks))
	for i := range tasks {
		out[i] = s.describe(tasks[i], now)
	}
	return taskListResponse{
		Tasks:     out,
		LateCount: lifecycle.CountLate(tasks, now),
		Today:     model.DateOf(now),
	}
}

// canSee reports whether viewer may read t. Contractors see approved work
// and everything of their own company.
func canSee(viewer *model.Viewer, t *model.Task) bool {
	return viewer.IsAdmin() || t.IsApproved || viewer.Owns(t)
}

func queryBool(c echo.Context, name string, def bool) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, model.Invalid(name, "must be true or false")
	}
	return v, nil
}

// handleListTasks lists the tasks visible to the viewer
func (s *Server) handleListTasks(c echo.Context) error {
	viewer := viewerFrom(c)
	now := s.clock()

	var flags [4]bool
	for i, name := range []string{"mine", "approved_only", "recently_approved_only", "prioritize_late"} {
		v, err := queryBool(c, name, false)
		if err != nil {
			return respondError(c, err)
		}
		flags[i] = v
	}
	mine, approvedOnly, recentOnly, prioritizeLate := flags[0], flags[1], flags[2], flags[3]

	filter := model.TaskFilter{
		ProjectID:    c.QueryParam("project_id"),
		ApprovedOnly: approvedOnly || recentOnly,
	}
	if !viewer.IsAdmin() {
		filter.VisibleTo = viewer.CompanyID
	}
	if mine {
		if viewer.CompanyID == "" {
			return c.JSON(http.StatusOK, s.describeAll(nil, now))
		}
		filter.CompanyID = viewer.CompanyID
	}
	if recentOnly {
		since := now.Add(-s.cfg.Tasks.RecentApprovalWindow)
		filter.ApprovedSince = &since
	}

	tasks, err := s.store.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	sorted := lifecycle.SortForDisplay(tasks, lifecycle.SortOptions{
		PrioritizeLate: prioritizeLate,
		Mode:           lifecycle.ParseSortMode(c.QueryParam("sort")),
		Now:            now,
	})

	return c.JSON(http.StatusOK, s.describeAll(sorted, now))
}

// handleCreateTask creates a task for the viewer's company, or for any
// company when the viewer is an admin
func (s *Server) handleCreateTask(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	viewer := viewerFrom(c)
	ctx := c.Request().Context()

	t := &model.Task{
		ProjectID:          req.ProjectID,
		CompanyID:          req.CompanyID,
		Block:              req.Block,
		Floor:              req.Floor,
		FloorFrom:          req.FloorFrom,
		FloorTo:            req.FloorTo,
		Title:              req.Title,
		Notes:              req.Notes,
		StartDate:          req.StartDate,
		DueDate:            req.DueDate,
		DependentCompanyID: req.DependentCompanyID,
	}
	if t.DependentCompanyID != nil && *t.DependentCompanyID == "" {
		t.DependentCompanyID = nil
	}

	if err := lifecycle.PrepareCreate(viewer, t); err != nil {
		return respondError(c, err)
	}

	if t.ProjectID == "" {
		active, err := s.store.ActiveProject(ctx)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return respondError(c, model.Invalid("project_id", "no active project"))
			}
			return respondError(c, err)
		}
		t.ProjectID = active.ID
	}

	if err := lifecycle.Validate(t, s.catalog); err != nil {
		return respondError(c, err)
	}

	if err := s.store.CreateTask(ctx, t); err != nil {
		return respondError(c, err)
	}

	logger.Info("Task created",
		logger.F("task_id", t.ID),
		logger.F("company_id", t.CompanyID),
		logger.F("user_id", viewer.UserID))

	return c.JSON(http.StatusCreated, s.describe(*t, s.clock()))
}

// loadVisibleTask fetches a task, hiding ones the viewer may not read
func (s *Server) loadVisibleTask(c echo.Context) (*model.Task, error) {
	t, err := s.store.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !canSee(viewerFrom(c), t) {
		return nil, model.ErrNotFound
	}
	return t, nil
}

// handleGetTask returns a single task
func (s *Server) handleGetTask(c echo.Context) error {
	t, err := s.loadVisibleTask(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s.describe(*t, s.clock()))
}

// handleUpdateTask applies a partial update. Each requested change is
// checked as its lifecycle action before anything is written.
func (s *Server) handleUpdateTask(c echo.Context) error {
	var patch model.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid request")
	}

	viewer := viewerFrom(c)
	ctx := c.Request().Context()

	current, err := s.loadVisibleTask(c)
	if err != nil {
		return respondError(c, err)
	}

	actions, err := lifecycle.AuthorizePatch(viewer, current, &patch)
	if err != nil {
		return respondError(c, err)
	}

	approve := false
	if patch.IsApproved != nil && *patch.IsApproved != current.IsApproved {
		if !*patch.IsApproved {
			return respondError(c, model.Invalid("is_approved", "approval cannot be withdrawn"))
		}
		approve = true
	}

	next := *current
	patch.Apply(&next)

	if len(actions) > 1 || !approve {
		if err := lifecycle.Validate(&next, s.catalog); err != nil {
			return respondError(c, err)
		}
		if err := s.store.UpdateTask(ctx, &next); err != nil {
			return respondError(c, err)
		}
	}

	if approve {
		approved, err := s.store.ApproveTask(ctx, current.ID, s.now())
		if err != nil {
			return respondError(c, err)
		}
		next = *approved
	}

	logger.Info("Task updated",
		logger.F("task_id", current.ID),
		logger.F("actions", actions),
		logger.F("user_id", viewer.UserID))

	return c.JSON(http.StatusOK, s.describe(next, s.clock()))
}

// handleDeleteTask deletes a task. Contractors may only delete their own
// unapproved tasks.
func (s *Server) handleDeleteTask(c echo.Context) error {
	viewer := viewerFrom(c)

	t, err := s.loadVisibleTask(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := lifecycle.Authorize(viewer, t, lifecycle.DeleteAction(viewer)); err != nil {
		return respondError(c, err)
	}

	deleted, err := s.store.DeleteTask(c.Request().Context(), t.ID)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Task deleted", logger.F("task_id", deleted.ID), logger.F("user_id", viewer.UserID))

	return c.JSON(http.StatusOK, summarize(deleted))
}

func summarize(t *model.Task) deletedTask {
	return deletedTask{
		ID:          t.ID,
		Title:       t.Title,
		CompanyID:   t.CompanyID,
		CompanyName: t.CompanyName,
	}
}
