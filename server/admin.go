package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

type companyLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleApprovalQueue lists unapproved tasks, most urgent first
func (s *Server) handleApprovalQueue(c echo.Context) error {
	now := s.clock()
	tasks, err := s.store.ListTasks(c.Request().Context(), model.TaskFilter{
		ProjectID:      c.QueryParam("project_id"),
		UnapprovedOnly: true,
	})
	if err != nil {
		return respondError(c, err)
	}

	sorted := lifecycle.SortForDisplay(tasks, lifecycle.SortOptions{Now: now})
	return c.JSON(http.StatusOK, s.describeAll(sorted, now))
}

// handleApprove marks a task approved. Approving twice keeps the first stamp.
func (s *Server) handleApprove(c echo.Context) error {
	viewer := viewerFrom(c)
	ctx := c.Request().Context()

	t, err := s.store.GetTask(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := lifecycle.Authorize(viewer, t, lifecycle.ActionApprove); err != nil {
		return respondError(c, err)
	}

	if !t.IsApproved {
		t, err = s.store.ApproveTask(ctx, t.ID, s.now())
		if err != nil {
			return respondError(c, err)
		}
		logger.Info("Task approved", logger.F("task_id", t.ID), logger.F("user_id", viewer.UserID))
	}

	return c.JSON(http.StatusOK, s.describe(*t, s.clock()))
}

// handleReject deletes an unapproved task and returns what was removed
func (s *Server) handleReject(c echo.Context) error {
	viewer := viewerFrom(c)
	ctx := c.Request().Context()

	t, err := s.store.GetTask(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := lifecycle.Authorize(viewer, t, lifecycle.ActionReject); err != nil {
		return respondError(c, err)
	}
	if err := lifecycle.Transition(t, lifecycle.ActionReject); err != nil {
		return respondError(c, err)
	}

	deleted, err := s.store.DeleteTask(ctx, t.ID)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Task rejected", logger.F("task_id", deleted.ID), logger.F("user_id", viewer.UserID))
	return c.JSON(http.StatusOK, summarize(deleted))
}

// handleCompanyLogin creates or resets the contractor login of a company
func (s *Server) handleCompanyLogin(c echo.Context) error {
	var req companyLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return respondError(c, model.Invalid("email", "a valid email is required"))
	}
	if len(req.Password) < MinPasswordLength {
		return respondError(c, model.Invalid("password",
			fmt.Sprintf("must be at least %d characters", MinPasswordLength)))
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	profile, err := s.store.UpsertCompanyLogin(ctx, c.Param("id"), req.Email, hash)
	if err != nil {
		return respondError(c, err)
	}

	dropped, err := s.store.DeleteSessionsForUser(ctx, profile.ID)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Company login set",
		logger.F("company_id", profile.CompanyID),
		logger.F("user_id", viewerFrom(c).UserID),
		logger.F("sessions_dropped", dropped))

	return c.JSON(http.StatusOK, profile)
}
