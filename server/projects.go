package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

type projectResponse struct {
	model.Project
	DaysLeft  int    `json:"days_left"`
	Countdown string `json:"countdown"`
}

type createProjectRequest struct {
	Name    string     `json:"name"`
	EndDate model.Date `json:"end_date"`
}

type createCompanyRequest struct {
	Name        string `json:"name"`
	BlockPrefix string `json:"block_prefix"`
}

type blockResponse struct {
	lifecycle.Block
	FloorOptions []int `json:"floor_options"`
}

func (s *Server) project(p model.Project) projectResponse {
	cd := lifecycle.CountdownOf(&p, s.clock())
	return projectResponse{Project: p, DaysLeft: cd.Days, Countdown: cd.String()}
}

func (s *Server) handleListProjects(c echo.Context) error {
	activeOnly, err := queryBool(c, "active_only", false)
	if err != nil {
		return respondError(c, err)
	}

	projects, err := s.store.ListProjects(c.Request().Context(), activeOnly)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]projectResponse, len(projects))
	for i := range projects {
		out[i] = s.project(projects[i])
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleActiveProject(c echo.Context) error {
	p, err := s.store.ActiveProject(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s.project(*p))
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.store.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s.project(*p))
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	p := &model.Project{Name: strings.TrimSpace(req.Name), EndDate: req.EndDate}
	if err := validateProject(p); err != nil {
		return respondError(c, err)
	}

	if err := s.store.CreateProject(c.Request().Context(), p); err != nil {
		return respondError(c, err)
	}

	logger.Info("Project created", logger.F("project_id", p.ID), logger.F("end_date", p.EndDate.String()))
	return c.JSON(http.StatusCreated, s.project(*p))
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	var patch model.ProjectPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid request")
	}
	if patch.Name == nil && patch.EndDate == nil {
		return badRequest(c, "nothing to update")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return respondError(c, model.Invalid("name", "required"))
		}
		patch.Name = &name
	}
	if patch.EndDate != nil && patch.EndDate.IsZero() {
		return respondError(c, model.Invalid("end_date", "required"))
	}

	p, err := s.store.UpdateProject(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Project updated", logger.F("project_id", p.ID))
	return c.JSON(http.StatusOK, s.project(*p))
}

// handleDeactivateProject soft-deletes a project; its tasks stay readable
func (s *Server) handleDeactivateProject(c echo.Context) error {
	p, err := s.store.DeactivateProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Project deactivated", logger.F("project_id", p.ID))
	return c.JSON(http.StatusOK, s.project(*p))
}

func validateProject(p *model.Project) error {
	if p.Name == "" {
		return model.Invalid("name", "required")
	}
	if p.EndDate.IsZero() {
		return model.Invalid("end_date", "required")
	}
	return nil
}

// handleListCompanies lists companies. Login emails are admin-only.
func (s *Server) handleListCompanies(c echo.Context) error {
	companies, err := s.store.ListCompanies(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	if !viewerFrom(c).IsAdmin() {
		for i := range companies {
			companies[i].LoginEmail = ""
		}
	}
	if companies == nil {
		companies = []model.Company{}
	}
	return c.JSON(http.StatusOK, companies)
}

func (s *Server) handleCreateCompany(c echo.Context) error {
	var req createCompanyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	company := &model.Company{
		Name:        strings.TrimSpace(req.Name),
		BlockPrefix: strings.TrimSpace(req.BlockPrefix),
	}
	if company.Name == "" {
		return respondError(c, model.Invalid("name", "required"))
	}

	if err := s.store.CreateCompany(c.Request().Context(), company); err != nil {
		return respondError(c, err)
	}

	logger.Info("Company created", logger.F("company_id", company.ID))
	return c.JSON(http.StatusCreated, company)
}

// handleListBlocks returns the block catalog with selectable floors
func (s *Server) handleListBlocks(c echo.Context) error {
	out := make([]blockResponse, len(s.catalog))
	for i, b := range s.catalog {
		out[i] = blockResponse{Block: b, FloorOptions: b.FloorOptions()}
	}
	return c.JSON(http.StatusOK, out)
}
