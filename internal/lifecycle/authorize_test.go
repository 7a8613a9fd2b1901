package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/sitetask/internal/model"
)

var (
	admin      = &model.Viewer{UserID: "u-admin", Role: model.RoleAdmin}
	beta       = &model.Viewer{UserID: "u-beta", Role: model.RoleContractor, CompanyID: "c-beta", CompanyName: "Beta Beton"}
	gamma      = &model.Viewer{UserID: "u-gamma", Role: model.RoleContractor, CompanyID: "c-gamma", CompanyName: "Gamma Sıva"}
	orphan     = &model.Viewer{UserID: "u-orphan", Role: model.RoleContractor}
	anonymous  *model.Viewer
	allActions = []Action{ActionApprove, ActionReject, ActionDeleteAny, ActionDeleteOwn, ActionStart, ActionStop, ActionComplete, ActionEdit}
)

func betaTask(approved bool) *model.Task {
	return &model.Task{ID: "t1", CompanyID: "c-beta", Status: model.StatusPlanned, IsApproved: approved}
}

func TestAuthorize_ApproveIsAdminOnly(t *testing.T) {
	for _, v := range []*model.Viewer{beta, gamma, orphan} {
		for _, approved := range []bool{true, false} {
			err := Authorize(v, betaTask(approved), ActionApprove)
			assert.ErrorIs(t, err, model.ErrForbidden, v.UserID)
		}
	}
	assert.NoError(t, Authorize(admin, betaTask(false), ActionApprove))
}

func TestAuthorize_Matrix(t *testing.T) {
	tests := []struct {
		viewer  *model.Viewer
		task    *model.Task
		action  Action
		wantErr error
	}{
		{admin, betaTask(true), ActionDeleteAny, nil},
		{admin, betaTask(false), ActionReject, nil},
		{beta, betaTask(false), ActionReject, model.ErrForbidden},
		{beta, betaTask(true), ActionDeleteAny, model.ErrForbidden},
		{beta, betaTask(false), ActionDeleteOwn, nil},
		{beta, betaTask(true), ActionDeleteOwn, model.ErrForbidden},
		{gamma, betaTask(false), ActionDeleteOwn, model.ErrForbidden},
		{beta, betaTask(true), ActionStart, nil},
		{beta, betaTask(true), ActionStop, nil},
		{beta, betaTask(true), ActionComplete, nil},
		{beta, betaTask(true), ActionEdit, nil},
		{gamma, betaTask(true), ActionStart, model.ErrForbidden},
		{gamma, betaTask(true), ActionEdit, model.ErrForbidden},
		{orphan, betaTask(true), ActionEdit, model.ErrForbidden},
		{admin, betaTask(true), ActionComplete, nil},
		{beta, nil, ActionStart, model.ErrNotFound},
		{beta, betaTask(true), Action("teleport"), model.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.viewer.UserID+"/"+string(tt.action), func(t *testing.T) {
			err := Authorize(tt.viewer, tt.task, tt.action)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorize_Anonymous(t *testing.T) {
	for _, a := range append(allActions, ActionCreate) {
		assert.ErrorIs(t, Authorize(anonymous, betaTask(false), a), model.ErrUnauthenticated, string(a))
	}
	assert.ErrorIs(t, Authorize(&model.Viewer{}, betaTask(false), ActionEdit), model.ErrUnauthenticated)
}

func TestAuthorize_ErrorsAreDistinct(t *testing.T) {
	forbidden := Authorize(gamma, betaTask(false), ActionEdit)
	missing := Authorize(gamma, nil, ActionEdit)
	unauth := Authorize(nil, betaTask(false), ActionEdit)

	assert.True(t, errors.Is(forbidden, model.ErrForbidden))
	assert.False(t, errors.Is(forbidden, model.ErrNotFound))
	assert.True(t, errors.Is(missing, model.ErrNotFound))
	assert.False(t, errors.Is(missing, model.ErrForbidden))
	assert.True(t, errors.Is(unauth, model.ErrUnauthenticated))
	assert.False(t, errors.Is(unauth, model.ErrForbidden))
}

func TestAuthorize_DeleteApprovedMessage(t *testing.T) {
	err := Authorize(beta, betaTask(true), DeleteAction(beta))
	require.Error(t, err)
	assert.Equal(t, "cannot delete an approved task", err.Error())
	assert.Equal(t, ActionDeleteAny, DeleteAction(admin))
}

func TestPrepareCreate_ForcesOwnCompany(t *testing.T) {
	task := &model.Task{
		CompanyID:  "c-gamma",
		Status:     model.StatusInProgress,
		IsApproved: true,
	}

	require.NoError(t, PrepareCreate(beta, task))
	assert.Equal(t, "c-beta", task.CompanyID)
	assert.Equal(t, "Beta Beton", task.CompanyName)
	assert.Equal(t, model.StatusPlanned, task.Status)
	assert.False(t, task.IsApproved)
}

func TestPrepareCreate_AdminKeepsCompany(t *testing.T) {
	task := &model.Task{CompanyID: "c-gamma", IsApproved: true}

	require.NoError(t, PrepareCreate(admin, task))
	assert.Equal(t, "c-gamma", task.CompanyID)
	assert.False(t, task.IsApproved)
}

func TestPrepareCreate_Rejects(t *testing.T) {
	assert.ErrorIs(t, PrepareCreate(nil, &model.Task{}), model.ErrUnauthenticated)
	assert.ErrorIs(t, PrepareCreate(orphan, &model.Task{}), model.ErrForbidden)
}

func TestTransition(t *testing.T) {
	task := &model.Task{Status: model.StatusPlanned}

	assert.ErrorIs(t, Transition(task, ActionStop), model.ErrValidation)
	assert.ErrorIs(t, Transition(task, ActionComplete), model.ErrValidation)

	require.NoError(t, Transition(task, ActionStart))
	assert.Equal(t, model.StatusInProgress, task.Status)
	assert.ErrorIs(t, Transition(task, ActionStart), model.ErrValidation)

	require.NoError(t, Transition(task, ActionStop))
	assert.Equal(t, model.StatusPlanned, task.Status)

	require.NoError(t, Transition(task, ActionStart))
	require.NoError(t, Transition(task, ActionComplete))
	assert.True(t, task.IsCompleted)
	assert.ErrorIs(t, Transition(task, ActionComplete), model.ErrValidation)
	assert.ErrorIs(t, Transition(task, ActionStop), model.ErrValidation)

	assert.ErrorIs(t, Transition(&model.Task{IsApproved: true}, ActionReject), model.ErrValidation)
}

func TestAuthorizePatch(t *testing.T) {
	current := betaTask(true)
	inProgress := model.StatusInProgress
	yes := true
	title := "Şap dökümü"

	actions, err := AuthorizePatch(beta, current, &model.TaskPatch{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, []Action{ActionStart}, actions)

	actions, err = AuthorizePatch(beta, current, &model.TaskPatch{Status: &inProgress, IsCompleted: &yes})
	require.NoError(t, err)
	assert.Equal(t, []Action{ActionStart, ActionComplete}, actions)

	_, err = AuthorizePatch(beta, current, &model.TaskPatch{IsCompleted: &yes})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = AuthorizePatch(beta, betaTask(false), &model.TaskPatch{IsApproved: &yes})
	assert.ErrorIs(t, err, model.ErrForbidden)

	actions, err = AuthorizePatch(admin, betaTask(false), &model.TaskPatch{IsApproved: &yes})
	require.NoError(t, err)
	assert.Equal(t, []Action{ActionApprove}, actions)

	_, err = AuthorizePatch(gamma, current, &model.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = AuthorizePatch(beta, current, &model.TaskPatch{})
	assert.ErrorIs(t, err, model.ErrValidation)

	bogus := model.TaskStatus("done")
	_, err = AuthorizePatch(beta, current, &model.TaskPatch{Status: &bogus})
	assert.ErrorIs(t, err, model.ErrValidation)
}
