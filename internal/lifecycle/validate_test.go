package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/sitetask/internal/model"
)

func validTask() *model.Task {
	return &model.Task{
		ProjectID: "p1",
		CompanyID: "c-beta",
		Block:     "A Blok",
		Floor:     intptr(3),
		Title:     "Şap dökümü - 3. kat",
		StartDate: model.MustDate("2025-09-01"),
		DueDate:   model.MustDate("2025-09-05"),
		Status:    model.StatusPlanned,
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(validTask(), DefaultCatalog()))

	ranged := validTask()
	ranged.Floor = nil
	ranged.FloorFrom = intptr(-2)
	ranged.FloorTo = intptr(5)
	assert.NoError(t, Validate(ranged, DefaultCatalog()))

	sameDay := validTask()
	sameDay.DueDate = sameDay.StartDate
	assert.NoError(t, Validate(sameDay, DefaultCatalog()))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(*model.Task)
	}{
		{"missing title", "title", func(t *model.Task) { t.Title = "  " }},
		{"missing block", "block", func(t *model.Task) { t.Block = "" }},
		{"missing project", "project_id", func(t *model.Task) { t.ProjectID = "" }},
		{"missing company", "company_id", func(t *model.Task) { t.CompanyID = "" }},
		{"missing start", "start_date", func(t *model.Task) { t.StartDate = model.Date{} }},
		{"due before start", "due_date", func(t *model.Task) { t.DueDate = model.MustDate("2025-08-31") }},
		{"floor and range", "floor", func(t *model.Task) { t.FloorFrom = intptr(1); t.FloorTo = intptr(2) }},
		{"neither floor nor range", "floor", func(t *model.Task) { t.Floor = nil }},
		{"half range", "floor_from", func(t *model.Task) { t.Floor = nil; t.FloorFrom = intptr(1) }},
		{"inverted range", "floor_from", func(t *model.Task) { t.Floor = nil; t.FloorFrom = intptr(5); t.FloorTo = intptr(2) }},
		{"floor zero", "floor", func(t *model.Task) { t.Floor = intptr(0) }},
		{"floor above block", "floor", func(t *model.Task) { t.Floor = intptr(29) }},
		{"floor below basement", "floor", func(t *model.Task) { t.Floor = intptr(-3) }},
		{"unknown block", "block", func(t *model.Task) { t.Block = "Z Blok" }},
		{"bad status", "status", func(t *model.Task) { t.Status = "done" }},
		{"self dependency", "dependent_company_id", func(t *model.Task) { t.DependentCompanyID = strptr("c-beta") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.edit(task)

			err := Validate(task, DefaultCatalog())
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidate_BlockWithoutFloors(t *testing.T) {
	catalog := append(DefaultCatalog(), Block{Name: "Peyzaj"})

	task := validTask()
	task.Block = "Peyzaj"
	task.Floor = nil
	assert.NoError(t, Validate(task, catalog))

	task.Floor = intptr(1)
	assert.ErrorIs(t, Validate(task, catalog), model.ErrValidation)
}

func TestBlockFloorOptions(t *testing.T) {
	b := Block{Name: "D Blok", Floors: 3}
	assert.Equal(t, []int{-2, -1, 1, 2, 3}, b.FloorOptions())
	assert.Nil(t, Block{Name: "Peyzaj"}.FloorOptions())
	assert.Equal(t, "B2", FormatFloor(-2))
	assert.Equal(t, "12", FormatFloor(12))
}
