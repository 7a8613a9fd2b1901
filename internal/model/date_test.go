package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-09-10")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.September, Day: 10}, d)
	assert.Equal(t, "2025-09-10", d.String())

	for _, bad := range []string{"", "2025-9-10", "10.09.2025", "2025-09-10T12:00:00", "2025-02-30", "yesterday"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDate_DaysUntil(t *testing.T) {
	a := MustDate("2025-03-29")
	b := MustDate("2025-04-02")

	assert.Equal(t, 4, a.DaysUntil(b))
	assert.Equal(t, -4, b.DaysUntil(a))
	assert.Equal(t, 0, a.DaysUntil(a))
	assert.Equal(t, 366, MustDate("2024-01-01").DaysUntil(MustDate("2025-01-01")))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, b, a.AddDays(4))
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Due  Date `json:"due"`
		Done Date `json:"done"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2025-09-10","done":null}`), &payload))
	assert.Equal(t, MustDate("2025-09-10"), payload.Due)
	assert.True(t, payload.Done.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2025-09-10","done":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"due":"09/10/2025"}`), &payload))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-09-10", d.String())

	require.NoError(t, d.Scan([]byte("2025-09-11T00:00:00Z")))
	assert.Equal(t, "2025-09-11", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	v, err := MustDate("2025-01-02").Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", v)
}

func TestTaskPatch_Apply(t *testing.T) {
	floor := 4
	from, to := 1, 3
	empty := ""
	dep := "c-gamma"
	task := Task{Floor: &floor, DependentCompanyID: &dep}

	patch := TaskPatch{ClearFloor: true, FloorFrom: &from, FloorTo: &to, DependentCompanyID: &empty}
	patch.Apply(&task)

	assert.Nil(t, task.Floor)
	assert.Equal(t, 1, *task.FloorFrom)
	assert.Equal(t, 3, *task.FloorTo)
	assert.False(t, task.HasDependency())
	assert.True(t, patch.EditsFields())
}

func TestParseDay(t *testing.T) {
	now := time.Date(2025, 9, 11, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"today", "2025-09-11"},
		{"Tomorrow", "2025-09-12"},
		{"yesterday", "2025-09-10"},
		{"+7", "2025-09-18"},
		{"-11", "2025-08-31"},
		{"2025-12-31", "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDay(tt.in, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := ParseDay("+x", now)
	assert.Error(t, err)
	_, err = ParseDay("next week", now)
	assert.Error(t, err)
}
