package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/model"
)

func TestParseFloor(t *testing.T) {
	k, err := parseFloor("5")
	require.NoError(t, err)
	assert.Equal(t, 5, k)

	k, err = parseFloor("b2")
	require.NoError(t, err)
	assert.Equal(t, -2, k)

	k, err = parseFloor("-1")
	require.NoError(t, err)
	assert.Equal(t, -1, k)

	_, err = parseFloor("B0")
	assert.Error(t, err)
	_, err = parseFloor("roof")
	assert.Error(t, err)
}

func TestParseFloorRange(t *testing.T) {
	tests := []struct {
		in       string
		from, to int
	}{
		{"3-7", 3, 7},
		{"B2-4", -2, 4},
		{"-2-4", -2, 4},
		{"-2--1", -2, -1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			from, to, err := parseFloorRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}

	_, _, err := parseFloorRange("7")
	assert.Error(t, err)
	_, _, err = parseFloorRange("")
	assert.Error(t, err)
}

func TestMatchPrefix(t *testing.T) {
	tasks := []client.Task{
		{Task: model.Task{ID: "a1b2c3d4-0000"}},
		{Task: model.Task{ID: "a1ffffff-0000"}},
		{Task: model.Task{ID: "b9000000-0000"}},
	}

	got, err := matchPrefix(tasks, "A1B")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4-0000", got.ID)

	_, err = matchPrefix(tasks, "a1")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = matchPrefix(tasks, "zz")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestMatchCompany(t *testing.T) {
	companies := []model.Company{
		{ID: "c1", Name: "Beta Elektrik"},
		{ID: "c2", Name: "Beta Mekanik"},
		{ID: "c3", Name: "Gamma Yapı"},
	}

	got, err := matchCompany(companies, "c3")
	require.NoError(t, err)
	assert.Equal(t, "Gamma Yapı", got.Name)

	got, err = matchCompany(companies, "beta elektrik")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)

	got, err = matchCompany(companies, "gam")
	require.NoError(t, err)
	assert.Equal(t, "c3", got.ID)

	_, err = matchCompany(companies, "Beta")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = matchCompany(companies, "Delta")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Çatı iz...", truncate("Çatı izolasyonu", 10))
}
