package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// newPostgresFixture runs against DATABASE_URL and wipes it first, so
// point it at a throwaway database.
func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	p, err := NewPostgres(dbURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Close()
	})

	_, err = p.db.Exec(`TRUNCATE tasks, magic_links, sessions, profiles, projects, companies CASCADE`)
	require.NoError(t, err)
	return newFixture(t, p)
}

func TestPostgres_CreateTaskChecks(t *testing.T) {
	testCreateTaskChecks(t, newPostgresFixture(t))
}

func TestPostgres_ListTasksFilters(t *testing.T) {
	testListTasksFilters(t, newPostgresFixture(t))
}

func TestPostgres_ApproveAndDelete(t *testing.T) {
	testApproveAndDelete(t, newPostgresFixture(t))
}

func TestPostgres_Sessions(t *testing.T) {
	testSessions(t, newPostgresFixture(t))
}

func TestPostgres_MagicLinkIsSingleUse(t *testing.T) {
	testMagicLinkIsSingleUse(t, newPostgresFixture(t))
}

func TestPostgres_UpsertCompanyLogin(t *testing.T) {
	testUpsertCompanyLogin(t, newPostgresFixture(t))
}
