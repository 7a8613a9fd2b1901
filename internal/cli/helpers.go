package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/config"
	"github.com/existflow/sitetask/internal/model"
)

const requestTimeout = 30 * time.Second

// errNotLoggedIn is returned by commands that need a session
var errNotLoggedIn = errors.New("not logged in, run 'sitetask auth login' first")

func currentConfig() *config.ClientConfig {
	if clientConfig == nil {
		cfg, err := config.LoadClient()
		if err != nil {
			cfg = config.DefaultClientConfig()
		}
		clientConfig = cfg
	}
	return clientConfig
}

// requireLogin returns an API client with a saved session
func requireLogin() (*client.Client, error) {
	c := client.New(currentConfig())
	if !c.IsLoggedIn() {
		return nil, errNotLoggedIn
	}
	return c, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// explain turns API errors into the message the user should act on
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrUnauthenticated):
		return fmt.Errorf("session expired or invalid, run 'sitetask auth login' again: %w", err)
	case errors.Is(err, model.ErrForbidden):
		return fmt.Errorf("not allowed: %w", err)
	case errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("not found: %w", err)
	default:
		return err
	}
}

// resolveTask finds a task by id or unique id prefix
func resolveTask(ctx context.Context, c *client.Client, ref string) (*client.Task, error) {
	if len(ref) >= 36 {
		return c.GetTask(ctx, ref)
	}

	list, err := c.ListTasks(ctx, client.ListOptions{})
	if err != nil {
		return nil, err
	}
	return matchPrefix(list.Tasks, ref)
}

func matchPrefix(tasks []client.Task, ref string) (*client.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, fmt.Errorf("task id required")
	}

	var found *client.Task
	for i := range tasks {
		if strings.HasPrefix(strings.ToLower(tasks[i].ID), ref) {
			if found != nil {
				return nil, fmt.Errorf("task id %q is ambiguous", ref)
			}
			found = &tasks[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: task %s", model.ErrNotFound, ref)
	}
	return found, nil
}

// parseFloor accepts 5, -1 or B1 for basements
func parseFloor(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(s, "B") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid floor %q", s)
		}
		return -n, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid floor %q", s)
	}
	return n, nil
}

// parseFloorRange accepts "3-7" or "B2-4"
func parseFloorRange(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	// a leading minus belongs to the first floor
	idx := strings.Index(s[min(1, len(s)):], "-")
	if idx < 0 {
		return 0, 0, fmt.Errorf("invalid floor range %q, use FROM-TO", s)
	}
	idx += min(1, len(s))
	from, err := parseFloor(s[:idx])
	if err != nil {
		return 0, 0, err
	}
	to, err := parseFloor(s[idx+1:])
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func errorsIsUnauthenticated(err error) bool {
	return errors.Is(err, model.ErrUnauthenticated)
}
