package cli

import (
	"context"
	"fmt"

	"github.com/existflow/sitetask/internal/client"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as completed",
	Long: `Mark a task as completed. The task must be in progress.

Examples:
  sitetask done abc123`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var startCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start working on a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop [task-id]",
	Short: "Move a task back to planned",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

type taskAction func(ctx context.Context, id string) (*client.Task, error)

func changeTask(ref string, pick func(c *client.Client) taskAction, format string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	t, err := resolveTask(ctx, c, ref)
	if err != nil {
		return explain(err)
	}

	updated, err := pick(c)(ctx, t.ID)
	if err != nil {
		return explain(err)
	}

	fmt.Printf(format, updated.Title, updated.Display.Remaining)
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	return changeTask(args[0], func(c *client.Client) taskAction { return c.CompleteTask },
		"✓ Completed: \"%s\" (%s), waiting for approval\n")
}

func runStart(cmd *cobra.Command, args []string) error {
	return changeTask(args[0], func(c *client.Client) taskAction { return c.StartTask },
		"▶ Started: \"%s\" (%s)\n")
}

func runStop(cmd *cobra.Command, args []string) error {
	return changeTask(args[0], func(c *client.Client) taskAction { return c.StopTask },
		"○ Planned: \"%s\" (%s)\n")
}
