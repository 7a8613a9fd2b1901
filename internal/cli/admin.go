package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Site office commands",
	Long:  `Review the approval queue and approve or reject completed work.`,
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List tasks waiting for approval",
	RunE:  runQueue,
}

var approveCmd = &cobra.Command{
	Use:   "approve [task-id...]",
	Short: "Approve tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runApprove,
}

var rejectCmd = &cobra.Command{
	Use:   "reject [task-id]",
	Short: "Reject and delete an unapproved task",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

var (
	queueProject string
	rejectYes    bool
)

func init() {
	adminCmd.AddCommand(queueCmd)
	adminCmd.AddCommand(approveCmd)
	adminCmd.AddCommand(rejectCmd)

	queueCmd.Flags().StringVarP(&queueProject, "project", "P", "", "Project id")
	rejectCmd.Flags().BoolVarP(&rejectYes, "yes", "y", false, "Do not ask for confirmation")
}

func runQueue(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	list, err := c.Queue(ctx, queueProject)
	if err != nil {
		return explain(err)
	}
	if len(list.Tasks) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	printTasks("Approval queue", list)
	return nil
}

func runApprove(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	for _, ref := range args {
		task, err := resolveTask(ctx, c, ref)
		if err != nil {
			return explain(err)
		}
		approved, err := c.Approve(ctx, task.ID)
		if err != nil {
			return explain(err)
		}
		fmt.Printf("✅ Approved: \"%s\" (%s)\n", approved.Title, approved.CompanyName)
	}
	return nil
}

func runReject(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	task, err := resolveTask(ctx, c, args[0])
	if err != nil {
		return explain(err)
	}

	if !rejectYes && !confirm(fmt.Sprintf("About to reject: \"%s\" (%s)", task.Title, task.CompanyName)) {
		fmt.Println("Cancelled.")
		return nil
	}

	deleted, err := c.Reject(ctx, task.ID)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("🗑️  Rejected: \"%s\" (%s)\n", deleted.Title, deleted.CompanyName)
	return nil
}
