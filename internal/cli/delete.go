package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Delete a task by its ID.

Contractors can delete their own company's tasks until they are approved.

Examples:
  sitetask delete abc123
  sitetask rm abc123 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteYes bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	if !deleteYes && !confirm(fmt.Sprintf("About to delete: \"%s\" (ID: %s)", task.Title, task.ID)) {
		fmt.Println("Cancelled.")
		return nil
	}

	deleted, err := c.DeleteTask(ctx, task.ID)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("🗑️  Deleted: \"%s\" (%s)\n", deleted.Title, deleted.CompanyName)
	return nil
}

func confirm(prompt string) bool {
	fmt.Println(prompt)
	fmt.Print("Are you sure? [y/N]: ")
	var answer string
	_, _ = fmt.Scanln(&answer)
	return answer == "y" || answer == "Y"
}
