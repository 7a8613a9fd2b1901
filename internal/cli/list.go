package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List the tasks you can see.

Examples:
  sitetask list
  sitetask ls --mine
  sitetask ls --approved --sort newest
  sitetask ls --recent`,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show a task in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var (
	listMine     bool
	listApproved bool
	listRecent   bool
	listSort     string
	listLate     bool
	listProject  string
)

func init() {
	listCmd.Flags().BoolVarP(&listMine, "mine", "m", false, "Only tasks of your company")
	listCmd.Flags().BoolVarP(&listApproved, "approved", "a", false, "Only approved tasks")
	listCmd.Flags().BoolVarP(&listRecent, "recent", "r", false, "Only recently approved tasks")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "", "Sort mode (urgency, newest)")
	listCmd.Flags().BoolVar(&listLate, "late-first", true, "Put late tasks first")
	listCmd.Flags().StringVarP(&listProject, "project", "P", "", "Project id")
}

func runList(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	cfg := currentConfig()
	opts := client.ListOptions{
		Mine:                 listMine,
		ApprovedOnly:         listApproved,
		RecentlyApprovedOnly: listRecent,
		PrioritizeLate:       cfg.PrioritizeLate,
		ProjectID:            listProject,
		Sort:                 lifecycle.ParseSortMode(cfg.Sort),
	}
	if cmd.Flags().Changed("late-first") {
		opts.PrioritizeLate = listLate
	}
	if listSort != "" {
		opts.Sort = lifecycle.ParseSortMode(listSort)
	}

	list, err := c.ListTasks(ctx, opts)
	if err != nil {
		return explain(err)
	}

	if len(list.Tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	printTasks(listTitle(opts), list)
	return nil
}

func listTitle(opts client.ListOptions) string {
	switch {
	case opts.RecentlyApprovedOnly:
		return "Recently approved"
	case opts.ApprovedOnly:
		return "Approved"
	case opts.Mine:
		return "My tasks"
	default:
		return "All tasks"
	}
}

func printTasks(title string, list *client.TaskList) {
	fmt.Printf("\n📁 %s (%d, %d late) · %s\n", title, len(list.Tasks), list.LateCount, list.Today)
	fmt.Println(strings.Repeat("─", 90))

	for _, t := range list.Tasks {
		printTask(t)
	}
	fmt.Println()
}

func statusIcon(t client.Task) string {
	switch t.Display.Status {
	case lifecycle.StatusCompleted:
		if t.IsApproved {
			return "[✓]"
		}
		return "[x]"
	case lifecycle.StatusLate:
		return "[!]"
	case lifecycle.StatusInProgress:
		return "[>]"
	default:
		return "[ ]"
	}
}

func location(t client.Task) string {
	if t.Display.Floor == "" {
		return t.Block
	}
	return t.Block + " / " + t.Display.Floor
}

func printTask(t client.Task) {
	warning := ""
	switch t.Display.Warning {
	case lifecycle.WarningOwnWorkLate:
		warning = "⚠️  late"
	case lifecycle.WarningPendingDependency:
		warning = "⏳ waiting on " + t.DependentCompanyName
	}

	fmt.Printf("  %s  %-8s  %-14s  %-30s  %-16s  %-20s  %s\n",
		statusIcon(t),
		shortID(t.ID),
		truncate(location(t), 14),
		truncate(t.Title, 30),
		truncate(t.CompanyName, 16),
		t.Display.Remaining,
		warning,
	)
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	t, err := resolveTask(ctx, c, args[0])
	if err != nil {
		return explain(err)
	}

	fmt.Printf("\n%s %s\n", statusIcon(*t), t.Title)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("  ID:        %s\n", t.ID)
	fmt.Printf("  Company:   %s\n", t.CompanyName)
	fmt.Printf("  Location:  %s\n", location(*t))
	fmt.Printf("  Dates:     %s → %s\n", t.StartDate, t.DueDate)
	fmt.Printf("  Status:    %s (%s)\n", t.Display.Status, t.Display.Remaining)
	if t.HasDependency() {
		fmt.Printf("  Depends:   %s\n", t.DependentCompanyName)
	}
	if t.Display.Warning != lifecycle.WarningNone {
		fmt.Printf("  Warning:   %s\n", t.Display.Warning)
	}
	if t.IsApproved && t.ApprovedAt != nil {
		fmt.Printf("  Approved:  %s\n", t.ApprovedAt.Local().Format("2006-01-02 15:04"))
	}
	if t.Notes != "" {
		fmt.Printf("  Notes:     %s\n", t.Notes)
	}
	fmt.Println()
	return nil
}
