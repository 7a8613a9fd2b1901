package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/model"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  `List projects and, as an admin, create, reschedule, or close them.`,
}

var projectNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a project",
	Long: `Create a project with a delivery date.

Examples:
  sitetask project new "Tower" --end 2025-12-31`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE:    runProjectList,
}

var projectEditCmd = &cobra.Command{
	Use:   "edit [project-id]",
	Short: "Rename a project or move its end date",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectEdit,
}

var projectDeleteCmd = &cobra.Command{
	Use:     "close [project-id]",
	Aliases: []string{"rm"},
	Short:   "Deactivate a project",
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectDelete,
}

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Show the block and floor catalog",
	RunE:  runBlocks,
}

var (
	projectEnd    string
	projectName   string
	projectActive bool
)

func init() {
	projectNewCmd.Flags().StringVar(&projectEnd, "end", "", "Delivery date (YYYY-MM-DD, +N)")
	_ = projectNewCmd.MarkFlagRequired("end")
	projectEditCmd.Flags().StringVar(&projectEnd, "end", "", "New delivery date")
	projectEditCmd.Flags().StringVar(&projectName, "name", "", "New name")
	projectListCmd.Flags().BoolVar(&projectActive, "active", false, "Only active projects")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectEditCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}

func runProjectNew(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	end, err := model.ParseDay(projectEnd, time.Now())
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}

	p, err := c.CreateProject(ctx, strings.Join(args, " "), end)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("✓ Created project: %s (ID: %s, %s)\n", p.Name, p.ID, p.Countdown)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	projects, err := c.ListProjects(ctx, projectActive)
	if err != nil {
		return explain(err)
	}

	fmt.Println("\n📁 Projects")
	fmt.Println(strings.Repeat("─", 60))
	for _, p := range projects {
		state := "  "
		if !p.IsActive {
			state = "✗ "
		}
		fmt.Printf("  %s%-8s  %-24s  %s  %s\n", state, shortID(p.ID), truncate(p.Name, 24), p.EndDate, p.Countdown)
	}
	fmt.Println()
	return nil
}

func runProjectEdit(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	var patch model.ProjectPatch
	if cmd.Flags().Changed("name") {
		patch.Name = &projectName
	}
	if cmd.Flags().Changed("end") {
		end, err := model.ParseDay(projectEnd, time.Now())
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}
		patch.EndDate = &end
	}
	if patch.Name == nil && patch.EndDate == nil {
		return fmt.Errorf("nothing to change, pass --name or --end")
	}

	p, err := c.UpdateProject(ctx, args[0], patch)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("✓ Updated project: %s (%s)\n", p.Name, p.Countdown)
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	p, err := c.DeactivateProject(ctx, args[0])
	if err != nil {
		return explain(err)
	}

	fmt.Printf("✓ Closed project: %s\n", p.Name)
	return nil
}

func runBlocks(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	blocks, err := c.Blocks(ctx)
	if err != nil {
		return explain(err)
	}

	for _, b := range blocks {
		if len(b.FloorOptions) == 0 {
			fmt.Printf("  %-10s  no floors\n", b.Name)
			continue
		}
		first := b.FloorOptions[0]
		last := b.FloorOptions[len(b.FloorOptions)-1]
		fmt.Printf("  %-10s  %s … %s (%d floors)\n", b.Name,
			lifecycle.FormatFloor(first), lifecycle.FormatFloor(last), len(b.FloorOptions))
	}
	return nil
}
