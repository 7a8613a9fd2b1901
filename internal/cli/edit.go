package cli

import (
	"fmt"
	"time"

	"github.com/existflow/sitetask/internal/model"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task",
	Long: `Change fields of a task. Only the flags you pass are changed.

Examples:
  sitetask edit abc123 --due +3
  sitetask edit abc123 --floors 2-6
  sitetask edit abc123 --depends none`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editTitle   string
	editNotes   string
	editBlock   string
	editFloor   string
	editFloors  string
	editStart   string
	editDue     string
	editDepends string
)

func init() {
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&editNotes, "notes", "n", "", "New notes")
	editCmd.Flags().StringVarP(&editBlock, "block", "b", "", "New block")
	editCmd.Flags().StringVarP(&editFloor, "floor", "f", "", "Single floor, or \"none\" to clear")
	editCmd.Flags().StringVar(&editFloors, "floors", "", "Floor range, or \"none\" to clear")
	editCmd.Flags().StringVar(&editStart, "start", "", "Start date")
	editCmd.Flags().StringVarP(&editDue, "due", "d", "", "Due date")
	editCmd.Flags().StringVar(&editDepends, "depends", "", "Dependent company, or \"none\" to clear")
}

func runEdit(cmd *cobra.Command, args []string) error {
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

	var patch model.TaskPatch
	flags := cmd.Flags()
	now := time.Now()

	if flags.Changed("title") {
		patch.Title = &editTitle
	}
	if flags.Changed("notes") {
		patch.Notes = &editNotes
	}
	if flags.Changed("block") {
		patch.Block = &editBlock
	}
	if flags.Changed("floor") {
		if editFloor == "none" {
			patch.ClearFloor = true
		} else {
			k, err := parseFloor(editFloor)
			if err != nil {
				return err
			}
			patch.Floor = &k
			patch.ClearFloorRange = true
		}
	}
	if flags.Changed("floors") {
		if editFloors == "none" {
			patch.ClearFloorRange = true
		} else {
			from, to, err := parseFloorRange(editFloors)
			if err != nil {
				return err
			}
			patch.FloorFrom, patch.FloorTo = &from, &to
			patch.ClearFloor = true
		}
	}
	if flags.Changed("start") {
		d, err := model.ParseDay(editStart, now)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		patch.StartDate = &d
	}
	if flags.Changed("due") {
		d, err := model.ParseDay(editDue, now)
		if err != nil {
			return fmt.Errorf("due: %w", err)
		}
		patch.DueDate = &d
	}
	if flags.Changed("depends") {
		id := ""
		if editDepends != "none" {
			company, err := resolveCompany(ctx, c, editDepends)
			if err != nil {
				return explain(err)
			}
			id = company.ID
		}
		patch.DependentCompanyID = &id
	}

	if !patch.EditsFields() {
		return fmt.Errorf("nothing to change, see 'sitetask edit --help'")
	}

	updated, err := c.UpdateTask(ctx, task.ID, patch)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("✓ Updated [%s] %s: \"%s\" (%s)\n", shortID(updated.ID), location(*updated), updated.Title, updated.Display.Remaining)
	return nil
}
