package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/model"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a task to the active project.

Contractors always add tasks for their own company. Admins pick the company
with --company.

Examples:
  sitetask add "Cable trays" -b "B Blok" -f 5 --due +7
  sitetask add "Risers" -b "A Blok" --floors B2-12 --start today --due 2025-10-01
  sitetask add "Ceiling" -b "C Blok" -f 3 --due +10 --depends "Beta Elektrik"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addBlock   string
	addFloor   string
	addFloors  string
	addStart   string
	addDue     string
	addCompany string
	addDepends string
	addNotes   string
	addProject string
)

func init() {
	addCmd.Flags().StringVarP(&addBlock, "block", "b", "", "Block name, e.g. \"A Blok\"")
	addCmd.Flags().StringVarP(&addFloor, "floor", "f", "", "Single floor (5, B1)")
	addCmd.Flags().StringVar(&addFloors, "floors", "", "Floor range (3-7, B2-4)")
	addCmd.Flags().StringVar(&addStart, "start", "today", "Start date (YYYY-MM-DD, today, +N)")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "Due date (YYYY-MM-DD, tomorrow, +N)")
	addCmd.Flags().StringVarP(&addCompany, "company", "c", "", "Company name or id (admin only)")
	addCmd.Flags().StringVar(&addDepends, "depends", "", "Company whose work this task waits on")
	addCmd.Flags().StringVarP(&addNotes, "notes", "n", "", "Notes")
	addCmd.Flags().StringVarP(&addProject, "project", "P", "", "Project id (defaults to the active project)")
	_ = addCmd.MarkFlagRequired("block")
	_ = addCmd.MarkFlagRequired("due")
}

func runAdd(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	now := time.Now()
	nt := client.NewTask{
		ProjectID: addProject,
		Block:     addBlock,
		Title:     strings.Join(args, " "),
		Notes:     addNotes,
	}

	if nt.StartDate, err = model.ParseDay(addStart, now); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if nt.DueDate, err = model.ParseDay(addDue, now); err != nil {
		return fmt.Errorf("due: %w", err)
	}

	if addFloor != "" {
		k, err := parseFloor(addFloor)
		if err != nil {
			return err
		}
		nt.Floor = &k
	}
	if addFloors != "" {
		from, to, err := parseFloorRange(addFloors)
		if err != nil {
			return err
		}
		nt.FloorFrom, nt.FloorTo = &from, &to
	}

	if addCompany != "" {
		company, err := resolveCompany(ctx, c, addCompany)
		if err != nil {
			return explain(err)
		}
		nt.CompanyID = company.ID
	}
	if addDepends != "" {
		company, err := resolveCompany(ctx, c, addDepends)
		if err != nil {
			return explain(err)
		}
		nt.DependentCompanyID = &company.ID
	}

	t, err := c.CreateTask(ctx, nt)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("✓ Added [%s] %s: \"%s\" (%s)\n", shortID(t.ID), location(*t), t.Title, t.Display.Remaining)
	return nil
}

// resolveCompany finds a company by id, exact name, or unique name prefix
func resolveCompany(ctx context.Context, c *client.Client, ref string) (*model.Company, error) {
	companies, err := c.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	return matchCompany(companies, ref)
}

func matchCompany(companies []model.Company, ref string) (*model.Company, error) {
	needle := strings.ToLower(strings.TrimSpace(ref))
	var prefixed []int
	for i := range companies {
		name := strings.ToLower(companies[i].Name)
		if companies[i].ID == ref || name == needle {
			return &companies[i], nil
		}
		if strings.HasPrefix(name, needle) {
			prefixed = append(prefixed, i)
		}
	}

	switch len(prefixed) {
	case 1:
		return &companies[prefixed[0]], nil
	case 0:
		return nil, fmt.Errorf("%w: company %q", model.ErrNotFound, ref)
	default:
		return nil, fmt.Errorf("company %q is ambiguous", ref)
	}
}
