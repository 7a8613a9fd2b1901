package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage subcontractor companies",
}

var companyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List companies",
	RunE:    runCompanyList,
}

var companyNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a company (admin only)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompanyNew,
}

var companyLoginCmd = &cobra.Command{
	Use:   "login [company] [email]",
	Short: "Create or reset a company's login (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompanyLogin,
}

var companyPrefix string

func init() {
	companyNewCmd.Flags().StringVar(&companyPrefix, "prefix", "", "Block prefix")

	companyCmd.AddCommand(companyListCmd)
	companyCmd.AddCommand(companyNewCmd)
	companyCmd.AddCommand(companyLoginCmd)
}

func runCompanyList(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	companies, err := c.ListCompanies(ctx)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("\n🏗️  Companies (%d)\n", len(companies))
	fmt.Println(strings.Repeat("─", 60))
	for _, co := range companies {
		login := ""
		if co.HasLogin {
			login = "🔑 " + co.LoginEmail
		}
		fmt.Printf("  %-8s  %-28s  %s\n", shortID(co.ID), truncate(co.Name, 28), login)
	}
	fmt.Println()
	return nil
}

func runCompanyNew(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	company, err := c.CreateCompany(ctx, strings.Join(args, " "), companyPrefix)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("✓ Created company: %s (ID: %s)\n", company.Name, company.ID)
	return nil
}

func runCompanyLogin(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	company, err := resolveCompany(ctx, c, args[0])
	if err != nil {
		return explain(err)
	}

	password := readPassword("Password for " + args[1] + ": ")
	profile, err := c.SetCompanyLogin(ctx, company.ID, args[1], password)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("🔑 %s can now log in as %s\n", company.Name, profile.Email)
	return nil
}
