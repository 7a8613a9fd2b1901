package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Log in to the site server, check the current session, or change your password.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the site server",
	Long: `Login with email and password, or with a magic link.

Examples:
  sitetask auth login
  sitetask auth login --email beta@example.com --magic
  sitetask auth login --token 3f9a...`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from the site server",
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is logged in",
	RunE:  runAuthStatus,
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE:  runPassword,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(passwordCmd)

	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().Bool("magic", false, "Login using a magic link sent to --email")
	loginCmd.Flags().String("token", "", "Verify magic link token")
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(passwordBytes)
}

func printLoggedIn(v *model.Viewer) {
	if v == nil {
		fmt.Println("✅ Logged in successfully!")
		return
	}
	who := v.Email
	if v.CompanyName != "" {
		who += " (" + v.CompanyName + ")"
	}
	fmt.Printf("✅ Logged in as %s [%s]\n", who, v.Role)
}

func runLogin(cmd *cobra.Command, args []string) error {
	c := client.New(currentConfig())
	ctx, cancel := commandContext()
	defer cancel()

	email, _ := cmd.Flags().GetString("email")
	magic, _ := cmd.Flags().GetBool("magic")
	token, _ := cmd.Flags().GetString("token")
	reader := bufio.NewReader(os.Stdin)

	if token != "" {
		fmt.Println("🔄 Verifying magic link token...")
		v, err := c.VerifyMagicLink(ctx, token)
		if err != nil {
			return explain(err)
		}
		printLoggedIn(v)
		return nil
	}

	if email == "" {
		email = readLine(reader, "Email: ")
	}

	if magic {
		fmt.Printf("🔄 Requesting magic link for %s...\n", email)
		devToken, err := c.RequestMagicLink(ctx, email)
		if err != nil {
			return explain(err)
		}
		fmt.Println("📬 Magic link requested! Check your email (or server logs in dev).")
		if devToken != "" {
			fmt.Printf("🔑 Development Token: %s\n", devToken)
		}

		inputToken := readLine(reader, "Enter Magic Link Token: ")
		if inputToken == "" {
			fmt.Println("❌ Token required.")
			return nil
		}

		fmt.Println("🔄 Verifying magic link...")
		v, err := c.VerifyMagicLink(ctx, inputToken)
		if err != nil {
			return explain(err)
		}
		printLoggedIn(v)
		return nil
	}

	password := readPassword("Password: ")

	fmt.Println("🔄 Logging in...")
	v, err := c.Login(ctx, email, password)
	if err != nil {
		if errorsIsUnauthenticated(err) {
			return fmt.Errorf("invalid email or password")
		}
		return err
	}

	printLoggedIn(v)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	c := client.New(currentConfig())
	if !c.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	ctx, cancel := commandContext()
	defer cancel()

	fmt.Println("🔄 Logging out...")
	if err := c.Logout(ctx); err != nil {
		return err
	}

	fmt.Println("✅ Logged out successfully.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	fmt.Printf("Server: %s\n", cfg.ServerURL)

	c, err := requireLogin()
	if err != nil {
		fmt.Println("Not logged in.")
		return nil
	}

	ctx, cancel := commandContext()
	defer cancel()

	v, err := c.Session(ctx)
	if err != nil {
		if errorsIsUnauthenticated(err) {
			fmt.Println("⚠️  Saved session is no longer valid. Run 'sitetask auth login'.")
			return nil
		}
		return err
	}

	fmt.Printf("User:   %s\n", v.Email)
	fmt.Printf("Role:   %s\n", v.Role)
	if v.CompanyName != "" {
		fmt.Printf("Company: %s\n", v.CompanyName)
	}
	return nil
}

func runPassword(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}

	current := readPassword("Current Password: ")
	next := readPassword("New Password: ")
	confirm := readPassword("Confirm Password: ")

	if next != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := commandContext()
	defer cancel()

	fmt.Println("🔄 Changing password...")
	if err := c.ChangePassword(ctx, current, next); err != nil {
		return explain(err)
	}

	fmt.Println("✅ Password changed. Other devices were signed out.")
	return nil
}
