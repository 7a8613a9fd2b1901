package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/existflow/sitetask/internal/db"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear local data",
	Long: `Clear the local notification cache, and with --session also forget the
saved login. Nothing on the server is touched.`,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().Bool("session", false, "Also forget the saved session")
	clearCmd.Flags().Bool("force", false, "Do not ask for confirmation")
}

func runClear(cmd *cobra.Command, args []string) error {
	session, _ := cmd.Flags().GetBool("session")
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		fmt.Printf("Are you sure you want to clear local data? (y/N): ")
		var response string
		_, _ = fmt.Scanln(&response)
		if strings.ToLower(response) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	path, err := db.DefaultDBPath()
	if err != nil {
		return err
	}

	fmt.Println("🧹 Clearing notification cache...")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	if session {
		cfg := currentConfig()
		cfg.ClearSession()
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println("Session forgotten.")
	}

	fmt.Println("Local data cleared.")
	return nil
}
