package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change client settings",
	Long: `Show or change client settings.

Examples:
  sitetask config                         # Show settings
  sitetask config set server https://site.example.com
  sitetask config set sort newest
  sitetask config set late-first false
  sitetask config set poll 1m`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	fmt.Printf("Config:     %s\n", cfg.Path())
	fmt.Printf("Server:     %s\n", cfg.ServerURL)
	fmt.Printf("Sort:       %s\n", cfg.Sort)
	fmt.Printf("Late first: %t\n", cfg.PrioritizeLate)
	fmt.Printf("Poll:       %s\n", cfg.PollInterval)
	fmt.Printf("Log level:  %s\n", cfg.LogLevel)
	if cfg.LogFile != "" {
		fmt.Printf("Log file:   %s\n", cfg.LogFile)
	}
	if cfg.IsLoggedIn() {
		fmt.Printf("User:       %s [%s]\n", cfg.Email, cfg.Role)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	key, value := strings.ToLower(args[0]), strings.TrimSpace(args[1])

	switch key {
	case "server":
		cfg.ServerURL = strings.TrimRight(value, "/")
	case "sort":
		cfg.Sort = string(lifecycle.ParseSortMode(value))
	case "late-first":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("late-first must be true or false")
		}
		cfg.PrioritizeLate = b
	case "poll":
		d, err := time.ParseDuration(value)
		if err != nil || d < time.Second {
			return fmt.Errorf("poll must be a duration of at least 1s")
		}
		cfg.PollInterval = d
	default:
		return fmt.Errorf("unknown setting %q (server, sort, late-first, poll)", key)
	}

	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("✓ %s = %s\n", key, value)
	return nil
}
