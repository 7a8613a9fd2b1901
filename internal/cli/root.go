package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/config"
	"github.com/existflow/sitetask/internal/db"
	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/tui"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	serverURL  string
)

// clientConfig is loaded once per invocation by the root pre-run hook
var clientConfig *config.ClientConfig

var rootCmd = &cobra.Command{
	Use:   "sitetask",
	Short: "SiteTask - Subcontractor task tracking for construction sites",
	Long: `SiteTask tracks subcontractor work items per block and floor, flags late
work, and lets the site office approve completed tasks.

Run 'sitetask' without arguments to launch the interactive board.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClient()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.Err(err))
			cfg = config.DefaultClientConfig()
		}

		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
			configChanged = true
		}

		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.Err(err))
			}
		}
		clientConfig = cfg

		logConfig := logger.Config{
			Level:    logger.ParseLevel(cfg.LogLevel),
			FilePath: cfg.LogFile,
			Console:  cfg.LogConsole,
		}
		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Debug("SiteTask started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireLogin()
		if err != nil {
			return err
		}

		cache, err := db.OpenDefault()
		if err != nil {
			logger.Error("Failed to open cache", logger.Err(err))
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer func() {
			_ = cache.Close()
		}()

		watcher := client.NewWatcher(c, cache, clientConfig.PollInterval)
		defer watcher.Stop()

		logger.Info("Launching TUI")
		m := tui.NewModel(c, watcher)
		p := tea.NewProgram(m, tea.WithAltScreen())
		watcher.SetOnApproved(func(tasks []client.Task) {
			p.Send(tui.ApprovedMsg(tasks))
		})
		watcher.Start()

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.Err(err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Debug("SiteTask exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (saved to config)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(blocksCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(clearCmd)
}
