package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "bullcow",
		Short: "CLI for the bulls and cows duel server",
		Long: `bullcow is a CLI for the bulls and cows duel server.

It can check server health and stats, list match history, and play live
games over WebSocket from the terminal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Resolve a stable player id so reconnects find the same seat
			if err := cfg.LoadPlayerID(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.PlayerID)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: BULLCOW_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerID, "player-id", cfg.PlayerID, "Player id (env: BULLCOW_PLAYER_ID)")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerIDFile, "player-id-file", cfg.PlayerIDFile, "Player id file path (env: BULLCOW_PLAYER_ID_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newPlayCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
