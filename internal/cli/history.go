package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [player-id]",
		Short: "List finished matches for a player",
		Long: `List a player's finished matches, newest first.

Without an argument the CLI's own player id is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID := cfg.PlayerID
			if len(args) == 1 {
				playerID = args[0]
			}

			path := fmt.Sprintf("/api/v1/players/%s/matches", url.PathEscape(playerID))
			if limit > 0 {
				path += fmt.Sprintf("?limit=%d", limit)
			}

			var result MatchList
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of matches (server default 20, max 100)")

	return cmd
}
