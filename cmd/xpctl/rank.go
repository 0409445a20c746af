package main

import (
	"fmt"
	"strconv"

	achievement "algomancy.gg/deckhub/internal/modules/achievement/service"
	"github.com/spf13/cobra"
)

func newRankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank <xp>",
		Short: "Show the rank and progress for an XP value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("xp must be a number: %w", err)
			}

			status := achievement.StatusForXP(achievement.SanitizeXP(raw))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rank:     %s (%s)\n", status.RankName, status.RankKey)
			fmt.Fprintf(out, "xp:       %d\n", status.CurrentXP)
			if status.NextRankName != nil && status.NextRankXP != nil {
				fmt.Fprintf(out, "next:     %s at %d\n", *status.NextRankName, *status.NextRankXP)
			} else {
				fmt.Fprintln(out, "next:     -")
			}
			fmt.Fprintf(out, "progress: %.1f%%\n", status.Progress*100)
			return nil
		},
	}
}
