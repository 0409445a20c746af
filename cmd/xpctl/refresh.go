package main

import (
	"errors"
	"fmt"

	achievement "algomancy.gg/deckhub/internal/modules/achievement/service"
	userRepo "algomancy.gg/deckhub/internal/modules/user/repository"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRefreshCmd() *cobra.Command {
	var (
		user        string
		all         bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute stored achievement XP",
		Example: `  xpctl refresh --user pyromancer
  xpctl refresh --all --concurrency 16`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (user == "") == !all {
				return errors.New("pass exactly one of --user or --all")
			}

			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.close(cmd)

			svc := e.achievementService()
			ctx := cmd.Context()

			if all {
				summary, err := svc.RefreshAll(ctx, concurrency)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d/%d users (%d failed)\n", summary.Refreshed, summary.Total, summary.Failed)
				if summary.Failed > 0 {
					return fmt.Errorf("%d refreshes failed", summary.Failed)
				}
				return nil
			}

			userID, err := uuid.Parse(user)
			if err != nil {
				found, err := userRepo.NewUserRepository(e.db).FindByUsername(ctx, user)
				if err != nil {
					return fmt.Errorf("user %q: %w", user, err)
				}
				userID = found.ID
			}

			xp, err := svc.RefreshUserXP(ctx, userID)
			if err != nil {
				return err
			}
			status := achievement.StatusForXP(xp)
			e.log.Debug("refreshed", zap.Stringer("user_id", userID), zap.Int("xp", xp))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d XP (%s)\n", userID, xp, status.RankName)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user id or username")
	cmd.Flags().BoolVar(&all, "all", false, "refresh every user")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "parallel refreshes with --all")
	return cmd
}
