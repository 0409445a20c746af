package main

import (
	"algomancy.gg/deckhub/internal/bootstrap"
	cardRepo "algomancy.gg/deckhub/internal/modules/card/repository"
	cardService "algomancy.gg/deckhub/internal/modules/card/service"
	"github.com/spf13/cobra"
)

func newSeedCardsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-cards",
		Short: "Upsert the card catalogue from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.close(cmd)

			if file == "" {
				file = e.cfg.CardSeedPath
			}
			if err := bootstrap.Migrate(e.db); err != nil {
				return err
			}
			cards := cardService.NewCardService(cardRepo.NewCardRepository(e.db), e.log)
			return bootstrap.SeedCards(cmd.Context(), cards, file, e.log)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "card YAML (defaults to CARD_SEED_PATH)")
	return cmd
}
