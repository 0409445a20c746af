package bootstrap

import (
	"context"
	"fmt"
	"os"

	"algomancy.gg/deckhub/internal/entity"
	cardDto "algomancy.gg/deckhub/internal/modules/card/dto"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Migrate creates or alters every postgres table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Card{},
		&entity.Deck{},
		&entity.DeckCard{},
		&entity.DeckLike{},
		&entity.Notification{},
		&entity.Competition{},
		&entity.CompetitionEntry{},
	)
}

// CardUpserter is the slice of the card service used for seeding.
type CardUpserter interface {
	UpsertCards(ctx context.Context, input []cardDto.UpsertCardInput) (int, error)
}

type cardSeedFile struct {
	Cards []cardDto.UpsertCardInput `yaml:"cards"`
}

// LoadCardSeed parses a YAML card list of the form `cards: [...]`.
func LoadCardSeed(path string) ([]cardDto.UpsertCardInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card seed %s: %w", path, err)
	}

	var file cardSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse card seed %s: %w", path, err)
	}

	for i, c := range file.Cards {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("card seed %s: entry %d needs id and name", path, i)
		}
	}
	return file.Cards, nil
}

// SeedCards upserts the catalogue from path. An empty path is a no-op.
func SeedCards(ctx context.Context, cards CardUpserter, path string, log *zap.Logger) error {
	if path == "" {
		return nil
	}

	input, err := LoadCardSeed(path)
	if err != nil {
		return err
	}

	n, err := cards.UpsertCards(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to seed cards: %w", err)
	}

	log.Info("card catalogue seeded", zap.String("path", path), zap.Int("cards", n))
	return nil
}
