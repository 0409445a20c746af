package achievement

import (
	achievementDto "algomancy.gg/deckhub/internal/modules/achievement/dto"
)

const (
	DefaultLikeXP             = 5
	DefaultDeckCreateXP       = 10
	DefaultDeckCreateDailyCap = 50
	DefaultLogXP              = 5
)

// Rates configures how much bonus XP each source is worth. A non-positive
// value makes that source contribute nothing.
type Rates struct {
	LikeXP             int
	DeckCreateXP       int
	DeckCreateDailyCap int
	LogXP              int
}

func DefaultRates() Rates {
	return Rates{
		LikeXP:             DefaultLikeXP,
		DeckCreateXP:       DefaultDeckCreateXP,
		DeckCreateDailyCap: DefaultDeckCreateDailyCap,
		LogXP:              DefaultLogXP,
	}
}

// BonusInput holds the raw aggregates for one user. A nil Rates means
// DefaultRates.
type BonusInput struct {
	TotalLikes int
	DeckCounts []achievementDto.DeckCount
	TotalLogs  int
	Rates      *Rates
}

// CalculateLikeXP returns totalLikes*likeRate, or 0 unless both are positive.
func CalculateLikeXP(totalLikes, likeRate int) int {
	if totalLikes <= 0 || likeRate <= 0 {
		return 0
	}
	return totalLikes * likeRate
}

// MaxDecksPerDay is the number of decks per day that still earn XP.
func MaxDecksPerDay(dailyCap, deckRate int) int {
	if dailyCap <= 0 || deckRate <= 0 {
		return 0
	}
	return dailyCap / deckRate
}

// CalculateDeckCreateXP applies the cap to each day separately and sums.
func CalculateDeckCreateXP(deckCounts []achievementDto.DeckCount, deckRate, dailyCap int) int {
	maxPerDay := MaxDecksPerDay(dailyCap, deckRate)
	if maxPerDay == 0 {
		return 0
	}

	total := 0
	for _, entry := range deckCounts {
		count := entry.Count
		if count <= 0 {
			continue
		}
		if count > maxPerDay {
			count = maxPerDay
		}
		total += count * deckRate
	}
	return total
}

// CalculateLogXP returns totalLogs*logRate, or 0 unless both are positive.
func CalculateLogXP(totalLogs, logRate int) int {
	if totalLogs <= 0 || logRate <= 0 {
		return 0
	}
	return totalLogs * logRate
}

// CalculateBonusXP never fails; bad aggregates only zero out their own term.
func CalculateBonusXP(in BonusInput) achievementDto.BonusBreakdown {
	rates := DefaultRates()
	if in.Rates != nil {
		rates = *in.Rates
	}

	likeXP := CalculateLikeXP(in.TotalLikes, rates.LikeXP)
	deckXP := CalculateDeckCreateXP(in.DeckCounts, rates.DeckCreateXP, rates.DeckCreateDailyCap)
	logXP := CalculateLogXP(in.TotalLogs, rates.LogXP)

	return achievementDto.BonusBreakdown{
		LikeXP:       likeXP,
		DeckXP:       deckXP,
		LogXP:        logXP,
		TotalBonusXP: likeXP + deckXP + logXP,
	}
}
