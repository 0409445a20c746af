package achievement

import (
	"math"

	"algomancy.gg/deckhub/pkg/dto"
)

// Rank thresholds (achievement XP).
const (
	XPAlgomancer   = 10000
	XPArchon       = 5000
	XPElementalist = 2500
	XPAdept        = 1000
	XPApprentice   = 250
	XPInitiate     = 0
)

// Rank is one tier of the fixed rank table. MaxXP is nil for the top tier.
type Rank struct {
	Key   string
	Name  string
	MinXP int
	MaxXP *int
}

// rankTable is ordered by MinXP ascending. MaxXP is derived from the next
// tier so the table stays contiguous.
var rankTable = buildRankTable([]Rank{
	{Key: "initiate", Name: "Initiate", MinXP: XPInitiate},
	{Key: "apprentice", Name: "Apprentice", MinXP: XPApprentice},
	{Key: "adept", Name: "Adept", MinXP: XPAdept},
	{Key: "elementalist", Name: "Elementalist", MinXP: XPElementalist},
	{Key: "archon", Name: "Archon", MinXP: XPArchon},
	{Key: "algomancer", Name: "Algomancer", MinXP: XPAlgomancer},
})

func buildRankTable(tiers []Rank) []Rank {
	for i := 0; i < len(tiers)-1; i++ {
		maxXP := tiers[i+1].MinXP - 1
		tiers[i].MaxXP = &maxXP
	}
	return tiers
}

// clone detaches MaxXP so callers cannot write through to rankTable.
func (r Rank) clone() Rank {
	if r.MaxXP != nil {
		maxXP := *r.MaxXP
		r.MaxXP = &maxXP
	}
	return r
}

// Ranks returns a copy of the rank table, lowest tier first.
func Ranks() []Rank {
	out := make([]Rank, len(rankTable))
	for i, r := range rankTable {
		out[i] = r.clone()
	}
	return out
}

// SanitizeXP converts an untrusted number to a usable XP value: NaN and
// negatives become 0, +Inf saturates.
func SanitizeXP(v float64) int {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(v)
}

func rankIndex(xp int) int {
	if xp < 0 {
		xp = 0
	}
	idx := 0
	for i, r := range rankTable {
		if r.MinXP <= xp {
			idx = i
		}
	}
	return idx
}

// RankForXP returns the highest tier whose MinXP is <= xp.
func RankForXP(xp int) Rank {
	return rankTable[rankIndex(xp)].clone()
}

// RankProgress describes where xp sits inside its tier.
type RankProgress struct {
	Current  Rank
	Next     *Rank
	Progress float64
}

// ProgressForXP returns the current tier, the next tier (nil at the top) and
// the fraction of the way to it, clamped to [0,1].
func ProgressForXP(xp int) RankProgress {
	if xp < 0 {
		xp = 0
	}
	idx := rankIndex(xp)
	current := rankTable[idx].clone()

	if idx == len(rankTable)-1 {
		return RankProgress{Current: current, Next: nil, Progress: 1}
	}

	next := rankTable[idx+1].clone()
	span := float64(next.MinXP - current.MinXP)
	progress := float64(xp-current.MinXP) / span

	return RankProgress{
		Current:  current,
		Next:     &next,
		Progress: math.Max(0, math.Min(1, progress)),
	}
}

// StatusForXP builds the presentation view of xp.
func StatusForXP(xp int) dto.RankStatus {
	if xp < 0 {
		xp = 0
	}
	p := ProgressForXP(xp)

	status := dto.RankStatus{
		RankKey:   p.Current.Key,
		RankName:  p.Current.Name,
		CurrentXP: xp,
		RankMinXP: p.Current.MinXP,
		Progress:  math.Round(p.Progress*10000) / 10000,
	}
	if p.Next != nil {
		key, name, minXP := p.Next.Key, p.Next.Name, p.Next.MinXP
		status.NextRankKey = &key
		status.NextRankName = &name
		status.NextRankXP = &minXP
	}
	return status
}
