package player

import (
	"fmt"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
)

// Player is one osu! account. Ranks are written by the sync workers only.
type Player struct {
	ID       int64
	OsuID    int64
	Username string
	Country  string

	RankStandard *int
	RankTaiko    *int
	RankCatch    *int
	RankMania    *int

	EarliestOsuGlobalRank       *int
	EarliestOsuGlobalRankDate   *time.Time
	EarliestTaikoGlobalRank     *int
	EarliestTaikoGlobalRankDate *time.Time
	EarliestCatchGlobalRank     *int
	EarliestCatchGlobalRankDate *time.Time
	EarliestManiaGlobalRank     *int
	EarliestManiaGlobalRankDate *time.Time

	Created time.Time
	Updated *time.Time
}

func (p Player) Validate() error {
	if p.OsuID <= 0 {
		return fmt.Errorf("player osu id must be positive")
	}
	return nil
}

func (p Player) Rank(mode gamemode.Mode) *int {
	switch mode {
	case gamemode.Standard:
		return p.RankStandard
	case gamemode.Taiko:
		return p.RankTaiko
	case gamemode.Catch:
		return p.RankCatch
	case gamemode.Mania:
		return p.RankMania
	default:
		return nil
	}
}

func (p *Player) SetRank(mode gamemode.Mode, rank *int) {
	switch mode {
	case gamemode.Standard:
		p.RankStandard = rank
	case gamemode.Taiko:
		p.RankTaiko = rank
	case gamemode.Catch:
		p.RankCatch = rank
	case gamemode.Mania:
		p.RankMania = rank
	}
}

// EarliestRank returns the earliest known global rank for mode and when it was observed.
func (p Player) EarliestRank(mode gamemode.Mode) (*int, *time.Time) {
	switch mode {
	case gamemode.Standard:
		return p.EarliestOsuGlobalRank, p.EarliestOsuGlobalRankDate
	case gamemode.Taiko:
		return p.EarliestTaikoGlobalRank, p.EarliestTaikoGlobalRankDate
	case gamemode.Catch:
		return p.EarliestCatchGlobalRank, p.EarliestCatchGlobalRankDate
	case gamemode.Mania:
		return p.EarliestManiaGlobalRank, p.EarliestManiaGlobalRankDate
	default:
		return nil, nil
	}
}

func (p *Player) SetEarliestRank(mode gamemode.Mode, rank *int, at time.Time) {
	stamp := at
	switch mode {
	case gamemode.Standard:
		p.EarliestOsuGlobalRank, p.EarliestOsuGlobalRankDate = rank, &stamp
	case gamemode.Taiko:
		p.EarliestTaikoGlobalRank, p.EarliestTaikoGlobalRankDate = rank, &stamp
	case gamemode.Catch:
		p.EarliestCatchGlobalRank, p.EarliestCatchGlobalRankDate = rank, &stamp
	case gamemode.Mania:
		p.EarliestManiaGlobalRank, p.EarliestManiaGlobalRankDate = rank, &stamp
	}
}

// SeedEarliestRanks copies the current rank into every mode that has no earliest
// rank yet. The date is always stamped so the player is not picked up again.
func (p *Player) SeedEarliestRanks(now time.Time) {
	for _, mode := range gamemode.All {
		rank, at := p.EarliestRank(mode)
		if rank != nil || at != nil {
			continue
		}
		p.SetEarliestRank(mode, copyInt(p.Rank(mode)), now)
	}
}

// MissingEarliestRank reports whether the historical sync still has to look at p.
func (p Player) MissingEarliestRank() bool {
	return p.EarliestOsuGlobalRankDate == nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
