package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
)

type playerTableModel struct {
	ID                          int64         `db:"id"`
	OsuID                       int64         `db:"osu_id"`
	Username                    string        `db:"username"`
	Country                     string        `db:"country"`
	RankStandard                sql.NullInt32 `db:"rank_standard"`
	RankTaiko                   sql.NullInt32 `db:"rank_taiko"`
	RankCatch                   sql.NullInt32 `db:"rank_catch"`
	RankMania                   sql.NullInt32 `db:"rank_mania"`
	EarliestOsuGlobalRank       sql.NullInt32 `db:"earliest_osu_global_rank"`
	EarliestOsuGlobalRankDate   sql.NullTime  `db:"earliest_osu_global_rank_date"`
	EarliestTaikoGlobalRank     sql.NullInt32 `db:"earliest_taiko_global_rank"`
	EarliestTaikoGlobalRankDate sql.NullTime  `db:"earliest_taiko_global_rank_date"`
	EarliestCatchGlobalRank     sql.NullInt32 `db:"earliest_catch_global_rank"`
	EarliestCatchGlobalRankDate sql.NullTime  `db:"earliest_catch_global_rank_date"`
	EarliestManiaGlobalRank     sql.NullInt32 `db:"earliest_mania_global_rank"`
	EarliestManiaGlobalRankDate sql.NullTime  `db:"earliest_mania_global_rank_date"`
	CreatedAt                   time.Time     `db:"created_at"`
	UpdatedAt                   sql.NullTime  `db:"updated_at"`
}

// playerWriteModel holds every column a player write touches, in insert order.
type playerWriteModel struct {
	OsuID                       int64         `db:"osu_id"`
	Username                    string        `db:"username"`
	Country                     string        `db:"country"`
	RankStandard                sql.NullInt32 `db:"rank_standard"`
	RankTaiko                   sql.NullInt32 `db:"rank_taiko"`
	RankCatch                   sql.NullInt32 `db:"rank_catch"`
	RankMania                   sql.NullInt32 `db:"rank_mania"`
	EarliestOsuGlobalRank       sql.NullInt32 `db:"earliest_osu_global_rank"`
	EarliestOsuGlobalRankDate   sql.NullTime  `db:"earliest_osu_global_rank_date"`
	EarliestTaikoGlobalRank     sql.NullInt32 `db:"earliest_taiko_global_rank"`
	EarliestTaikoGlobalRankDate sql.NullTime  `db:"earliest_taiko_global_rank_date"`
	EarliestCatchGlobalRank     sql.NullInt32 `db:"earliest_catch_global_rank"`
	EarliestCatchGlobalRankDate sql.NullTime  `db:"earliest_catch_global_rank_date"`
	EarliestManiaGlobalRank     sql.NullInt32 `db:"earliest_mania_global_rank"`
	EarliestManiaGlobalRankDate sql.NullTime  `db:"earliest_mania_global_rank_date"`
	UpdatedAt                   sql.NullTime  `db:"updated_at"`
}

var playerSelectColumns = []string{
	"id",
	"osu_id",
	"username",
	"country",
	"rank_standard",
	"rank_taiko",
	"rank_catch",
	"rank_mania",
	"earliest_osu_global_rank",
	"earliest_osu_global_rank_date",
	"earliest_taiko_global_rank",
	"earliest_taiko_global_rank_date",
	"earliest_catch_global_rank",
	"earliest_catch_global_rank_date",
	"earliest_mania_global_rank",
	"earliest_mania_global_rank_date",
	"created_at",
	"updated_at",
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:                          row.ID,
		OsuID:                       row.OsuID,
		Username:                    row.Username,
		Country:                     row.Country,
		RankStandard:                nullInt32Ptr(row.RankStandard),
		RankTaiko:                   nullInt32Ptr(row.RankTaiko),
		RankCatch:                   nullInt32Ptr(row.RankCatch),
		RankMania:                   nullInt32Ptr(row.RankMania),
		EarliestOsuGlobalRank:       nullInt32Ptr(row.EarliestOsuGlobalRank),
		EarliestOsuGlobalRankDate:   nullTimePtr(row.EarliestOsuGlobalRankDate),
		EarliestTaikoGlobalRank:     nullInt32Ptr(row.EarliestTaikoGlobalRank),
		EarliestTaikoGlobalRankDate: nullTimePtr(row.EarliestTaikoGlobalRankDate),
		EarliestCatchGlobalRank:     nullInt32Ptr(row.EarliestCatchGlobalRank),
		EarliestCatchGlobalRankDate: nullTimePtr(row.EarliestCatchGlobalRankDate),
		EarliestManiaGlobalRank:     nullInt32Ptr(row.EarliestManiaGlobalRank),
		EarliestManiaGlobalRankDate: nullTimePtr(row.EarliestManiaGlobalRankDate),
		Created:                     row.CreatedAt,
		Updated:                     nullTimePtr(row.UpdatedAt),
	}
}

func playerWriteFromDomain(item player.Player) playerWriteModel {
	return playerWriteModel{
		OsuID:                       item.OsuID,
		Username:                    item.Username,
		Country:                     item.Country,
		RankStandard:                nullInt32(item.RankStandard),
		RankTaiko:                   nullInt32(item.RankTaiko),
		RankCatch:                   nullInt32(item.RankCatch),
		RankMania:                   nullInt32(item.RankMania),
		EarliestOsuGlobalRank:       nullInt32(item.EarliestOsuGlobalRank),
		EarliestOsuGlobalRankDate:   nullTime(item.EarliestOsuGlobalRankDate),
		EarliestTaikoGlobalRank:     nullInt32(item.EarliestTaikoGlobalRank),
		EarliestTaikoGlobalRankDate: nullTime(item.EarliestTaikoGlobalRankDate),
		EarliestCatchGlobalRank:     nullInt32(item.EarliestCatchGlobalRank),
		EarliestCatchGlobalRankDate: nullTime(item.EarliestCatchGlobalRankDate),
		EarliestManiaGlobalRank:     nullInt32(item.EarliestManiaGlobalRank),
		EarliestManiaGlobalRankDate: nullTime(item.EarliestManiaGlobalRankDate),
		UpdatedAt:                   nullTime(item.Updated),
	}
}
