package httpapi

import (
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

type submitBatchRequest struct {
	TournamentName      string  `json:"tournament_name" validate:"required,max=512"`
	Abbreviation        string  `json:"abbreviation" validate:"max=32"`
	ForumPost           string  `json:"forum_post" validate:"omitempty,url"`
	RankRangeLowerBound int     `json:"rank_range_lower_bound" validate:"min=1"`
	TeamSize            int     `json:"team_size" validate:"min=1,max=8"`
	Mode                int     `json:"mode" validate:"min=0,max=3"`
	IDs                 []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type submitBatchDTO struct {
	TournamentID int64  `json:"tournament_id"`
	Inserted     int    `json:"inserted"`
	Updated      int    `json:"updated"`
	Status       string `json:"status"`
}

type setVerificationRequest struct {
	Status int `json:"status" validate:"min=0,max=2"`
}

type ratingUpdateRequest struct {
	PlayerID int64   `json:"player_id" validate:"gt=0"`
	Mode     int     `json:"mode" validate:"min=0,max=3"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma" validate:"gt=0"`
	MatchID  *int64  `json:"match_id,omitempty" validate:"omitempty,gt=0"`
}

func (r ratingUpdateRequest) toInput() usecase.RatingUpdateInput {
	return usecase.RatingUpdateInput{
		PlayerID: r.PlayerID,
		Mode:     gamemodeOf(r.Mode),
		Mu:       r.Mu,
		Sigma:    r.Sigma,
		MatchID:  r.MatchID,
	}
}

type matchDTO struct {
	ID                  int64      `json:"id"`
	MatchID             int64      `json:"match_id"`
	Name                string     `json:"name,omitempty"`
	TournamentID        int64      `json:"tournament_id"`
	RankRangeLowerBound int        `json:"rank_range_lower_bound"`
	TeamSize            int        `json:"team_size"`
	Mode                int        `json:"mode"`
	VerificationStatus  string     `json:"verification_status"`
	VerificationSource  *string    `json:"verification_source,omitempty"`
	VerificationInfo    string     `json:"verification_info,omitempty"`
	NeedsAutoCheck      bool       `json:"needs_auto_check"`
	IsAPIProcessed      bool       `json:"is_api_processed"`
	IsMergedDuplicate   bool       `json:"is_merged_duplicate"`
	SubmitterUserID     *int64     `json:"submitter_user_id,omitempty"`
	VerifierUserID      *int64     `json:"verifier_user_id,omitempty"`
	StartTime           *time.Time `json:"start_time,omitempty"`
	EndTime             *time.Time `json:"end_time,omitempty"`
}

func matchToDTO(m match.Match) matchDTO {
	out := matchDTO{
		ID:                  m.ID,
		MatchID:             m.MatchID,
		Name:                m.Name,
		TournamentID:        m.TournamentID,
		RankRangeLowerBound: m.RankRangeLowerBound,
		TeamSize:            m.TeamSize,
		Mode:                int(m.Mode),
		VerificationStatus:  m.VerificationStatus.String(),
		VerificationInfo:    m.VerificationInfo,
		NeedsAutoCheck:      m.NeedsAutoCheck,
		IsAPIProcessed:      m.IsAPIProcessed,
		IsMergedDuplicate:   m.IsMergedDuplicate,
		SubmitterUserID:     m.SubmitterUserID,
		VerifierUserID:      m.VerifierUserID,
		StartTime:           m.StartTime,
		EndTime:             m.EndTime,
	}
	if m.VerificationSource != nil {
		source := m.VerificationSource.String()
		out.VerificationSource = &source
	}
	return out
}

func matchesToDTO(items []match.Match) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, m := range items {
		out = append(out, matchToDTO(m))
	}
	return out
}

type duplicateSuspectDTO struct {
	MatchID          int64  `json:"match_id"`
	OsuMatchID       int64  `json:"osu_match_id"`
	Name             string `json:"name,omitempty"`
	Confirmed        *bool  `json:"confirmed,omitempty"`
	VerifierUserID   *int64 `json:"verifier_user_id,omitempty"`
	VerifierUsername string `json:"verifier_username,omitempty"`
}

type duplicateCollectionDTO struct {
	Root     matchDTO              `json:"root"`
	Suspects []duplicateSuspectDTO `json:"suspects"`
}

func duplicatesToDTO(items []usecase.DuplicateCollection) []duplicateCollectionDTO {
	out := make([]duplicateCollectionDTO, 0, len(items))
	for _, c := range items {
		suspects := make([]duplicateSuspectDTO, 0, len(c.Suspects))
		for _, s := range c.Suspects {
			suspects = append(suspects, duplicateSuspectDTO(s))
		}
		out = append(out, duplicateCollectionDTO{Root: matchToDTO(c.Root), Suspects: suspects})
	}
	return out
}

type verifyDuplicateDTO struct {
	RootID      int64 `json:"root_id"`
	Marked      int64 `json:"marked"`
	Confirmed   bool  `json:"confirmed"`
	Absorbed    int   `json:"absorbed"`
	ScoresMoved int   `json:"scores_moved"`
}

type playerDTO struct {
	ID        int64      `json:"id"`
	OsuID     int64      `json:"osu_id"`
	Username  string     `json:"username,omitempty"`
	Country   string     `json:"country,omitempty"`
	Ranks     rankSetDTO `json:"ranks"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type rankSetDTO struct {
	Standard *int `json:"osu,omitempty"`
	Taiko    *int `json:"taiko,omitempty"`
	Catch    *int `json:"fruits,omitempty"`
	Mania    *int `json:"mania,omitempty"`
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		ID:       p.ID,
		OsuID:    p.OsuID,
		Username: p.Username,
		Country:  p.Country,
		Ranks: rankSetDTO{
			Standard: p.RankStandard,
			Taiko:    p.RankTaiko,
			Catch:    p.RankCatch,
			Mania:    p.RankMania,
		},
		UpdatedAt: p.Updated,
	}
}

type userDTO struct {
	ID        int64      `json:"id"`
	Roles     []string   `json:"roles"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type playerDetailDTO struct {
	playerDTO
	Ratings []ratingDTO `json:"ratings"`
	User    *userDTO    `json:"user,omitempty"`
}

func playerDetailToDTO(d usecase.PlayerDetail) playerDetailDTO {
	out := playerDetailDTO{
		playerDTO: playerToDTO(d.Player),
		Ratings:   ratingsToDTO(d.Ratings),
	}
	if d.User != nil {
		out.User = &userDTO{ID: d.User.ID, Roles: d.User.Roles.Strings(), LastLogin: d.User.LastLogin}
	}
	return out
}

type ratingDTO struct {
	PlayerID     int64      `json:"player_id"`
	Mode         int        `json:"mode"`
	Mu           float64    `json:"mu"`
	Sigma        float64    `json:"sigma"`
	MuInitial    float64    `json:"mu_initial"`
	SigmaInitial float64    `json:"sigma_initial"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func ratingToDTO(r rating.Rating) ratingDTO {
	return ratingDTO{
		PlayerID:     r.PlayerID,
		Mode:         int(r.Mode),
		Mu:           r.Mu,
		Sigma:        r.Sigma,
		MuInitial:    r.MuInitial,
		SigmaInitial: r.SigmaInitial,
		CreatedAt:    r.Created,
		UpdatedAt:    r.Updated,
	}
}

func ratingsToDTO(items []rating.Rating) []ratingDTO {
	out := make([]ratingDTO, 0, len(items))
	for _, r := range items {
		out = append(out, ratingToDTO(r))
	}
	return out
}

type ratingHistoryDTO struct {
	Mode      int       `json:"mode"`
	Mu        float64   `json:"mu"`
	Sigma     float64   `json:"sigma"`
	MatchID   *int64    `json:"match_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func historyToDTO(items []rating.History) []ratingHistoryDTO {
	out := make([]ratingHistoryDTO, 0, len(items))
	for _, h := range items {
		out = append(out, ratingHistoryDTO{
			Mode:      int(h.Mode),
			Mu:        h.Mu,
			Sigma:     h.Sigma,
			MatchID:   h.MatchID,
			CreatedAt: h.Created,
		})
	}
	return out
}

type userInfoDTO struct {
	UserID   int64    `json:"user_id"`
	PlayerID *int64   `json:"player_id,omitempty"`
	OsuID    int64    `json:"osu_id,omitempty"`
	Username string   `json:"username,omitempty"`
	Country  string   `json:"country,omitempty"`
	Roles    []string `json:"roles"`
}

func userInfoToDTO(info usecase.UserInfo) userInfoDTO {
	return userInfoDTO{
		UserID:   info.UserID,
		PlayerID: info.PlayerID,
		OsuID:    info.OsuID,
		Username: info.Username,
		Country:  info.Country,
		Roles:    rolesOrEmpty(info.Roles),
	}
}

func rolesOrEmpty(roles user.RoleSet) []string {
	if roles == nil {
		return []string{}
	}
	return roles.Strings()
}

type playerStatsDTO struct {
	PlayerID int64              `json:"player_id"`
	OsuID    int64              `json:"osu_id"`
	Mode     int                `json:"mode"`
	Rank     *int               `json:"rank,omitempty"`
	Rating   *ratingDTO         `json:"rating,omitempty"`
	PeakMu   float64            `json:"peak_mu"`
	Matches  int                `json:"matches"`
	History  []ratingHistoryDTO `json:"history"`
}

func playerStatsToDTO(s usecase.PlayerStats) playerStatsDTO {
	out := playerStatsDTO{
		PlayerID: s.PlayerID,
		OsuID:    s.OsuID,
		Mode:     int(s.Mode),
		Rank:     s.Rank,
		PeakMu:   s.PeakMu,
		Matches:  s.Matches,
		History:  historyToDTO(s.History),
	}
	if s.Rating != nil {
		r := ratingToDTO(*s.Rating)
		out.Rating = &r
	}
	return out
}
