package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
)

const (
	SeedAdminUserID    int64 = 1
	SeedVerifierUserID int64 = 2
)

func SeedPlayers() []player.Player {
	return []player.Player{
		{ID: 1, OsuID: 4787150, Username: "Vaxei", Country: "US"},
		{ID: 2, OsuID: 7562902, Username: "mrekk", Country: "AU"},
		{ID: 3, OsuID: 2558286, Username: "Toy", Country: "DE"},
		{ID: 4, OsuID: 9269034, Username: "Akolibed", Country: "PL"},
	}
}

func SeedUsers() []user.User {
	adminPlayer := int64(1)
	verifierPlayer := int64(3)
	return []user.User{
		{ID: SeedAdminUserID, PlayerID: &adminPlayer, Roles: user.NewRoleSet(user.RoleUser, user.RoleAdmin)},
		{ID: SeedVerifierUserID, PlayerID: &verifierPlayer, Roles: user.NewRoleSet(user.RoleUser, user.RoleMatchVerifier)},
	}
}

// NewSeededDatabase returns a store preloaded with the development fixtures.
func NewSeededDatabase(ctx context.Context) (*Database, error) {
	db := NewDatabase()
	players := NewPlayerRepository(db)
	for _, p := range SeedPlayers() {
		if _, err := players.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("seed player %d: %w", p.OsuID, err)
		}
	}
	users := NewUserRepository(db)
	for _, u := range SeedUsers() {
		if _, err := users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}
	return db, nil
}
