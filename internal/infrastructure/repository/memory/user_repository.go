package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
)

type UserRepository struct {
	db *Database
}

func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (user.User, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	return u, ok, nil
}

func (r *UserRepository) GetByPlayerID(_ context.Context, playerID int64) (user.User, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.PlayerID != nil && *u.PlayerID == playerID {
			return u, true, nil
		}
	}
	return user.User{}, false, nil
}

// Create stores a user; accounts are provisioned outside this service, so only seeding and tests use it.
func (r *UserRepository) Create(_ context.Context, item user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if item.PlayerID != nil {
		if _, ok := r.db.players[*item.PlayerID]; !ok {
			return user.User{}, fmt.Errorf("create user: player %d not found", *item.PlayerID)
		}
	}
	if item.ID == 0 {
		item.ID = r.db.nextID("users")
	} else {
		r.db.bumpSeq("users", item.ID)
	}
	if item.Created.IsZero() {
		item.Created = r.db.stamp()
	}
	r.db.users[item.ID] = item
	return item, nil
}
