package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	basecache "github.com/riskibarqy/osu-tournament-rating/internal/platform/cache"
)

const playerListKey = "player:list"

// PlayerRepository caches directory reads. Writes go through and drop the
// affected keys.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) ListAll(ctx context.Context) ([]player.Player, error) {
	items, err := basecache.Load(ctx, r.cache, playerListKey, func(ctx context.Context) ([]player.Player, error) {
		items, err := r.next.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return append([]player.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]player.Player(nil), items...), nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (player.Player, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, playerIDKey(id), func(ctx context.Context) (cachedPlayer, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		return cachedPlayer{value: item, exists: exists}, err
	})
	if err != nil {
		return player.Player{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *PlayerRepository) GetByOsuID(ctx context.Context, osuID int64) (player.Player, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, playerOsuKey(osuID), func(ctx context.Context) (cachedPlayer, error) {
		item, exists, err := r.next.GetByOsuID(ctx, osuID)
		return cachedPlayer{value: item, exists: exists}, err
	})
	if err != nil {
		return player.Player{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) (player.Player, error) {
	created, err := r.next.Create(ctx, item)
	if err != nil {
		return player.Player{}, err
	}
	r.invalidate(ctx, created)
	return created, nil
}

func (r *PlayerRepository) Update(ctx context.Context, item player.Player) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item)
	return nil
}

// ListOutdated and ListMissingEarliestRank feed the sync workers and always hit the store.
func (r *PlayerRepository) ListOutdated(ctx context.Context, before time.Time, limit int) ([]player.Player, error) {
	return r.next.ListOutdated(ctx, before, limit)
}

func (r *PlayerRepository) ListMissingEarliestRank(ctx context.Context, limit int) ([]player.Player, error) {
	return r.next.ListMissingEarliestRank(ctx, limit)
}

func (r *PlayerRepository) invalidate(ctx context.Context, item player.Player) {
	r.cache.Delete(ctx, playerListKey, playerIDKey(item.ID), playerOsuKey(item.OsuID))
}

type cachedPlayer struct {
	value  player.Player
	exists bool
}

func playerIDKey(id int64) string {
	return "player:id:" + strconv.FormatInt(id, 10)
}

func playerOsuKey(osuID int64) string {
	return "player:osu:" + strconv.FormatInt(osuID, 10)
}

// UserRepository caches user lookups made on every authenticated request.
type UserRepository struct {
	next  user.Repository
	cache *basecache.Store
}

func NewUserRepository(next user.Repository, cache *basecache.Store) *UserRepository {
	return &UserRepository{next: next, cache: cache}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (user.User, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, "user:id:"+strconv.FormatInt(id, 10), func(ctx context.Context) (cachedUser, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		return cachedUser{value: item, exists: exists}, err
	})
	if err != nil {
		return user.User{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *UserRepository) GetByPlayerID(ctx context.Context, playerID int64) (user.User, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, "user:player:"+strconv.FormatInt(playerID, 10), func(ctx context.Context) (cachedUser, error) {
		item, exists, err := r.next.GetByPlayerID(ctx, playerID)
		return cachedUser{value: item, exists: exists}, err
	})
	if err != nil {
		return user.User{}, false, err
	}
	return cached.value, cached.exists, nil
}

type cachedUser struct {
	value  user.User
	exists bool
}
