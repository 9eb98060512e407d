package memory

import (
	"sync"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/duplicate"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/tournament"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
)

type ratingKey struct {
	playerID int64
	mode     gamemode.Mode
}

// Database is the shared in-process store behind every memory repository.
// A single lock makes multi-table writes atomic the way a transaction would.
type Database struct {
	mu  sync.RWMutex
	now func() time.Time

	seq map[string]int64

	tournaments map[int64]tournament.Tournament
	matches     map[int64]match.Match
	matchByOsu  map[int64]int64
	scores      map[int64]match.Score
	xrefs       map[int64]duplicate.XRef
	players     map[int64]player.Player
	playerByOsu map[int64]int64
	ratings     map[ratingKey]rating.Rating
	histories   []rating.History
	users       map[int64]user.User
}

func NewDatabase() *Database {
	return &Database{
		now:         time.Now,
		seq:         make(map[string]int64),
		tournaments: make(map[int64]tournament.Tournament),
		matches:     make(map[int64]match.Match),
		matchByOsu:  make(map[int64]int64),
		scores:      make(map[int64]match.Score),
		xrefs:       make(map[int64]duplicate.XRef),
		players:     make(map[int64]player.Player),
		playerByOsu: make(map[int64]int64),
		ratings:     make(map[ratingKey]rating.Rating),
		users:       make(map[int64]user.User),
	}
}

// WithClock overrides the timestamp source; used by tests.
func (db *Database) WithClock(now func() time.Time) *Database {
	if now != nil {
		db.now = now
	}
	return db
}

// nextID must be called with the write lock held.
func (db *Database) nextID(table string) int64 {
	db.seq[table]++
	return db.seq[table]
}

func (db *Database) bumpSeq(table string, id int64) {
	if id > db.seq[table] {
		db.seq[table] = id
	}
}

func (db *Database) stamp() time.Time {
	return db.now().UTC()
}
