package tournament

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
)

// Tournament groups matches submitted together under one name and mode.
type Tournament struct {
	ID                  int64
	Name                string
	Abbreviation        string
	ForumURL            string
	RankRangeLowerBound int
	TeamSize            int
	Mode                gamemode.Mode
	SubmitterUserID     *int64
	Created             time.Time
	Updated             *time.Time
}

func (t Tournament) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tournament name is required")
	}
	if !t.Mode.Valid() {
		return fmt.Errorf("invalid tournament mode %d", t.Mode)
	}
	if t.TeamSize < 1 {
		return fmt.Errorf("tournament team size must be at least 1")
	}
	if t.RankRangeLowerBound < 1 {
		return fmt.Errorf("tournament rank range lower bound must be at least 1")
	}
	return nil
}
