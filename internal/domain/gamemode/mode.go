package gamemode

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is the osu! ruleset a match, rank or rating belongs to.
type Mode int

const (
	Standard Mode = 0
	Taiko    Mode = 1
	Catch    Mode = 2
	Mania    Mode = 3
)

// All lists every ruleset in the order the sync workers walk them.
var All = []Mode{Standard, Taiko, Catch, Mania}

func (m Mode) Valid() bool {
	return m >= Standard && m <= Mania
}

func (m Mode) String() string {
	switch m {
	case Standard:
		return "osu"
	case Taiko:
		return "taiko"
	case Catch:
		return "fruits"
	case Mania:
		return "mania"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Parse accepts either the numeric id or the ruleset name.
func Parse(raw string) (Mode, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "", "0", "osu", "std", "standard":
		return Standard, nil
	case "1", "taiko":
		return Taiko, nil
	case "2", "fruits", "catch", "ctb":
		return Catch, nil
	case "3", "mania":
		return Mania, nil
	default:
		return Standard, fmt.Errorf("unknown game mode %q", raw)
	}
}
