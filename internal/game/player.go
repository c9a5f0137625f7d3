package game

import (
	"github.com/manaforge/rules-engine/internal/game/mana"
	"github.com/manaforge/rules-engine/internal/game/primitives"
)

// Player holds one player's life, zones, and commander bookkeeping. Zone
// slices hold object ids; library and hand are ordered with the library top
// at the end of the slice.
type Player struct {
	ID       int        `json:"id"`
	Life     int        `json:"life"`
	ManaPool *mana.Pool `json:"-"`

	Library     []string `json:"library"`
	Hand        []string `json:"hand"`
	Battlefield []string `json:"battlefield"`
	Graveyard   []string `json:"graveyard"`
	Exile       []string `json:"exile"`

	CommanderID     string      `json:"commander_id,omitempty"`
	CommanderTax    int         `json:"commander_tax"`
	CommanderDamage map[int]int `json:"commander_damage,omitempty"`

	RemovedFromGame bool `json:"removed_from_game"`
	Lost            bool `json:"lost"`
	MaxHandSize     int  `json:"max_hand_size"`

	// DrewFromEmpty marks a failed draw; the next state-based pass makes
	// the player lose.
	DrewFromEmpty bool `json:"drew_from_empty"`

	LandsPlayedThisTurn int `json:"lands_played_this_turn"`
}

// NewPlayer creates a player with the standard starting configuration.
func NewPlayer(id int) *Player {
	return &Player{
		ID:              id,
		Life:            20,
		ManaPool:        mana.NewPool(),
		CommanderDamage: make(map[int]int),
		MaxHandSize:     7,
	}
}

// zoneList returns a pointer to the slice backing one of the player's zones,
// or nil for shared zones.
func (p *Player) zoneList(zone primitives.Zone) *[]string {
	switch zone {
	case primitives.ZoneLibrary:
		return &p.Library
	case primitives.ZoneHand:
		return &p.Hand
	case primitives.ZoneBattlefield:
		return &p.Battlefield
	case primitives.ZoneGraveyard:
		return &p.Graveyard
	case primitives.ZoneExile:
		return &p.Exile
	}
	return nil
}
