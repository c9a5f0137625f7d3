// Package primitives defines the closed enumerations shared by every part of
// the rules engine: zones, colors, card types, and counter kinds. The types
// here carry no behavior beyond naming and ordering.
package primitives

import (
	"fmt"
	"strings"
	"sync"
)

// Zone identifies one of the seven game zones.
type Zone int

const (
	ZoneLibrary Zone = iota
	ZoneHand
	ZoneBattlefield
	ZoneGraveyard
	ZoneStack
	ZoneExile
	ZoneCommand
)

var zoneNames = map[Zone]string{
	ZoneLibrary:     "library",
	ZoneHand:        "hand",
	ZoneBattlefield: "battlefield",
	ZoneGraveyard:   "graveyard",
	ZoneStack:       "stack",
	ZoneExile:       "exile",
	ZoneCommand:     "command",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("ZONE_%d", int(z))
}

// ParseZone maps a snapshot zone name to the Zone enum.
func ParseZone(name string) (Zone, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for zone, zname := range zoneNames {
		if zname == lowered {
			return zone, nil
		}
	}
	return 0, fmt.Errorf("unknown zone %q", name)
}

// PerPlayerZones lists the zones owned by a single player, in snapshot order.
var PerPlayerZones = []Zone{ZoneLibrary, ZoneHand, ZoneBattlefield, ZoneGraveyard, ZoneExile, ZoneCommand}

// IsOrdered reports whether the zone keeps its objects in a meaningful
// sequence. The battlefield is an unordered set; every other zone is a list
// (library top = end of list).
func (z Zone) IsOrdered() bool {
	return z != ZoneBattlefield
}

// Color is one of the five colors. Generic/colorless mana is tracked
// separately by the mana pool and is not a Color.
type Color string

const (
	ColorWhite Color = "W"
	ColorBlue  Color = "U"
	ColorBlack Color = "B"
	ColorRed   Color = "R"
	ColorGreen Color = "G"
)

// Colors lists all five colors in WUBRG order.
var Colors = []Color{ColorWhite, ColorBlue, ColorBlack, ColorRed, ColorGreen}

// ValidColor reports whether the string names one of the five colors.
func ValidColor(s string) bool {
	switch Color(strings.ToUpper(strings.TrimSpace(s))) {
	case ColorWhite, ColorBlue, ColorBlack, ColorRed, ColorGreen:
		return true
	}
	return false
}

// CardType is a card type line entry. The declaration order below is the
// total order used when layer 4 effects set conflicting types.
type CardType int

const (
	TypeLand CardType = iota
	TypeCreature
	TypeArtifact
	TypeEnchantment
	TypePlaneswalker
	TypeBattle
	TypeInstant
	TypeSorcery
	TypeTribal
)

var cardTypeNames = map[CardType]string{
	TypeLand:         "Land",
	TypeCreature:     "Creature",
	TypeArtifact:     "Artifact",
	TypeEnchantment:  "Enchantment",
	TypePlaneswalker: "Planeswalker",
	TypeBattle:       "Battle",
	TypeInstant:      "Instant",
	TypeSorcery:      "Sorcery",
	TypeTribal:       "Tribal",
}

func (t CardType) String() string {
	if name, ok := cardTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE_%d", int(t))
}

// ParseCardType maps a type name to its CardType, case-insensitively.
func ParseCardType(name string) (CardType, bool) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for t, tname := range cardTypeNames {
		if strings.ToLower(tname) == lowered {
			return t, true
		}
	}
	return 0, false
}

// ValidCardType reports whether the string names a known card type.
func ValidCardType(name string) bool {
	_, ok := ParseCardType(name)
	return ok
}

// IsPermanentType reports whether the type puts a resolved spell onto the
// battlefield rather than into a graveyard.
func (t CardType) IsPermanentType() bool {
	switch t {
	case TypeLand, TypeCreature, TypeArtifact, TypeEnchantment, TypePlaneswalker, TypeBattle:
		return true
	}
	return false
}

// CounterKind is an interned counter name such as "+1/+1" or "loyalty".
// Interning keeps counter-bag keys comparable by pointer-free equality while
// tolerating free-form kinds coming in from ability graphs.
type CounterKind string

const (
	CounterPlusOnePlusOne   CounterKind = "+1/+1"
	CounterMinusOneMinusOne CounterKind = "-1/-1"
	CounterLoyalty          CounterKind = "loyalty"
	CounterTime             CounterKind = "time"
	CounterCharge           CounterKind = "charge"
)

var (
	counterInternMu sync.Mutex
	counterIntern   = map[string]CounterKind{
		string(CounterPlusOnePlusOne):   CounterPlusOnePlusOne,
		string(CounterMinusOneMinusOne): CounterMinusOneMinusOne,
		string(CounterLoyalty):          CounterLoyalty,
		string(CounterTime):             CounterTime,
		string(CounterCharge):           CounterCharge,
	}
)

// InternCounterKind returns the canonical CounterKind for a name.
func InternCounterKind(name string) CounterKind {
	trimmed := strings.TrimSpace(name)
	counterInternMu.Lock()
	defer counterInternMu.Unlock()
	if kind, ok := counterIntern[trimmed]; ok {
		return kind
	}
	kind := CounterKind(trimmed)
	counterIntern[trimmed] = kind
	return kind
}
