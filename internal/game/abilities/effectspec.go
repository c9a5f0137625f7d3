package abilities

import (
	"fmt"
	"strconv"
)

// EffectKind is the string discriminator carried in an EFFECT node's payload.
type EffectKind string

const (
	EffectDamage             EffectKind = "damage"
	EffectDraw               EffectKind = "draw"
	EffectLife               EffectKind = "life"
	EffectAddMana            EffectKind = "add_mana"
	EffectPayMana            EffectKind = "pay_mana"
	EffectCreateToken        EffectKind = "create_token"
	EffectCounters           EffectKind = "counters"
	EffectTap                EffectKind = "tap"
	EffectUntap              EffectKind = "untap"
	EffectDestroy            EffectKind = "destroy"
	EffectExile              EffectKind = "exile"
	EffectReturn             EffectKind = "return"
	EffectFlicker            EffectKind = "flicker"
	EffectSearch             EffectKind = "search"
	EffectAttach             EffectKind = "attach"
	EffectCounterSpell       EffectKind = "counter_spell"
	EffectCopySpell          EffectKind = "copy_spell"
	EffectScry               EffectKind = "scry"
	EffectSurveil            EffectKind = "surveil"
	EffectPhaseOut           EffectKind = "phase_out"
	EffectPhaseIn            EffectKind = "phase_in"
	EffectTransform          EffectKind = "transform"
	EffectChangeControl      EffectKind = "change_control"
	EffectSetController      EffectKind = "set_controller"
	EffectGainKeyword        EffectKind = "gain_keyword"
	EffectLoseKeyword        EffectKind = "lose_keyword"
	EffectChangePT           EffectKind = "change_power_toughness"
	EffectCDAPT              EffectKind = "cda_power_toughness"
	EffectSetTypes           EffectKind = "set_types"
	EffectAddType            EffectKind = "add_type"
	EffectRemoveType         EffectKind = "remove_type"
	EffectSetColors          EffectKind = "set_colors"
	EffectAddColor           EffectKind = "add_color"
	EffectRemoveColor        EffectKind = "remove_color"
	EffectReplaceZoneChange  EffectKind = "replace_zone_change"
	EffectEnterChoice        EffectKind = "enter_choice"
	EffectPreventDamage      EffectKind = "prevent_damage"
	EffectRedirectDamage     EffectKind = "redirect_damage"
	EffectRegenerate         EffectKind = "regenerate"
	EffectMill               EffectKind = "mill"
	EffectDiscard            EffectKind = "discard"
	EffectReveal             EffectKind = "reveal"
	EffectFight              EffectKind = "fight"
	EffectBounce             EffectKind = "bounce"
	EffectPutOntoBattlefield EffectKind = "put_onto_battlefield"
	EffectShuffle            EffectKind = "shuffle"
	EffectGainProtection     EffectKind = "gain_protection"
)

var effectKinds = map[EffectKind]bool{
	EffectDamage: true, EffectDraw: true, EffectLife: true, EffectAddMana: true,
	EffectPayMana: true, EffectCreateToken: true, EffectCounters: true,
	EffectTap: true, EffectUntap: true, EffectDestroy: true, EffectExile: true,
	EffectReturn: true, EffectFlicker: true, EffectSearch: true, EffectAttach: true,
	EffectCounterSpell: true, EffectCopySpell: true, EffectScry: true,
	EffectSurveil: true, EffectPhaseOut: true, EffectPhaseIn: true,
	EffectTransform: true, EffectChangeControl: true, EffectSetController: true,
	EffectGainKeyword: true, EffectLoseKeyword: true, EffectChangePT: true,
	EffectCDAPT: true, EffectSetTypes: true, EffectAddType: true,
	EffectRemoveType: true, EffectSetColors: true, EffectAddColor: true,
	EffectRemoveColor: true, EffectReplaceZoneChange: true, EffectEnterChoice: true,
	EffectPreventDamage: true, EffectRedirectDamage: true, EffectRegenerate: true,
	EffectMill: true, EffectDiscard: true, EffectReveal: true, EffectFight: true,
	EffectBounce: true, EffectPutOntoBattlefield: true, EffectShuffle: true,
	EffectGainProtection: true,
}

// KnownEffectKind reports whether kind is in the closed effect-kind set.
func KnownEffectKind(kind EffectKind) bool {
	return effectKinds[kind]
}

// continuousKinds are the effect kinds legal inside static/continuous graphs:
// they register modifiers rather than perform one-shot state transitions.
var continuousKinds = map[EffectKind]bool{
	EffectGainKeyword: true, EffectLoseKeyword: true, EffectChangePT: true,
	EffectCDAPT: true, EffectSetTypes: true, EffectAddType: true,
	EffectRemoveType: true, EffectSetColors: true, EffectAddColor: true,
	EffectRemoveColor: true, EffectSetController: true,
	EffectGainProtection: true,
}

// replacementKinds are legal inside replacement graphs.
var replacementKinds = map[EffectKind]bool{
	EffectReplaceZoneChange: true, EffectPreventDamage: true,
	EffectRedirectDamage: true, EffectEnterChoice: true,
}

// ContinuousKind reports whether kind registers a continuous modifier.
func ContinuousKind(kind EffectKind) bool { return continuousKinds[kind] }

// ReplacementKind reports whether kind registers a replacement effect.
func ReplacementKind(kind EffectKind) bool { return replacementKinds[kind] }

// targetedKinds support a max_targets declaration.
var targetedKinds = map[EffectKind]bool{
	EffectDamage: true, EffectCounters: true, EffectTap: true, EffectUntap: true,
	EffectDestroy: true, EffectExile: true, EffectReturn: true, EffectFlicker: true,
	EffectAttach: true, EffectCounterSpell: true, EffectPhaseOut: true,
	EffectPhaseIn: true, EffectTransform: true, EffectChangeControl: true,
	EffectGainKeyword: true, EffectLoseKeyword: true, EffectChangePT: true,
	EffectRegenerate: true, EffectFight: true, EffectBounce: true,
	EffectPreventDamage: true, EffectRedirectDamage: true,
	EffectGainProtection: true,
}

// TargetedKind reports whether kind accepts declared targets.
func TargetedKind(kind EffectKind) bool { return targetedKinds[kind] }

// EffectSpec is the decoded form of an EFFECT node payload: the `type`
// discriminator plus the kind-specific fields the resolver reads.
type EffectSpec struct {
	Kind   EffectKind
	NodeID string

	Amount     int
	HasAmount  bool
	Target     string // target selector label, e.g. "any", "creature", "player"
	MaxTargets int
	HasMaxTarg bool

	Keyword    string
	Protection string
	Types      []string
	Subtypes   []string
	Supertypes []string
	Colors     []string

	Power       int
	Toughness   int
	HasPT       bool
	NewControl  int
	HasControl  bool
	CounterKind string
	Duration    string
	Zone        string // destination zone for return/bounce/search
	FromZone    string
	ToZone      string
	ReplaceZone string
	Choice      string
	ChoiceValue string
	Mana        map[string]int
	CDASource   string
	CDAType     string
	CDAZone     string
	CDASet      string
	TokenName   string

	Raw map[string]any
}

func intField(data map[string]any, key string) (int, bool) {
	v, ok := data[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceField(data map[string]any, key string) []string {
	raw, ok := data[key]
	if !ok {
		return nil
	}
	switch list := raw.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// DecodeEffectSpec turns an EFFECT node into its tagged spec.
func DecodeEffectSpec(node Node) (EffectSpec, error) {
	if node.Type != NodeEffect {
		return EffectSpec{}, fmt.Errorf("node %s is %s, not EFFECT", node.ID, node.Type)
	}
	kind := EffectKind(stringField(node.Data, "type"))
	if kind == "" {
		return EffectSpec{}, fmt.Errorf("effect node %s has no type", node.ID)
	}

	spec := EffectSpec{
		Kind:        kind,
		NodeID:      node.ID,
		Target:      stringField(node.Data, "target"),
		Keyword:     stringField(node.Data, "keyword"),
		Protection:  stringField(node.Data, "protection"),
		Types:       stringSliceField(node.Data, "types"),
		Subtypes:    stringSliceField(node.Data, "subtypes"),
		Supertypes:  stringSliceField(node.Data, "supertypes"),
		Colors:      stringSliceField(node.Data, "colors"),
		CounterKind: stringField(node.Data, "counterKind"),
		Duration:    stringField(node.Data, "duration"),
		Zone:        stringField(node.Data, "zone"),
		FromZone:    stringField(node.Data, "fromZone"),
		ToZone:      stringField(node.Data, "toZone"),
		ReplaceZone: stringField(node.Data, "replacementZone"),
		Choice:      stringField(node.Data, "choice"),
		ChoiceValue: stringField(node.Data, "choiceValue"),
		CDASource:   stringField(node.Data, "cdaSource"),
		CDAType:     stringField(node.Data, "cdaType"),
		CDAZone:     stringField(node.Data, "cdaZone"),
		CDASet:      stringField(node.Data, "cdaSet"),
		TokenName:   stringField(node.Data, "name"),
		Raw:         node.Data,
	}
	spec.Amount, spec.HasAmount = intField(node.Data, "amount")
	spec.MaxTargets, spec.HasMaxTarg = intField(node.Data, "max_targets")
	if !spec.HasMaxTarg {
		spec.MaxTargets, spec.HasMaxTarg = intField(node.Data, "maxTargets")
	}
	power, okP := intField(node.Data, "power")
	toughness, okT := intField(node.Data, "toughness")
	if okP || okT {
		spec.Power, spec.Toughness, spec.HasPT = power, toughness, true
	}
	spec.NewControl, spec.HasControl = intField(node.Data, "new_controller_id")
	if !spec.HasControl {
		spec.NewControl, spec.HasControl = intField(node.Data, "newControllerId")
	}
	if manaRaw, ok := node.Data["mana"].(map[string]any); ok {
		spec.Mana = make(map[string]int, len(manaRaw))
		for symbol := range manaRaw {
			if amount, ok := intField(manaRaw, symbol); ok {
				spec.Mana[symbol] = amount
			}
		}
	}
	return spec, nil
}
