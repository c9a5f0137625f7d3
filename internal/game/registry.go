package game

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/rules"
)

// triggerEventAliases maps parser-side trigger names onto event types.
var triggerEventAliases = map[string]rules.EventType{
	"etb":                rules.EventEntersBattlefield,
	"enters":             rules.EventEntersBattlefield,
	"enters_battlefield": rules.EventEntersBattlefield,
	"leaves":             rules.EventLeavesBattlefield,
	"leaves_battlefield": rules.EventLeavesBattlefield,
	"dies":               rules.EventDies,
	"death":              rules.EventDies,
	"upkeep":             rules.EventBeginStep,
	"begin_step":         rules.EventBeginStep,
	"end_step":           rules.EventEndStep,
	"begin_turn":         rules.EventBeginTurn,
	"draw":               rules.EventDrew,
	"drew":               rules.EventDrew,
	"cast":               rules.EventCast,
	"damage":             rules.EventDamageDealt,
	"damage_dealt":       rules.EventDamageDealt,
	"life_gain":          rules.EventLifeGain,
	"life_loss":          rules.EventLifeLoss,
	"tap":                rules.EventTap,
	"untap":              rules.EventUntap,
	"attack":             rules.EventBeginStep,
	"transformed":        rules.EventTransformed,
	"counters_changed":   rules.EventCountersChanged,
	"token_created":      rules.EventTokenCreated,
}

// ParseTriggerEvent resolves a trigger's declared event name to an event
// type, accepting either the canonical constant or a parser alias.
func ParseTriggerEvent(name string) (rules.EventType, error) {
	if name == "" {
		return "", fmt.Errorf("trigger has no event")
	}
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	if eventType, ok := triggerEventAliases[normalized]; ok {
		return eventType, nil
	}
	canonical := rules.EventType(strings.ToUpper(normalized))
	return canonical, nil
}

// AbilityRegistry wires each object's printed triggered graphs to the
// trigger manager. A subscription is per printed ability instance: moving an
// object between zones never duplicates it.
type AbilityRegistry struct {
	state  *GameState
	logger *zap.Logger
}

// NewAbilityRegistry creates a registry over the state.
func NewAbilityRegistry(state *GameState, logger *zap.Logger) *AbilityRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbilityRegistry{state: state, logger: logger}
}

// RegisterAll scans every object and registers its triggered graphs.
func (ar *AbilityRegistry) RegisterAll() {
	for _, obj := range ar.state.Objects {
		ar.RegisterObject(obj)
	}
}

// RegisterObject subscribes the object's triggered ability graphs. Safe to
// call repeatedly; already-registered instances are skipped.
func (ar *AbilityRegistry) RegisterObject(obj *GameObject) {
	for i, graph := range obj.Graphs {
		if graph == nil || graph.AbilityType != abilities.AbilityTriggered {
			continue
		}
		triggerID := fmt.Sprintf("%s#%d", obj.ID, i)
		if ar.state.Triggers.HasTrigger(triggerID) {
			continue
		}
		ar.registerGraph(triggerID, obj, graph)
	}
}

// UnregisterObject removes every subscription of the object; used when an
// object ceases to exist. Subscription ids are keyed by graph index and a
// non-triggered graph leaves a gap, so every index is tried.
func (ar *AbilityRegistry) UnregisterObject(objectID string) {
	for i := 0; i < 64; i++ {
		triggerID := fmt.Sprintf("%s#%d", objectID, i)
		if ar.state.Triggers.HasTrigger(triggerID) {
			ar.state.Triggers.Unregister(triggerID)
		}
	}
}

func (ar *AbilityRegistry) registerGraph(triggerID string, obj *GameObject, graph *abilities.Graph) {
	norm := abilities.Normalize(graph)
	eventType, err := ParseTriggerEvent(norm.TriggerEvent())
	if err != nil {
		ar.logger.Warn("triggered graph has no usable event",
			zap.String("object_id", obj.ID),
			zap.Error(err))
		return
	}

	objectID := obj.ID
	ar.state.Triggers.Register(rules.AbilityTrigger{
		ID:         triggerID,
		SourceID:   objectID,
		Controller: obj.Controller,
		EventType:  eventType,
		Condition: func(event rules.Event) bool {
			return ar.triggerApplies(objectID, norm, event)
		},
		Build: func(event rules.Event) rules.StackItem {
			source, _ := ar.state.Objects[objectID]
			controller := obj.Controller
			name := obj.Name
			if source != nil {
				controller = source.Controller
				name = source.Name
			}
			return rules.StackItem{
				Controller:  controller,
				Description: name + " triggered ability",
				Kind:        rules.StackItemKindAbilityGraph,
				Payload: rules.StackPayload{
					SourceID: objectID,
					Graph:    graph.Clone(),
				},
			}
		},
	})
}

// triggerApplies checks the trigger's own filters plus any CONDITION nodes
// against the current state.
func (ar *AbilityRegistry) triggerApplies(sourceID string, norm abilities.Normalized, event rules.Event) bool {
	source, ok := ar.state.Objects[sourceID]
	if !ok {
		return false
	}

	if target, _ := norm.Trigger["target"].(string); target == "self" && event.TargetID != sourceID {
		return false
	}
	if who, _ := norm.Trigger["controller"].(string); who == "you" && event.Controller != source.Controller {
		return false
	}
	if step, _ := norm.Trigger["step"].(string); step != "" {
		if event.Metadata["step"] != step {
			return false
		}
	}

	for _, cond := range norm.Conditions {
		if !ar.conditionHolds(source, cond) {
			return false
		}
	}
	return true
}

// conditionHolds evaluates a CONDITION node against the live state. Unknown
// condition kinds hold, with a log entry, so new parser output degrades
// softly.
func (ar *AbilityRegistry) conditionHolds(source *GameObject, cond abilities.Node) bool {
	kind, _ := cond.Data["type"].(string)
	switch kind {
	case "life_at_least":
		p, err := ar.state.Player(source.Controller)
		if err != nil {
			return false
		}
		amount := intFromAny(cond.Data["amount"])
		return p.Life >= amount
	case "life_at_most":
		p, err := ar.state.Player(source.Controller)
		if err != nil {
			return false
		}
		amount := intFromAny(cond.Data["amount"])
		return p.Life <= amount
	case "controls":
		typeName, _ := cond.Data["object_type"].(string)
		want := intFromAny(cond.Data["count"])
		if want == 0 {
			want = 1
		}
		p, err := ar.state.Player(source.Controller)
		if err != nil {
			return false
		}
		count := 0
		for _, id := range p.Battlefield {
			obj, ok := ar.state.Objects[id]
			if !ok {
				continue
			}
			if typeName == "" || cdaMatches(obj, typeName) {
				count++
			}
		}
		return count >= want
	case "tapped":
		return source.Tapped
	case "untapped":
		return !source.Tapped
	case "":
		return true
	default:
		ar.logger.Debug("unknown condition kind treated as true", zap.String("kind", kind))
		return true
	}
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
