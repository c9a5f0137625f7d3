package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/abilities"
	"github.com/manaforge/rules-engine/internal/game/rules"
)

// Engine bundles a game state with its resolver, state-based action checker,
// ability registry, and flow controller. One engine drives one game; calls
// are synchronous and run to quiescence.
type Engine struct {
	State    *GameState
	Resolver *Resolver
	SBA      *SBAChecker
	Registry *AbilityRegistry
	Flow     *Flow
	logger   *zap.Logger
}

// NewEngine wires an engine over an existing state and registers every
// object's triggered abilities.
func NewEngine(state *GameState, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := NewResolver(state, logger)
	sba := NewSBAChecker(state, resolver, logger)
	e := &Engine{
		State:    state,
		Resolver: resolver,
		SBA:      sba,
		Registry: NewAbilityRegistry(state, logger),
		Flow:     NewFlow(state, resolver, sba, logger),
		logger:   logger,
	}
	e.Registry.RegisterAll()
	e.State.Bus.SubscribeTyped(rules.EventEntersBattlefield, func(event rules.Event) {
		if obj, ok := e.State.Objects[event.TargetID]; ok {
			e.Registry.RegisterObject(obj)
		}
	})
	return e
}

// SetLegendChooser installs a host policy for the legend rule keep choice.
func (e *Engine) SetLegendChooser(chooser LegendChooser) {
	e.SBA.SetLegendChooser(chooser)
}

// GraphContext is the caller-supplied context for resolving a graph.
type GraphContext struct {
	SourceID           string            `json:"source_id,omitempty"`
	ControllerID       int               `json:"controller_id"`
	TriggeringSourceID string            `json:"triggering_source_id,omitempty"`
	TriggeringAuraID   string            `json:"triggering_aura_id,omitempty"`
	TriggeringSpellID  string            `json:"triggering_spell_id,omitempty"`
	Targets            map[string]string `json:"targets,omitempty"`
	Choices            map[string]any    `json:"choices,omitempty"`
	Values             map[string]int    `json:"values,omitempty"`
	PreviousResults    []map[string]any  `json:"previous_results,omitempty"`
}

// ResolveGraph validates and normalizes a graph, applies its effects, runs
// state-based actions, and batches any triggers. Returns the per-effect
// result records.
func (e *Engine) ResolveGraph(graph *abilities.Graph, ctx *GraphContext) ([]map[string]any, error) {
	if graph == nil {
		return nil, fmt.Errorf("%w: graph is nil", abilities.ErrInvalidGraph)
	}
	if result := abilities.Validate(graph); !result.Valid {
		return nil, fmt.Errorf("%w: %v", abilities.ErrInvalidGraph, result.Errors)
	}
	if ctx == nil {
		ctx = &GraphContext{}
	}
	norm := abilities.Normalize(graph)

	triggeringSource := ctx.TriggeringSourceID
	if triggeringSource == "" {
		triggeringSource = ctx.TriggeringSpellID
	}
	if triggeringSource == "" {
		triggeringSource = ctx.TriggeringAuraID
	}
	resolveCtx := ResolveContext{
		SourceID:           ctx.SourceID,
		Controller:         ctx.ControllerID,
		TriggeringSourceID: triggeringSource,
		Values:             ctx.Values,
		Choices:            ctx.Choices,
	}
	resolveCtx.Targets = bindTargets(norm.Effects, ctx.Targets)
	if len(resolveCtx.Targets) == 0 {
		if flat, ok := ctx.Targets["target"]; ok {
			resolveCtx.Targets = []string{flat}
		}
	}

	results := e.Resolver.ResolveEffects(norm.Effects, resolveCtx)
	e.SBA.Check()
	e.State.FlushTriggers()
	return results, nil
}

// AdvanceTurn moves the game one phase/step forward.
func (e *Engine) AdvanceTurn() (rules.Phase, rules.Step, error) {
	if err := e.Flow.AdvanceStep(); err != nil {
		return 0, 0, err
	}
	return e.State.Turn.CurrentPhase(), e.State.Turn.CurrentStep(), nil
}

// PassPriority records a priority pass for the player. Passing out of turn
// is a no-op.
func (e *Engine) PassPriority(playerID int) error {
	if e.State.Priority.Holder() != playerID {
		e.State.Logf("player %d passed without priority, ignored", playerID)
		return nil
	}
	return e.Flow.PassPriority(playerID)
}
