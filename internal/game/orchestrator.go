package game

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/manaforge/rules-engine/internal/game/abilities"
)

// Action discriminators accepted by the orchestrator.
const (
	ActionResolveGraph = "resolve_graph"
	ActionAdvanceTurn  = "advance_turn"
	ActionPassPriority = "pass_priority"
)

// Request is one action over a game-state snapshot.
type Request struct {
	Action       string           `json:"action"`
	State        *GameSnapshot    `json:"state"`
	AbilityGraph *abilities.Graph `json:"ability_graph,omitempty"`
	Context      *GraphContext    `json:"context,omitempty"`
	PlayerID     *int             `json:"player_id,omitempty"`
}

// Response carries the updated snapshot, a result record describing what the
// action produced, and the cumulative debug log.
type Response struct {
	State    *GameSnapshot  `json:"state"`
	Result   map[string]any `json:"result"`
	DebugLog []string       `json:"debug_log"`
}

// Orchestrator is the stateless public entry point: each call deserializes
// the snapshot, builds an engine, performs the action, and serializes back.
type Orchestrator struct {
	logger                   *zap.Logger
	maxReplacementIterations int
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{logger: logger}
}

// SetMaxReplacementIterations overrides the per-event replacement loop bound
// on every engine the orchestrator builds.
func (o *Orchestrator) SetMaxReplacementIterations(n int) {
	o.maxReplacementIterations = n
}

// Handle dispatches a request by its action discriminator.
func (o *Orchestrator) Handle(req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	switch req.Action {
	case ActionResolveGraph:
		return o.ResolveGraph(req)
	case ActionAdvanceTurn:
		return o.AdvanceTurn(req)
	case ActionPassPriority:
		return o.PassPriority(req)
	default:
		return nil, fmt.Errorf("unknown action %q", req.Action)
	}
}

// HandleJSON is Handle over raw JSON request bytes.
func (o *Orchestrator) HandleJSON(data []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	resp, err := o.Handle(&req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

func (o *Orchestrator) buildEngine(req *Request) (*Engine, error) {
	if req.State == nil {
		return nil, fmt.Errorf("request carries no state")
	}
	gs, err := RestoreSnapshot(req.State, o.logger)
	if err != nil {
		return nil, err
	}
	if o.maxReplacementIterations > 0 {
		gs.Replacements.SetMaxIterations(o.maxReplacementIterations)
	}
	return NewEngine(gs, o.logger), nil
}

func (o *Orchestrator) respond(e *Engine, result map[string]any) *Response {
	snap := BuildSnapshot(e.State)
	return &Response{
		State:    snap,
		Result:   result,
		DebugLog: snap.DebugLog,
	}
}

// ResolveGraph performs the resolve_graph action.
func (o *Orchestrator) ResolveGraph(req *Request) (*Response, error) {
	if req.AbilityGraph == nil {
		return nil, fmt.Errorf("resolve_graph requires ability_graph")
	}
	e, err := o.buildEngine(req)
	if err != nil {
		return nil, err
	}
	results, err := e.ResolveGraph(req.AbilityGraph, req.Context)
	if err != nil {
		return nil, err
	}
	result := map[string]any{
		"status":  "resolved",
		"effects": results,
	}
	if len(results) == 1 {
		for k, v := range results[0] {
			result[k] = v
		}
	}
	return o.respond(e, result), nil
}

// AdvanceTurn performs the advance_turn action.
func (o *Orchestrator) AdvanceTurn(req *Request) (*Response, error) {
	e, err := o.buildEngine(req)
	if err != nil {
		return nil, err
	}
	phase, step, err := e.AdvanceTurn()
	if err != nil {
		return nil, err
	}
	return o.respond(e, map[string]any{
		"status": "advanced",
		"phase":  phase.String(),
		"step":   step.String(),
		"turn":   e.State.Turn.TurnNumber(),
	}), nil
}

// PassPriority performs the pass_priority action.
func (o *Orchestrator) PassPriority(req *Request) (*Response, error) {
	if req.PlayerID == nil {
		return nil, fmt.Errorf("pass_priority requires player_id")
	}
	e, err := o.buildEngine(req)
	if err != nil {
		return nil, err
	}
	if err := e.PassPriority(*req.PlayerID); err != nil {
		return nil, err
	}
	return o.respond(e, map[string]any{
		"status":           "passed",
		"current_priority": e.State.Priority.Holder(),
		"phase":            e.State.Turn.CurrentPhase().String(),
		"step":             e.State.Turn.CurrentStep().String(),
	}), nil
}
