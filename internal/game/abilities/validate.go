package abilities

import (
	"errors"
	"fmt"

	"github.com/manaforge/rules-engine/internal/game/primitives"
)

// ErrInvalidGraph is returned by callers that refuse to execute a graph which
// failed validation. The ValidationResult carries the specifics.
var ErrInvalidGraph = errors.New("invalid ability graph")

// ValidationResult is the batch outcome of validating a graph. Errors block
// execution; warnings are advisory. Valid is true iff Errors is empty.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate runs the full structural and semantic check suite over a graph.
// The validator is total: it never mutates state and always returns a result.
func Validate(g *Graph) ValidationResult {
	var res ValidationResult
	if g == nil {
		res.errorf("graph is nil")
		return res
	}

	validateStructure(g, &res)
	validateSemantics(g, &res)

	res.Valid = len(res.Errors) == 0
	return res
}

func validateStructure(g *Graph, res *ValidationResult) {
	if g.RootNodeID == "" {
		res.errorf("graph has no root node")
		return
	}
	root, ok := g.NodeByID(g.RootNodeID)
	if !ok {
		res.errorf("root node %s not present in node list", g.RootNodeID)
		return
	}
	switch root.Type {
	case NodeTrigger, NodeActivated, NodeKeyword:
	default:
		res.errorf("root node %s has type %s; must be TRIGGER, ACTIVATED, or KEYWORD", root.ID, root.Type)
	}

	if !ValidAbilityType(g.AbilityType) {
		res.errorf("unknown ability type %q", g.AbilityType)
	}

	// Multiple root candidates are tolerated with a warning; only the
	// declared root is traversed.
	if roots := g.roots(); len(roots) > 1 {
		res.warnf("graph has %d root candidates; only %s is used", len(roots), g.RootNodeID)
	}

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			res.errorf("duplicate node id %s", n.ID)
		}
		seen[n.ID] = true
		if !ValidNodeType(n.Type) {
			res.errorf("node %s has invalid type %q", n.ID, n.Type)
		}
	}

	for _, e := range g.Edges {
		if e.From == e.To {
			res.errorf("self-loop on node %s", e.From)
			continue
		}
		from, okFrom := g.NodeByID(e.From)
		to, okTo := g.NodeByID(e.To)
		if !okFrom || !okTo {
			res.errorf("edge %s->%s references unknown node", e.From, e.To)
			continue
		}
		if from.Type == NodeEffect && to.Type == NodeEffect {
			res.errorf("effect->effect edge %s->%s; effects must hang off a trigger, condition, or mode", e.From, e.To)
		}
		if from.Type == NodeEffect && to.Type == NodeTrigger {
			res.errorf("effect->trigger edge %s->%s", e.From, e.To)
		}
	}

	if cyclic(g) {
		res.errorf("graph contains a cycle")
	}
}

// cyclic detects a cycle reachable from any node via iterative DFS coloring.
func cyclic(g *Graph) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.Nodes))
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, child := range g.children(id) {
			switch color[child] {
			case gray:
				return true
			case white:
				if visit(child) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}
	for _, n := range g.Nodes {
		if color[n.ID] == white && visit(n.ID) {
			return true
		}
	}
	return false
}

func validateSemantics(g *Graph, res *ValidationResult) {
	for _, n := range g.Nodes {
		if n.Type != NodeEffect {
			continue
		}
		spec, err := DecodeEffectSpec(n)
		if err != nil {
			res.errorf("%v", err)
			continue
		}
		if !KnownEffectKind(spec.Kind) {
			res.errorf("effect node %s has unknown kind %q", n.ID, spec.Kind)
			continue
		}

		if spec.HasMaxTarg {
			if !TargetedKind(spec.Kind) {
				res.errorf("effect %s (%s) declares max_targets but the kind does not target", n.ID, spec.Kind)
			} else if spec.MaxTargets <= 0 {
				res.errorf("effect %s (%s) has invalid max_targets %d", n.ID, spec.Kind, spec.MaxTargets)
			}
		}

		switch g.AbilityType {
		case AbilityStatic, AbilityContinuous:
			if !ContinuousKind(spec.Kind) {
				res.errorf("effect kind %s is not continuous; illegal in a %s graph", spec.Kind, g.AbilityType)
			}
		case AbilityReplacement:
			if !ReplacementKind(spec.Kind) {
				res.errorf("effect kind %s is not a replacement; illegal in a replacement graph", spec.Kind)
			}
		}

		for _, color := range spec.Colors {
			if !primitives.ValidColor(color) {
				res.errorf("effect %s has invalid color %q", n.ID, color)
			}
		}
		for _, typeName := range spec.Types {
			if !primitives.ValidCardType(typeName) {
				res.warnf("effect %s names unrecognized card type %q", n.ID, typeName)
			}
		}
		if spec.Zone != "" {
			if _, err := primitives.ParseZone(spec.Zone); err != nil {
				res.errorf("effect %s has invalid zone %q", n.ID, spec.Zone)
			}
		}
		if spec.ReplaceZone != "" {
			if _, err := primitives.ParseZone(spec.ReplaceZone); err != nil {
				res.errorf("effect %s has invalid replacement zone %q", n.ID, spec.ReplaceZone)
			}
		}

		if spec.Kind == EffectCDAPT {
			if spec.CDAType == "" && spec.CDAZone == "" {
				res.errorf("cda_power_toughness node %s needs cdaType or cdaZone", n.ID)
			}
			if spec.CDASet != "" && spec.CDASet != "power" && spec.CDASet != "toughness" && spec.CDASet != "both" {
				res.errorf("cda_power_toughness node %s has invalid cdaSet %q", n.ID, spec.CDASet)
			}
		}
	}
}
