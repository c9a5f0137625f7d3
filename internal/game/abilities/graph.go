// Package abilities holds the ability-graph intermediate representation
// produced by the external rules-text parser, plus its normalizer and
// validator. Graphs are data: execution happens in the game package.
package abilities

import (
	"sort"
)

// NodeType classifies a graph node.
type NodeType string

const (
	NodeTrigger   NodeType = "TRIGGER"
	NodeActivated NodeType = "ACTIVATED"
	NodeKeyword   NodeType = "KEYWORD"
	NodeCondition NodeType = "CONDITION"
	NodeEffect    NodeType = "EFFECT"
	NodeMode      NodeType = "MODE"
)

// ValidNodeType reports whether t is one of the closed node types.
func ValidNodeType(t NodeType) bool {
	switch t {
	case NodeTrigger, NodeActivated, NodeKeyword, NodeCondition, NodeEffect, NodeMode:
		return true
	}
	return false
}

// AbilityType classifies a whole graph.
type AbilityType string

const (
	AbilityTriggered   AbilityType = "triggered"
	AbilityActivated   AbilityType = "activated"
	AbilityStatic      AbilityType = "static"
	AbilityContinuous  AbilityType = "continuous"
	AbilityReplacement AbilityType = "replacement"
	AbilityKeyword     AbilityType = "keyword"
	AbilitySpell       AbilityType = "spell"
)

// ValidAbilityType reports whether t is one of the closed ability types.
func ValidAbilityType(t AbilityType) bool {
	switch t {
	case AbilityTriggered, AbilityActivated, AbilityStatic, AbilityContinuous,
		AbilityReplacement, AbilityKeyword, AbilitySpell:
		return true
	}
	return false
}

// Node is a single graph node. Data is the free-form payload whose shape
// depends on Type; EFFECT payloads decode into EffectSpec.
type Node struct {
	ID   string         `json:"id" msgpack:"id"`
	Type NodeType       `json:"type" msgpack:"type"`
	Data map[string]any `json:"data" msgpack:"data"`
}

// Edge is a directed parent-to-child edge.
type Edge struct {
	From string `json:"from" msgpack:"from"`
	To   string `json:"to" msgpack:"to"`
}

// Graph is the ability-graph IR. Nodes live in an arena keyed by id; edges
// are id pairs, so cyclic input cannot blow up construction (the validator
// rejects cycles before execution).
type Graph struct {
	RootNodeID  string      `json:"rootNodeId" msgpack:"rootNodeId"`
	Nodes       []Node      `json:"nodes" msgpack:"nodes"`
	Edges       []Edge      `json:"edges" msgpack:"edges"`
	AbilityType AbilityType `json:"abilityType" msgpack:"abilityType"`
}

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// children returns the ids of nodes reachable one hop from the given node.
// Order follows edge declaration order so traversal is stable across runs.
func (g *Graph) children(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// parents returns the ids of nodes with an edge into the given node.
func (g *Graph) parents(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}

// roots returns all nodes with no incoming edge, in a stable order.
func (g *Graph) roots() []string {
	incoming := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		incoming[e.To]++
	}
	var out []string
	for _, n := range g.Nodes {
		if incoming[n.ID] == 0 {
			out = append(out, n.ID)
		}
	}
	sort.Strings(out)
	return out
}

// Clone performs a deep copy of the graph. Runtime stack items carry clones
// so bound choices never leak back into the printed graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		RootNodeID:  g.RootNodeID,
		AbilityType: g.AbilityType,
		Nodes:       make([]Node, len(g.Nodes)),
		Edges:       make([]Edge, len(g.Edges)),
	}
	copy(out.Edges, g.Edges)
	for i, n := range g.Nodes {
		cloned := Node{ID: n.ID, Type: n.Type}
		if n.Data != nil {
			cloned.Data = make(map[string]any, len(n.Data))
			for k, v := range n.Data {
				cloned.Data[k] = v
			}
		}
		out.Nodes[i] = cloned
	}
	return out
}
