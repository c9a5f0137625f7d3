package abilities

// Normalized is the flattened view of a graph: the root payload classified by
// kind, the gating conditions, and the effect specs in stable DFS order.
type Normalized struct {
	Trigger     map[string]any // set when the root is TRIGGER
	Cost        map[string]any // set when the root is ACTIVATED
	Keyword     string         // set when the root is KEYWORD
	Conditions  []Node
	Effects     []EffectSpec
	AbilityType AbilityType
}

// TriggerEvent returns the event name declared on the trigger root.
func (n Normalized) TriggerEvent() string {
	if n.Trigger == nil {
		return ""
	}
	if event, ok := n.Trigger["event"].(string); ok {
		return event
	}
	return ""
}

// Normalize flattens a graph into its trigger/cost/keyword, conditions, and
// effects. Traversal is depth-first from the root following edge declaration
// order, with a visited set so cyclic input terminates (the validator rejects
// cycles separately). Normalize is idempotent: it never mutates the graph.
func Normalize(g *Graph) Normalized {
	out := Normalized{AbilityType: g.AbilityType}

	root, ok := g.NodeByID(g.RootNodeID)
	if ok {
		switch root.Type {
		case NodeTrigger:
			out.Trigger = root.Data
		case NodeActivated:
			out.Cost = root.Data
		case NodeKeyword:
			out.Keyword = stringField(root.Data, "keyword")
			if out.Keyword == "" {
				out.Keyword = stringField(root.Data, "name")
			}
		}
	}

	visited := make(map[string]bool, len(g.Nodes))
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		node, ok := g.NodeByID(id)
		if !ok {
			return
		}
		switch node.Type {
		case NodeCondition:
			out.Conditions = append(out.Conditions, node)
		case NodeEffect:
			if spec, err := DecodeEffectSpec(node); err == nil {
				out.Effects = append(out.Effects, spec)
			}
		}
		for _, child := range g.children(id) {
			walk(child)
		}
	}
	walk(g.RootNodeID)

	return out
}
