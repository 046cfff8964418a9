package canvas

import (
	"github.com/google/uuid"
)

// Node is the persisted shape of a canvas node. Client-side callback
// closures and other transient UI state never reach this type; the save
// payload is bound into it directly, so no key-name filtering is needed.
type Node struct {
	ID          string   `json:"id"`
	Kind        NodeKind `json:"kind"`
	EntityID    string   `json:"entity_id"`
	ContentType string   `json:"content_type,omitempty"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
}

type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

type Snapshot struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Viewport Viewport `json:"viewport"`
}

// ProductRef, AgentRef and BrandKitRef are the slices of entity state the
// reconciler needs; services map their GORM models into these.
type ProductRef struct {
	ID uuid.UUID
}

type AgentRef struct {
	ID          uuid.UUID
	ContentType string
	Connections []string
	X           float64
	Y           float64
}

type BrandKitRef struct {
	ID uuid.UUID
	X  float64
	Y  float64
}

type Entities struct {
	Products []ProductRef
	Agents   []AgentRef
	BrandKit *BrandKitRef
}

// Reconcile merges a previously saved snapshot with the currently loaded
// entities. Saved geometry wins for nodes that still exist; the saved edge
// list is used verbatim when present, otherwise edges are reconstructed
// from each agent's connections. The brand-kit-to-first-product edge is
// treated as structurally mandatory and inserted exactly once when both
// endpoints exist.
func Reconcile(saved *Snapshot, ents Entities) Snapshot {
	savedNodes := map[string]Node{}
	if saved != nil {
		for _, n := range saved.Nodes {
			savedNodes[n.ID] = n
		}
	}

	var out Snapshot
	out.Viewport = Viewport{Zoom: 1}
	if saved != nil && saved.Viewport.Zoom != 0 {
		out.Viewport = saved.Viewport
	}

	// Products first so agents and the brand kit dodge them, not the
	// other way around.
	for i, p := range ents.Products {
		id := ProductNodeID(p.ID)
		node := Node{
			ID:       id,
			Kind:     NodeKindProduct,
			EntityID: p.ID.String(),
		}
		if prev, ok := savedNodes[id]; ok {
			node.X, node.Y = prev.X, prev.Y
		} else {
			node.X, node.Y = Place(defaultProductX, defaultProductY+float64(i)*productRowStep, NodeKindProduct, out.Nodes)
		}
		out.Nodes = append(out.Nodes, node)
	}

	for _, a := range ents.Agents {
		id := AgentNodeID(a.ContentType, a.ID)
		node := Node{
			ID:          id,
			Kind:        NodeKindAgent,
			EntityID:    a.ID.String(),
			ContentType: a.ContentType,
		}
		if prev, ok := savedNodes[id]; ok {
			node.X, node.Y = prev.X, prev.Y
		} else {
			node.X, node.Y = Place(a.X, a.Y, NodeKindAgent, out.Nodes)
		}
		out.Nodes = append(out.Nodes, node)
	}

	if ents.BrandKit != nil {
		id := BrandKitNodeID(ents.BrandKit.ID)
		node := Node{
			ID:       id,
			Kind:     NodeKindBrandKit,
			EntityID: ents.BrandKit.ID.String(),
		}
		if prev, ok := savedNodes[id]; ok {
			node.X, node.Y = prev.X, prev.Y
		} else {
			node.X, node.Y = Place(ents.BrandKit.X, ents.BrandKit.Y, NodeKindBrandKit, out.Nodes)
		}
		out.Nodes = append(out.Nodes, node)
	}

	if saved != nil && len(saved.Edges) > 0 {
		out.Edges = append(out.Edges, saved.Edges...)
	} else {
		out.Edges = reconstructEdges(ents)
	}

	out.Edges = ensureBrandKitEdge(out.Edges, ents)
	return out
}

// reconstructEdges is the fallback when no edge list was saved: each
// agent's connections entries are resolved against the loaded entity ids
// and turned into source->agent edges. Unresolvable entries are dropped.
func reconstructEdges(ents Entities) []Edge {
	nodeIDByEntity := map[string]string{}
	for _, p := range ents.Products {
		nodeIDByEntity[p.ID.String()] = ProductNodeID(p.ID)
	}
	for _, a := range ents.Agents {
		nodeIDByEntity[a.ID.String()] = AgentNodeID(a.ContentType, a.ID)
	}
	if ents.BrandKit != nil {
		nodeIDByEntity[ents.BrandKit.ID.String()] = BrandKitNodeID(ents.BrandKit.ID)
	}

	var edges []Edge
	seen := map[string]bool{}
	for _, a := range ents.Agents {
		target := AgentNodeID(a.ContentType, a.ID)
		for _, conn := range a.Connections {
			source, ok := nodeIDByEntity[conn]
			if !ok || source == target {
				continue
			}
			id := EdgeID(source, target)
			if seen[id] {
				continue
			}
			seen[id] = true
			edges = append(edges, Edge{ID: id, Source: source, Target: target})
		}
	}
	return edges
}

// ensureBrandKitEdge inserts the first-product-to-brand-kit edge when both
// endpoints exist and no edge between them is present in either direction.
func ensureBrandKitEdge(edges []Edge, ents Entities) []Edge {
	if ents.BrandKit == nil || len(ents.Products) == 0 {
		return edges
	}
	productNode := ProductNodeID(ents.Products[0].ID)
	kitNode := BrandKitNodeID(ents.BrandKit.ID)
	for _, e := range edges {
		if (e.Source == productNode && e.Target == kitNode) ||
			(e.Source == kitNode && e.Target == productNode) {
			return edges
		}
	}
	return append(edges, Edge{
		ID:     EdgeID(productNode, kitNode),
		Source: productNode,
		Target: kitNode,
	})
}

// ConnectionsFromEdges rewrites each agent's connections mirror from an
// edge list, so the two representations cannot drift past one save cycle.
// The returned map is keyed by agent id.
func ConnectionsFromEdges(edges []Edge, ents Entities) map[uuid.UUID][]string {
	agentNodeIDs := map[string]uuid.UUID{}
	for _, a := range ents.Agents {
		agentNodeIDs[AgentNodeID(a.ContentType, a.ID)] = a.ID
	}

	out := make(map[uuid.UUID][]string, len(ents.Agents))
	for _, a := range ents.Agents {
		out[a.ID] = []string{}
	}
	for _, e := range edges {
		agentID, ok := agentNodeIDs[e.Target]
		if !ok {
			continue
		}
		entity := EntityIDFromNodeID(e.Source)
		if entity == "" {
			continue
		}
		out[agentID] = append(out[agentID], entity)
	}
	return out
}
