package canvas

import (
	"testing"

	"github.com/google/uuid"
)

func TestNodeIDRoundTrip(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		nodeID string
		want   string
	}{
		{ProductNodeID(id), id.String()},
		{AgentNodeID("bullet_points", id), id.String()},
		{BrandKitNodeID(id), id.String()},
		{"garbage", ""},
		{"agent_title_", ""},
	}
	for _, c := range cases {
		if got := EntityIDFromNodeID(c.nodeID); got != c.want {
			t.Fatalf("EntityIDFromNodeID(%q) = %q, want %q", c.nodeID, got, c.want)
		}
	}
}

func TestReconcileSavedGeometryWins(t *testing.T) {
	productID := uuid.New()
	agentID := uuid.New()
	ents := Entities{
		Products: []ProductRef{{ID: productID}},
		Agents:   []AgentRef{{ID: agentID, ContentType: "title", X: 10, Y: 10}},
	}
	saved := &Snapshot{
		Nodes: []Node{
			{ID: ProductNodeID(productID), X: 900, Y: 901},
			{ID: AgentNodeID("title", agentID), X: 500, Y: 501},
		},
		Viewport: Viewport{X: 5, Y: 6, Zoom: 1.5},
	}

	snap := Reconcile(saved, ents)
	byID := map[string]Node{}
	for _, n := range snap.Nodes {
		byID[n.ID] = n
	}
	if p := byID[ProductNodeID(productID)]; p.X != 900 || p.Y != 901 {
		t.Fatalf("product lost saved position: (%v, %v)", p.X, p.Y)
	}
	if a := byID[AgentNodeID("title", agentID)]; a.X != 500 || a.Y != 501 {
		t.Fatalf("agent lost saved position: (%v, %v)", a.X, a.Y)
	}
	if snap.Viewport != saved.Viewport {
		t.Fatalf("viewport not carried over: %+v", snap.Viewport)
	}
}

func TestReconcileDropsNodesForDeletedEntities(t *testing.T) {
	productID := uuid.New()
	deletedAgent := uuid.New()
	ents := Entities{Products: []ProductRef{{ID: productID}}}
	saved := &Snapshot{Nodes: []Node{
		{ID: ProductNodeID(productID), X: 1, Y: 2},
		{ID: AgentNodeID("title", deletedAgent), X: 3, Y: 4},
	}}

	snap := Reconcile(saved, ents)
	if len(snap.Nodes) != 1 {
		t.Fatalf("expected only the live product node, got %d nodes", len(snap.Nodes))
	}
	if snap.Nodes[0].ID != ProductNodeID(productID) {
		t.Fatalf("unexpected surviving node %q", snap.Nodes[0].ID)
	}
}

func TestReconcilePlacesNewNodesWithoutOverlap(t *testing.T) {
	ents := Entities{
		Products: []ProductRef{{ID: uuid.New()}, {ID: uuid.New()}},
		Agents: []AgentRef{
			{ID: uuid.New(), ContentType: "title", X: 120, Y: 120},
			{ID: uuid.New(), ContentType: "bullet_points", X: 120, Y: 120},
			{ID: uuid.New(), ContentType: "hero_image", X: 120, Y: 120},
		},
		BrandKit: &BrandKitRef{ID: uuid.New(), X: 120, Y: 120},
	}

	snap := Reconcile(nil, ents)
	if len(snap.Nodes) != 6 {
		t.Fatalf("expected 6 nodes, got %d", len(snap.Nodes))
	}
	if Overlaps(snap.Nodes) {
		t.Fatal("reconcile produced overlapping fresh nodes")
	}
	if snap.Viewport.Zoom != 1 {
		t.Fatalf("expected default zoom 1, got %v", snap.Viewport.Zoom)
	}
}

func TestReconcileSavedEdgesUsedVerbatim(t *testing.T) {
	productID := uuid.New()
	agentID := uuid.New()
	ents := Entities{
		Products: []ProductRef{{ID: productID}},
		Agents: []AgentRef{{
			ID:          agentID,
			ContentType: "title",
			// Stale mirror: points at a product that no longer exists.
			Connections: []string{uuid.New().String()},
		}},
	}
	savedEdge := Edge{
		ID:     EdgeID(ProductNodeID(productID), AgentNodeID("title", agentID)),
		Source: ProductNodeID(productID),
		Target: AgentNodeID("title", agentID),
	}
	saved := &Snapshot{Edges: []Edge{savedEdge}}

	snap := Reconcile(saved, ents)
	if len(snap.Edges) != 1 || snap.Edges[0] != savedEdge {
		t.Fatalf("saved edge list not used verbatim: %+v", snap.Edges)
	}
}

func TestReconcileReconstructsEdgesFromConnections(t *testing.T) {
	productID := uuid.New()
	titleID := uuid.New()
	heroID := uuid.New()
	ents := Entities{
		Products: []ProductRef{{ID: productID}},
		Agents: []AgentRef{
			{ID: titleID, ContentType: "title", Connections: []string{productID.String()}},
			{ID: heroID, ContentType: "hero_image", Connections: []string{
				productID.String(),
				titleID.String(),
				uuid.New().String(), // dangling, must be dropped
			}},
		},
	}

	snap := Reconcile(nil, ents)
	want := map[string]bool{
		EdgeID(ProductNodeID(productID), AgentNodeID("title", titleID)):        true,
		EdgeID(ProductNodeID(productID), AgentNodeID("hero_image", heroID)):    true,
		EdgeID(AgentNodeID("title", titleID), AgentNodeID("hero_image", heroID)): true,
	}
	if len(snap.Edges) != len(want) {
		t.Fatalf("expected %d reconstructed edges, got %d: %+v", len(want), len(snap.Edges), snap.Edges)
	}
	for _, e := range snap.Edges {
		if !want[e.ID] {
			t.Fatalf("unexpected edge %q", e.ID)
		}
	}
}

func TestReconcileInsertsBrandKitEdgeOnce(t *testing.T) {
	productID := uuid.New()
	kitID := uuid.New()
	ents := Entities{
		Products: []ProductRef{{ID: productID}},
		BrandKit: &BrandKitRef{ID: kitID},
	}

	snap := Reconcile(nil, ents)
	count := 0
	for _, e := range snap.Edges {
		p, k := ProductNodeID(productID), BrandKitNodeID(kitID)
		if (e.Source == p && e.Target == k) || (e.Source == k && e.Target == p) {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one brand-kit edge, got %d", count)
	}

	// Re-reconciling the produced snapshot must not duplicate it.
	again := Reconcile(&snap, ents)
	if len(again.Edges) != len(snap.Edges) {
		t.Fatalf("brand-kit edge duplicated on second reconcile: %d -> %d", len(snap.Edges), len(again.Edges))
	}
}

func TestReconcileBrandKitEdgeRespectsReverseDirection(t *testing.T) {
	productID := uuid.New()
	kitID := uuid.New()
	ents := Entities{
		Products: []ProductRef{{ID: productID}},
		BrandKit: &BrandKitRef{ID: kitID},
	}
	reverse := Edge{
		ID:     EdgeID(BrandKitNodeID(kitID), ProductNodeID(productID)),
		Source: BrandKitNodeID(kitID),
		Target: ProductNodeID(productID),
	}

	snap := Reconcile(&Snapshot{Edges: []Edge{reverse}}, ents)
	if len(snap.Edges) != 1 {
		t.Fatalf("reverse-direction brand-kit edge not recognized, got %d edges", len(snap.Edges))
	}
}

func TestConnectionsFromEdgesRewritesMirror(t *testing.T) {
	productID := uuid.New()
	titleID := uuid.New()
	heroID := uuid.New()
	ents := Entities{
		Products: []ProductRef{{ID: productID}},
		Agents: []AgentRef{
			{ID: titleID, ContentType: "title"},
			{ID: heroID, ContentType: "hero_image"},
		},
	}
	edges := []Edge{
		{Source: ProductNodeID(productID), Target: AgentNodeID("title", titleID)},
		{Source: AgentNodeID("title", titleID), Target: AgentNodeID("hero_image", heroID)},
	}

	conns := ConnectionsFromEdges(edges, ents)
	if got := conns[titleID]; len(got) != 1 || got[0] != productID.String() {
		t.Fatalf("title connections = %v", got)
	}
	if got := conns[heroID]; len(got) != 1 || got[0] != titleID.String() {
		t.Fatalf("hero connections = %v", got)
	}
}

func TestConnectionsFromEdgesClearsStaleEntries(t *testing.T) {
	agentID := uuid.New()
	ents := Entities{Agents: []AgentRef{{
		ID:          agentID,
		ContentType: "title",
		Connections: []string{"stale-entry"},
	}}}

	conns := ConnectionsFromEdges(nil, ents)
	got, ok := conns[agentID]
	if !ok {
		t.Fatal("agent missing from rewrite map")
	}
	if len(got) != 0 {
		t.Fatalf("expected cleared connections, got %v", got)
	}
}
