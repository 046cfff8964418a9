package canvas

import (
	"fmt"
	"testing"
)

func TestPlaceUsesDesiredWhenFree(t *testing.T) {
	x, y := Place(100, 100, NodeKindAgent, nil)
	if x != 100 || y != 100 {
		t.Fatalf("expected desired position, got (%v, %v)", x, y)
	}
}

func TestPlaceDodgesOccupiedDesired(t *testing.T) {
	existing := []Node{{ID: "a", Kind: NodeKindAgent, X: 100, Y: 100}}
	x, y := Place(100, 100, NodeKindAgent, existing)
	if x == 100 && y == 100 {
		t.Fatal("placement returned an occupied position")
	}
	placed := append(existing, Node{ID: "b", Kind: NodeKindAgent, X: x, Y: y})
	if Overlaps(placed) {
		t.Fatalf("placed node at (%v, %v) overlaps existing", x, y)
	}
}

func TestPlaceSequentialNodesNeverOverlap(t *testing.T) {
	var nodes []Node
	for i := 0; i < 8; i++ {
		kind := NodeKindAgent
		if i%4 == 0 {
			kind = NodeKindProduct
		}
		x, y := Place(200, 200, kind, nodes)
		nodes = append(nodes, Node{ID: fmt.Sprintf("n%d", i), Kind: kind, X: x, Y: y})
	}
	if Overlaps(nodes) {
		t.Fatal("sequential placement produced overlapping nodes")
	}
}

func TestPlaceFallbackWhenSearchExhausted(t *testing.T) {
	// Tile a region large enough to defeat the bounded ring search.
	var nodes []Node
	span := float64(placementMaxRing)*placementStep + agentNodeWidth
	for x := -span; x <= span; x += 40 {
		for y := -span; y <= span; y += 40 {
			nodes = append(nodes, Node{Kind: NodeKindAgent, X: x, Y: y})
		}
	}
	x, y := Place(0, 0, NodeKindAgent, nodes)
	if x != fallbackOffset || y != fallbackOffset {
		t.Fatalf("expected fixed fallback (%v, %v), got (%v, %v)", fallbackOffset, fallbackOffset, x, y)
	}
}

func TestBoxesTouchingEdgesDoNotOverlap(t *testing.T) {
	a := Node{Kind: NodeKindAgent, X: 0, Y: 0}
	b := Node{Kind: NodeKindAgent, X: agentNodeWidth, Y: 0}
	if Overlaps([]Node{a, b}) {
		t.Fatal("edge-adjacent boxes reported as overlapping")
	}
}
