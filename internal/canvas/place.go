package canvas

// Fixed per-kind node dimensions; the client renders product cards larger
// than agent cards, and placement has to agree with it about the boxes.
const (
	productNodeWidth  = 320.0
	productNodeHeight = 380.0
	agentNodeWidth    = 300.0
	agentNodeHeight   = 260.0
	brandKitWidth     = 280.0
	brandKitHeight    = 200.0

	placementStep    = 60.0
	placementMaxRing = 12
	fallbackOffset   = 40.0

	defaultProductX = 120.0
	defaultProductY = 120.0
	productRowStep  = 60.0
)

func NodeSize(kind NodeKind) (w, h float64) {
	switch kind {
	case NodeKindProduct:
		return productNodeWidth, productNodeHeight
	case NodeKindBrandKit:
		return brandKitWidth, brandKitHeight
	default:
		return agentNodeWidth, agentNodeHeight
	}
}

// Eight compass directions, clockwise from east.
var compassOffsets = [8][2]float64{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Place returns a position for a new node of the given kind whose bounding
// box does not overlap any existing node's box. It tries the desired point
// first, then eight compass offsets at increasing radius, and falls back
// to a fixed offset from the desired point when the bounded search finds
// no free slot.
func Place(desiredX, desiredY float64, kind NodeKind, existing []Node) (x, y float64) {
	if isFree(desiredX, desiredY, kind, existing) {
		return desiredX, desiredY
	}
	for ring := 1; ring <= placementMaxRing; ring++ {
		radius := float64(ring) * placementStep
		for _, dir := range compassOffsets {
			cx := desiredX + dir[0]*radius
			cy := desiredY + dir[1]*radius
			if isFree(cx, cy, kind, existing) {
				return cx, cy
			}
		}
	}
	return desiredX + fallbackOffset, desiredY + fallbackOffset
}

func isFree(x, y float64, kind NodeKind, existing []Node) bool {
	w, h := NodeSize(kind)
	for _, n := range existing {
		nw, nh := NodeSize(n.Kind)
		if boxesOverlap(x, y, w, h, n.X, n.Y, nw, nh) {
			return false
		}
	}
	return true
}

func boxesOverlap(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	if ax+aw <= bx || bx+bw <= ax {
		return false
	}
	if ay+ah <= by || by+bh <= ay {
		return false
	}
	return true
}

// Overlaps reports whether any two nodes in the slice have intersecting
// bounding boxes.
func Overlaps(nodes []Node) bool {
	for i := 0; i < len(nodes); i++ {
		iw, ih := NodeSize(nodes[i].Kind)
		for j := i + 1; j < len(nodes); j++ {
			jw, jh := NodeSize(nodes[j].Kind)
			if boxesOverlap(nodes[i].X, nodes[i].Y, iw, ih, nodes[j].X, nodes[j].Y, jw, jh) {
				return true
			}
		}
	}
	return false
}
