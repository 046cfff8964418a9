package canvas

import (
	"strings"

	"github.com/google/uuid"
)

type NodeKind string

const (
	NodeKindProduct  NodeKind = "product"
	NodeKindAgent    NodeKind = "agent"
	NodeKindBrandKit NodeKind = "brandkit"
)

// Node ids are derived from entity type and database id so persisted
// geometry can be re-associated with live entities on load. Product nodes
// keep the legacy "video_" prefix from the original upload flow; changing
// it would orphan every saved canvas.
func ProductNodeID(productID uuid.UUID) string {
	return "video_" + productID.String()
}

func AgentNodeID(contentType string, agentID uuid.UUID) string {
	return "agent_" + contentType + "_" + agentID.String()
}

func BrandKitNodeID(kitID uuid.UUID) string {
	return "brandkit_" + kitID.String()
}

func EdgeID(source, target string) string {
	return "edge_" + source + "_" + target
}

// EntityIDFromNodeID strips the derivation prefix and returns the raw
// database id string, or "" when the node id is not in a known shape.
func EntityIDFromNodeID(nodeID string) string {
	switch {
	case strings.HasPrefix(nodeID, "video_"):
		return strings.TrimPrefix(nodeID, "video_")
	case strings.HasPrefix(nodeID, "brandkit_"):
		return strings.TrimPrefix(nodeID, "brandkit_")
	case strings.HasPrefix(nodeID, "agent_"):
		rest := strings.TrimPrefix(nodeID, "agent_")
		idx := strings.LastIndex(rest, "_")
		if idx < 0 || idx == len(rest)-1 {
			return ""
		}
		return rest[idx+1:]
	}
	return ""
}
