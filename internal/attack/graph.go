package attack

import (
	"github.com/Jaiwincr7/rag-based-model/internal/stix"
)

// Edge is one mitigates relation, mitigation -> technique, by STIX id.
type Edge struct {
	MitigationID string
	TechniqueID  string
}

// GraphStats counts relationship records considered while building the graph.
type GraphStats struct {
	Relationships int `json:"relationships"`
	Kept          int `json:"kept"`
	Unresolved    int `json:"unresolved"`
	Misoriented   int `json:"misoriented"`
	Duplicates    int `json:"duplicates"`
}

// Graph is the pair of one-hop adjacency maps between mitigations and
// techniques. Both maps are derived from the same edge set, so each is the
// exact inverse of the other.
type Graph struct {
	mitigatedBy map[string][]NeighborSummary // technique -> mitigations
	mitigates   map[string][]NeighborSummary // mitigation -> techniques
	edges       []Edge
	stats       GraphStats
}

// BuildGraph collects the mitigates relationships whose endpoints are both
// retained in reg, with a mitigation as source and a technique as target.
// Relationships that fail either check are dropped without error. Repeated
// pairs are collapsed; neighbor order follows the bundle.
func BuildGraph(reg *Registry, objects []stix.Object) *Graph {
	g := &Graph{
		mitigatedBy: make(map[string][]NeighborSummary),
		mitigates:   make(map[string][]NeighborSummary),
	}
	seen := make(map[Edge]struct{})

	for _, obj := range objects {
		if !obj.IsRelationship() || obj.RelationshipType != stix.RelationshipMitigates {
			continue
		}
		g.stats.Relationships++

		src, srcOK := reg.Get(obj.SourceRef)
		tgt, tgtOK := reg.Get(obj.TargetRef)
		if !srcOK || !tgtOK {
			g.stats.Unresolved++
			continue
		}
		if src.Type != NodeTypeMitigation || tgt.Type != NodeTypeTechnique {
			g.stats.Misoriented++
			continue
		}

		edge := Edge{MitigationID: src.StixID, TechniqueID: tgt.StixID}
		if _, dup := seen[edge]; dup {
			g.stats.Duplicates++
			continue
		}
		seen[edge] = struct{}{}

		g.edges = append(g.edges, edge)
		g.mitigates[src.StixID] = append(g.mitigates[src.StixID], tgt.Summary())
		g.mitigatedBy[tgt.StixID] = append(g.mitigatedBy[tgt.StixID], src.Summary())
		g.stats.Kept++
	}

	return g
}

// MitigationsOf returns the mitigations linked to a technique.
func (g *Graph) MitigationsOf(techniqueID string) []NeighborSummary {
	return cloneSummaries(g.mitigatedBy[techniqueID])
}

// TechniquesMitigatedBy returns the techniques linked to a mitigation.
func (g *Graph) TechniquesMitigatedBy(mitigationID string) []NeighborSummary {
	return cloneSummaries(g.mitigates[mitigationID])
}

// Neighbors returns the links of a node in its natural direction: mitigations
// for a technique, techniques for a mitigation.
func (g *Graph) Neighbors(n *Node) []NeighborSummary {
	if n.Type == NodeTypeMitigation {
		return g.TechniquesMitigatedBy(n.StixID)
	}
	return g.MitigationsOf(n.StixID)
}

// Edges returns the kept edges in bundle order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Stats returns the counters gathered while building.
func (g *Graph) Stats() GraphStats {
	return g.stats
}

func cloneSummaries(in []NeighborSummary) []NeighborSummary {
	if len(in) == 0 {
		return nil
	}
	out := make([]NeighborSummary, len(in))
	copy(out, in)
	return out
}
