package attack

import (
	"strings"

	"github.com/Jaiwincr7/rag-based-model/internal/stix"
)

// NormalizeStats counts why bundle objects were or were not retained.
type NormalizeStats struct {
	Objects       int `json:"objects"`
	Relationships int `json:"relationships"`
	Retained      int `json:"retained"`
	Inactive      int `json:"inactive"`
	MissingID     int `json:"missing_id"`
	Unsupported   int `json:"unsupported"`
}

// Registry maps STIX ids to retained nodes, preserving bundle order.
type Registry struct {
	nodes map[string]*Node
	order []string
	stats NormalizeStats
}

// Get returns the node for a STIX id.
func (r *Registry) Get(stixID string) (*Node, bool) {
	n, ok := r.nodes[stixID]
	return n, ok
}

// Len returns the number of retained nodes.
func (r *Registry) Len() int {
	return len(r.order)
}

// Nodes returns all retained nodes in bundle order.
func (r *Registry) Nodes() []*Node {
	out := make([]*Node, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id])
	}
	return out
}

// NodesOfType returns retained nodes of one type in bundle order.
func (r *Registry) NodesOfType(t NodeType) []*Node {
	var out []*Node
	for _, id := range r.order {
		if n := r.nodes[id]; n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Stats returns the counters gathered while normalizing.
func (r *Registry) Stats() NormalizeStats {
	return r.stats
}

// Normalize builds the node registry from a bundle. An object is retained when
// it is an attack-pattern or course-of-action, is neither deprecated nor
// revoked, and carries a mitre-attack external id. Everything else is skipped
// and only counted. When the same STIX id appears twice the first wins.
func Normalize(bundle *stix.Bundle) *Registry {
	reg := &Registry{nodes: make(map[string]*Node)}
	if bundle == nil {
		return reg
	}

	for _, obj := range bundle.Objects {
		reg.stats.Objects++

		if obj.IsRelationship() {
			reg.stats.Relationships++
			continue
		}
		if obj.Inactive() {
			reg.stats.Inactive++
			continue
		}
		nodeType, ok := NodeTypeFromSTIX(obj.Type)
		if !ok {
			reg.stats.Unsupported++
			continue
		}
		mitreID, ok := obj.ExternalID(CatalogSource)
		if !ok || obj.ID == "" {
			reg.stats.MissingID++
			continue
		}
		if _, dup := reg.nodes[obj.ID]; dup {
			continue
		}

		detection := DefaultDetectionText
		if obj.Detection != nil {
			detection = *obj.Detection
		}

		reg.nodes[obj.ID] = &Node{
			StixID:        obj.ID,
			MitreID:       strings.ToUpper(mitreID),
			Name:          obj.Name,
			Type:          nodeType,
			Description:   obj.Description,
			Tactics:       tacticsOf(obj),
			DetectionText: detection,
		}
		reg.order = append(reg.order, obj.ID)
		reg.stats.Retained++
	}

	return reg
}

// tacticsOf extracts the normalized ATT&CK tactics, dropping duplicates and
// phases from other kill chains.
func tacticsOf(obj stix.Object) []string {
	var tactics []string
	seen := make(map[string]struct{})
	for _, phase := range obj.KillChainPhases {
		if phase.KillChainName != KillChainName {
			continue
		}
		tactic := NormalizeTactic(phase.PhaseName)
		if tactic == "" {
			continue
		}
		if _, ok := seen[tactic]; ok {
			continue
		}
		seen[tactic] = struct{}{}
		tactics = append(tactics, tactic)
	}
	return tactics
}
